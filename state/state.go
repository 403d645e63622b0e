// Package state は、ホストから渡される読み取り専用のスナップショットを定義します。
// エンジンは呼び出しごとにこの値を受け取り、グローバルな状態は一切参照しません。
package state

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMinVoices  = 1
	DefaultMaxVoices  = 4
	DefaultMaxCascade = 2
)

var ErrInvalidSettings = errors.New("invalid settings")

// Settings は、1 回の呼び出しで話す声の数に関する設定です。
// MinVoices と MaxVoices が両方 0 のときは未指定とみなし、既定値を使います。
// それ以外の値はそのまま使い、MaxVoices が 0 なら原始の声しか話しません。
type Settings struct {
	MinVoices int `yaml:"minVoices"  json:"minVoices"`
	MaxVoices int `yaml:"maxVoices"  json:"maxVoices"`
	// MaxCascade が nil なら DefaultMaxCascade です。0 は cascade を無効にします。
	MaxCascade *int `yaml:"maxCascade" json:"maxCascade,omitempty"`
	// ObjectVoiceChance はエンジンでは使わず、そのまま呼び出し元へ返します。
	ObjectVoiceChance float64 `yaml:"objectVoiceChance" json:"objectVoiceChance"`
}

// Validate は負の値を拒否します。
func (s Settings) Validate() error {
	if s.MinVoices < 0 || s.MaxVoices < 0 || (s.MaxCascade != nil && *s.MaxCascade < 0) {
		return fmt.Errorf("state.Settings.Validate: %w: negative voice count", ErrInvalidSettings)
	}
	if s.ObjectVoiceChance < 0 || s.ObjectVoiceChance > 1 {
		return fmt.Errorf("state.Settings.Validate: %w: objectVoiceChance %v", ErrInvalidSettings, s.ObjectVoiceChance)
	}
	return nil
}

// Cascade は、有効な cascade の上限を返します。
func (s Settings) Cascade() int {
	if s.MaxCascade == nil {
		return DefaultMaxCascade
	}
	return *s.MaxCascade
}

// Unset は、MinVoices と MaxVoices が両方とも指定されていないかを返します。
func (s Settings) Unset() bool {
	return s.MinVoices == 0 && s.MaxVoices == 0
}

// WithDefaults は、未指定の値を fallback で埋めた Settings を返します。
func (s Settings) WithDefaults(fallback Settings) Settings {
	if s.Unset() {
		s.MinVoices, s.MaxVoices = fallback.MinVoices, fallback.MaxVoices
	}
	if s.MaxCascade == nil {
		s.MaxCascade = fallback.MaxCascade
	}
	if s.ObjectVoiceChance == 0 {
		s.ObjectVoiceChance = fallback.ObjectVoiceChance
	}
	return s
}

// Normalize は、未指定の値を既定値で埋め、MinVoices を [0, MaxVoices] に収めた Settings を返します。
// ホストが指定した MaxVoices を引き上げることはありません。
func (s Settings) Normalize() Settings {
	if s.Unset() {
		s.MinVoices = DefaultMinVoices
		s.MaxVoices = DefaultMaxVoices
	}
	cascade := s.Cascade()
	s.MaxCascade = &cascade
	s.MinVoices = min(max(s.MinVoices, 0), s.MaxVoices)
	return s
}

// Snapshot は、ホストの状態層が公開する値の写しです。
type Snapshot struct {
	Levels            map[string]int `yaml:"levels"            json:"levels,omitempty"`
	ActiveStatuses    []string       `yaml:"activeStatuses"    json:"activeStatuses,omitempty"`
	ResearchPenalties map[string]int `yaml:"researchPenalties" json:"researchPenalties,omitempty"`
	Settings          Settings       `yaml:"settings"          json:"settings"`
}

// Level は声の基本レベルを返します。スナップショットに値がなければ base を使います。
func (s Snapshot) Level(voiceID string, base int) int {
	if lv, ok := s.Levels[voiceID]; ok {
		return lv
	}
	return base
}

// Penalty は研究による補正値を返します。
func (s Snapshot) Penalty(voiceID string) int {
	return s.ResearchPenalties[voiceID]
}

// HasStatus はステータス効果が有効かどうかを返します。
func (s Snapshot) HasStatus(id string) bool {
	return slices.Contains(s.ActiveStatuses, id)
}

// Load は YAML からスナップショットを読み込みます。
func Load(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := yaml.NewDecoder(r).Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return Snapshot{}, nil
		}
		return Snapshot{}, fmt.Errorf("state.Load: %w", err)
	}
	if err := s.Settings.Validate(); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// LoadFile は path の YAML を読み込みます。path が空ならゼロ値を返します。
func LoadFile(path string) (Snapshot, error) {
	if path == "" {
		return Snapshot{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("state.LoadFile: %w", err)
	}
	defer f.Close()
	return Load(f)
}

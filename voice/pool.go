package voice

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sat8bit/chorus/configs"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownVoice       = errors.New("unknown voice")
	ErrDuplicateID        = errors.New("duplicate voice id")
	ErrDuplicateSignature = errors.New("duplicate voice signature")
	ErrInvalidVoice       = errors.New("invalid voice definition")
)

// Pool は、読み込まれた声の一覧です。読み込み後は変更されません。
type Pool struct {
	voices []*Voice
	byID   map[string]*Voice
}

type poolFile struct {
	Voices []*Voice `yaml:"voices"`
}

// NewPool は埋め込みの声テーブルから Pool を生成します。
func NewPool() (*Pool, error) {
	return NewPoolFromYAML(configs.Voices)
}

// NewPoolFromYAML は YAML から Pool を生成します。
// 署名の衝突はここで設定エラーとして拒否します。
func NewPoolFromYAML(data []byte) (*Pool, error) {
	var f poolFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("voice.NewPoolFromYAML: %w", err)
	}
	return NewPoolFromVoices(f.Voices)
}

// NewPoolFromVoices は、与えられた声を検証して Pool を生成します。
func NewPoolFromVoices(voices []*Voice) (*Pool, error) {
	p := &Pool{
		voices: make([]*Voice, 0, len(voices)),
		byID:   make(map[string]*Voice, len(voices)),
	}
	signatures := make(map[string]string, len(voices))

	for _, v := range voices {
		if v == nil || v.ID == "" || v.Signature == "" {
			return nil, fmt.Errorf("voice.NewPool: %w: missing id or signature", ErrInvalidVoice)
		}
		if !v.Attribute.valid() {
			return nil, fmt.Errorf("voice.NewPool: %w: %s has attribute %q", ErrInvalidVoice, v.ID, v.Attribute)
		}
		if v.Primal != (v.Attribute == AttributePrimal) {
			return nil, fmt.Errorf("voice.NewPool: %w: %s primal flag does not match attribute", ErrInvalidVoice, v.ID)
		}
		if _, ok := p.byID[v.ID]; ok {
			return nil, fmt.Errorf("voice.NewPool: %w: %s", ErrDuplicateID, v.ID)
		}
		sig := NormalizeSignature(v.Signature)
		if other, ok := signatures[sig]; ok {
			return nil, fmt.Errorf("voice.NewPool: %w: %q used by %s and %s", ErrDuplicateSignature, sig, other, v.ID)
		}
		signatures[sig] = v.ID
		if v.BaseLevel < 1 {
			v.BaseLevel = 1
		}
		if v.Name == "" {
			v.Name = v.ID
		}
		p.voices = append(p.voices, v)
		p.byID[v.ID] = v
	}
	return p, nil
}

// All は、定義順のすべての声を返します。
func (p *Pool) All() []*Voice {
	if p == nil {
		return nil
	}
	return p.voices
}

// Ordinary は原始の声を除いた声を返します。
func (p *Pool) Ordinary() []*Voice {
	return p.filter(func(v *Voice) bool { return !v.Primal })
}

// Primal は原始の声だけを返します。
func (p *Pool) Primal() []*Voice {
	return p.filter(func(v *Voice) bool { return v.Primal })
}

func (p *Pool) filter(keep func(*Voice) bool) []*Voice {
	if p == nil {
		return nil
	}
	out := make([]*Voice, 0, len(p.voices))
	for _, v := range p.voices {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// Get は ID で声を探します。
func (p *Pool) Get(id string) (*Voice, error) {
	if p != nil {
		if v, ok := p.byID[id]; ok {
			return v, nil
		}
	}
	return nil, fmt.Errorf("voice %q: %w", id, ErrUnknownVoice)
}

// Has は ID が定義済みかどうかを返します。
func (p *Pool) Has(id string) bool {
	if p == nil {
		return false
	}
	_, ok := p.byID[id]
	return ok
}

// IDs は、ソート済みのすべての ID を返します。
func (p *Pool) IDs() []string {
	ids := make([]string, 0, len(p.All()))
	for _, v := range p.All() {
		ids = append(ids, v.ID)
	}
	sort.Strings(ids)
	return ids
}

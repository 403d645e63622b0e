// Package status は、ステータス効果と声ごとのレベル補正の表を扱います。
package status

import (
	"fmt"
	"sort"

	"github.com/sat8bit/chorus/configs"
	"gopkg.in/yaml.v3"
)

// Status は、ひとつのステータス効果です。
type Status struct {
	ID        string         `yaml:"id"`
	Name      string         `yaml:"name"`
	Modifiers map[string]int `yaml:"modifiers"`
}

// Table は、ステータス ID から Status を引く読み取り専用の表です。
type Table struct {
	byID map[string]*Status
}

type tableFile struct {
	Statuses []*Status `yaml:"statuses"`
}

// NewTable は埋め込みのステータス表を読み込みます。
func NewTable() (*Table, error) {
	return NewTableFromYAML(configs.Statuses)
}

func NewTableFromYAML(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("status.NewTableFromYAML: %w", err)
	}
	t := &Table{byID: make(map[string]*Status, len(f.Statuses))}
	for _, s := range f.Statuses {
		if s == nil || s.ID == "" {
			return nil, fmt.Errorf("status.NewTableFromYAML: status without id")
		}
		if _, ok := t.byID[s.ID]; ok {
			return nil, fmt.Errorf("status.NewTableFromYAML: duplicate status %q", s.ID)
		}
		t.byID[s.ID] = s
	}
	return t, nil
}

// Delta は、statusID が voiceID に与える補正値を返します。
// 未知のステータスは ok=false を返します。
func (t *Table) Delta(statusID, voiceID string) (int, bool) {
	if t == nil {
		return 0, false
	}
	s, ok := t.byID[statusID]
	if !ok {
		return 0, false
	}
	return s.Modifiers[voiceID], true
}

// Get はステータスを返します。
func (t *Table) Get(id string) (*Status, bool) {
	if t == nil {
		return nil, false
	}
	s, ok := t.byID[id]
	return s, ok
}

// IDs はソート済みのステータス ID を返します。
func (t *Table) IDs() []string {
	if t == nil {
		return nil
	}
	ids := make([]string, 0, len(t.byID))
	for id := range t.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// VoiceIDs は、表が参照している声の ID をすべて返します。読み込み時の検証に使います。
func (t *Table) VoiceIDs() []string {
	seen := map[string]struct{}{}
	for _, id := range t.IDs() {
		for v := range t.byID[id].Modifiers {
			seen[v] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

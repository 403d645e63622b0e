package relation

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/sat8bit/chorus/configs"
	"github.com/sat8bit/chorus/voice"
	"gopkg.in/yaml.v3"
)

// OverrideFile は、データディレクトリ内の上書きファイル名です。
const OverrideFile = "relations.yaml"

// Store は、埋め込みの関係性と、データディレクトリにある上書きを読み書きします。
type Store struct {
	dataDir string
}

// NewStore は新しい Store を生成します。dataDir が空なら埋め込みの関係性だけを使います。
func NewStore(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

// Load は埋め込みの関係性に上書きをマージして Graph を構築します。
// 上書きは声の ID 単位、ルールの ID 単位で置き換えます。上書きファイルがなくてもエラーにはなりません。
func (s *Store) Load(pool *voice.Pool) (*Graph, []Issue, error) {
	base, err := ParseFile(configs.Relations)
	if err != nil {
		return nil, nil, err
	}

	if s.dataDir != "" {
		path := filepath.Join(s.dataDir, OverrideFile)
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, nil, fmt.Errorf("relation.Store.Load: failed to read %s: %w", path, err)
		default:
			override, err := ParseFile(data)
			if err != nil {
				return nil, nil, fmt.Errorf("relation.Store.Load: %s: %w", path, err)
			}
			merge(base, override)
		}
	}

	g, issues := Build(base, pool)
	return g, issues, nil
}

func merge(base, override *File) {
	for id, e := range override.Relations {
		base.Relations[id] = e
	}
	index := make(map[string]int, len(base.Cascades))
	for i, r := range base.Cascades {
		if r != nil {
			index[r.ID] = i
		}
	}
	for _, r := range override.Cascades {
		if r == nil {
			continue
		}
		if i, ok := index[r.ID]; ok {
			base.Cascades[i] = r
			continue
		}
		index[r.ID] = len(base.Cascades)
		base.Cascades = append(base.Cascades, r)
	}
}

// Save は Graph を上書きファイルとして書き出します。
func (s *Store) Save(g *Graph) error {
	if s.dataDir == "" {
		return fmt.Errorf("relation.Store.Save: data directory is not configured")
	}
	data, err := yaml.Marshal(g.File())
	if err != nil {
		return fmt.Errorf("relation.Store.Save: failed to marshal relations: %w", err)
	}
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("relation.Store.Save: failed to create %s: %w", s.dataDir, err)
	}
	path := filepath.Join(s.dataDir, OverrideFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("relation.Store.Save: failed to write %s: %w", path, err)
	}
	return nil
}

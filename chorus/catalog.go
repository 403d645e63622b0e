package chorus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sat8bit/chorus/relation"
	"github.com/sat8bit/chorus/relevance"
	"github.com/sat8bit/chorus/selector"
	"github.com/sat8bit/chorus/status"
	"github.com/sat8bit/chorus/voice"
)

// Catalog は、起動時に一度だけ読み込む静的なデータ表の集まりです。
type Catalog struct {
	Pool     *voice.Pool
	Statuses *status.Table
	Graph    *relation.Graph
	Primal   *selector.PrimalRules
	Issues   []relation.Issue
}

// LoadCatalog は埋め込みの表を読み込みます。relationsDir があれば関係性の上書きをマージします。
// 関係性の不正な参照は取り除かれ、警告としてログに出ます。
func LoadCatalog(ctx context.Context, relationsDir string, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := voice.NewPool()
	if err != nil {
		return nil, fmt.Errorf("chorus.LoadCatalog: %w", err)
	}
	statuses, err := status.NewTable()
	if err != nil {
		return nil, fmt.Errorf("chorus.LoadCatalog: %w", err)
	}
	graph, issues, err := relation.NewStore(relationsDir).Load(pool)
	if err != nil {
		return nil, fmt.Errorf("chorus.LoadCatalog: %w", err)
	}
	for _, is := range issues {
		logger.WarnContext(ctx, "relation reference pruned", "source", "catalog", "issue", is.String())
	}
	primal, err := selector.LoadPrimalRules(pool)
	if err != nil {
		return nil, fmt.Errorf("chorus.LoadCatalog: %w", err)
	}

	return &Catalog{Pool: pool, Statuses: statuses, Graph: graph, Primal: primal, Issues: issues}, nil
}

func (c *Catalog) scorer() (*relevance.Scorer, error) {
	return relevance.NewScorer(c.Pool, c.Statuses)
}

package fetcher

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/sat8bit/chorus/scene"
)

// DefaultMaxChars は、1 つの場面として渡す本文の上限文字数です。
const DefaultMaxChars = 1200

// RSSFetcher は scene.Source の RSS 実装です。フィードの記事 1 件を場面 1 つにします。
type RSSFetcher struct {
	url      string
	limit    int
	maxChars int
	parser   *gofeed.Parser
}

// NewRSSFetcher は新しい RSSFetcher を生成します。
// limit は取得する記事の上限数です。0 以下の場合は無制限。
func NewRSSFetcher(url string, limit int) *RSSFetcher {
	return &RSSFetcher{
		url:      url,
		limit:    limit,
		maxChars: DefaultMaxChars,
		parser:   gofeed.NewParser(),
	}
}

// Fetch はフィードを取得し、新しい順に場面へ変換します。本文が空の記事は飛ばします。
func (f *RSSFetcher) Fetch(ctx context.Context) ([]*scene.Scene, error) {
	feed, err := f.parser.ParseURLWithContext(f.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetcher.RSSFetcher.Fetch: %s: %w", f.url, err)
	}

	items := feed.Items
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].PublishedParsed, items[j].PublishedParsed
		if a == nil || b == nil {
			return false
		}
		return a.After(*b)
	})

	var scenes []*scene.Scene
	for _, item := range items {
		if f.limit > 0 && len(scenes) >= f.limit {
			break
		}
		body := item.Content
		if strings.TrimSpace(body) == "" {
			body = item.Description
		}
		text := truncateRunes(plainText(body), f.maxChars)
		if text == "" {
			continue
		}
		scenes = append(scenes, &scene.Scene{
			Title:     strings.TrimSpace(item.Title),
			Text:      text,
			SourceURL: item.Link,
		})
	}
	return scenes, nil
}

// plainText は HTML 断片から本文だけを取り出し、空白を詰めます。
func plainText(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	doc.Find("script, style").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if n > 0 && len(r) > n {
		return string(r[:n])
	}
	return s
}

var _ scene.Source = (*RSSFetcher)(nil)

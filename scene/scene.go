package scene

import "context"

// Scene は、反応の対象となるひとまとまりのテキストです。
// 出所（RSS、標準入力、MCP など）に依存しない形式です。
type Scene struct {
	Title     string
	Text      string
	SourceURL string
}

// Source は、外部から []*Scene を取得するためのインターフェースです。
type Source interface {
	Fetch(ctx context.Context) ([]*Scene, error)
}

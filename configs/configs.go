// Package configs は、バイナリに埋め込まれる既定のデータテーブルを提供します。
package configs

import _ "embed"

// Voices は、声（スキル）の定義テーブルです。
//
//go:embed voices.yaml
var Voices []byte

// Relations は、声同士の関係性とカスケードルールのテーブルです。
//
//go:embed relations.yaml
var Relations []byte

// Statuses は、ステータス効果ごとの声へのレベル補正テーブルです。
//
//go:embed statuses.yaml
var Statuses []byte

// Primal は、原始の声を目覚めさせるトリガールールです。
//
//go:embed primal.yaml
var Primal []byte

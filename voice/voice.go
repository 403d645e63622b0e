package voice

import "strings"

// Attribute は、声が属する能力グループです。
type Attribute string

const (
	AttributeIntellect Attribute = "intellect"
	AttributePsyche    Attribute = "psyche"
	AttributePhysique  Attribute = "physique"
	AttributeMotorics  Attribute = "motorics"
	AttributePrimal    Attribute = "primal"
)

func (a Attribute) valid() bool {
	switch a {
	case AttributeIntellect, AttributePsyche, AttributePhysique, AttributeMotorics, AttributePrimal:
		return true
	}
	return false
}

// Voice は、内なる合唱のひとつの声（スキル）を定義します。
// Signature は生成サービスとの境界でだけ使われるラベルで、内部では常に ID で扱います。
type Voice struct {
	ID          string    `yaml:"id"          json:"id"`
	Name        string    `yaml:"name"        json:"name"`
	Signature   string    `yaml:"signature"   json:"signature"`
	Attribute   Attribute `yaml:"attribute"   json:"attribute"`
	Color       string    `yaml:"color"       json:"color"`
	Personality string    `yaml:"personality" json:"personality"`
	Keywords    []string  `yaml:"keywords"    json:"keywords"`
	BaseLevel   int       `yaml:"baseLevel"   json:"baseLevel"`
	Primal      bool      `yaml:"primal"      json:"primal"`
}

// NormalizeSignature は、ラベル照合に使う正規形を返します。
func NormalizeSignature(s string) string {
	return strings.Join(strings.Fields(strings.ToUpper(s)), " ")
}

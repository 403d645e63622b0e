package dice

import (
	"github.com/sat8bit/chorus/random"
	"github.com/sat8bit/chorus/scene"
)

const (
	MinDifficulty = 6
	MaxDifficulty = 18

	cascadeBase = 12
	// 強いシグナルがあると判定がひとつ易しくなります。
	intenseSignal = 0.6
)

var perturbations = [...]int{-2, 0, 2}

// Subject は、難易度を決めるために必要な選択の情報です。
type Subject struct {
	Primal    bool
	Cascade   bool
	Relevance float64
}

// DetermineDifficulty は、判定を行うかどうかと難易度を返します。
func DetermineDifficulty(s Subject, vec scene.Vector, src random.Source) (bool, int) {
	if s.Primal {
		return false, 0
	}
	if s.Cascade {
		return true, cascadeBase + src.IntN(3)
	}

	var d int
	switch {
	case s.Relevance > 0.7:
		d = 8
	case s.Relevance > 0.5:
		d = 10
	case s.Relevance > 0.3:
		d = 12
	default:
		d = 14
	}
	if vec.Any(intenseSignal) {
		d--
	}
	d += perturbations[src.IntN(len(perturbations))]
	return true, min(max(d, MinDifficulty), MaxDifficulty)
}

type band struct {
	threshold int
	name      string
}

var bands = []band{
	{6, "Trivial"},
	{8, "Easy"},
	{10, "Medium"},
	{12, "Challenging"},
	{13, "Formidable"},
	{14, "Heroic"},
	{15, "Legendary"},
	{16, "Godly"},
	{18, "Impossible"},
}

// BandName は難易度の帯の名前を返します。
func BandName(difficulty int) string {
	name := bands[0].name
	for _, b := range bands {
		if difficulty < b.threshold {
			break
		}
		name = b.name
	}
	return name
}

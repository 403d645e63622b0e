// Package dice は 2d6 判定とその周辺の計算を提供します。
package dice

import (
	"errors"
	"fmt"

	"github.com/sat8bit/chorus/random"
)

const (
	Faces = 6

	// これを超える難易度は不正な入力とみなします。
	maxDifficultyInput = 30
)

var (
	ErrInvalidLevel      = errors.New("invalid check level")
	ErrInvalidDifficulty = errors.New("invalid check difficulty")
	ErrInvalidDie        = errors.New("invalid die value")
)

// Check は 1 回の判定結果です。
// Boxcars と SnakeEyes は排他で、どちらかが立っていれば閾値の比較より優先されます。
type Check struct {
	Die1       int    `json:"die1"`
	Die2       int    `json:"die2"`
	Sum        int    `json:"sum"`
	Level      int    `json:"level"`
	Total      int    `json:"total"`
	Difficulty int    `json:"difficulty"`
	Band       string `json:"band"`
	Success    bool   `json:"success"`
	Boxcars    bool   `json:"boxcars,omitempty"`
	SnakeEyes  bool   `json:"snakeEyes,omitempty"`
	Margin     int    `json:"margin"`
}

// Critical はクリティカルかどうかを返します。
func (c Check) Critical() bool {
	return c.Boxcars || c.SnakeEyes
}

// Framing は、プロンプトに載せる結果の言い回しを返します。
func (c Check) Framing() string {
	switch {
	case c.Boxcars:
		return "critical success"
	case c.SnakeEyes:
		return "critical failure"
	case c.Success:
		return "success"
	default:
		return "failure"
	}
}

func (c Check) String() string {
	return fmt.Sprintf("[%d+%d]+%d=%d vs %d (%s): %s", c.Die1, c.Die2, c.Level, c.Total, c.Difficulty, c.Band, c.Framing())
}

// Resolve は出目が決まった判定を解決します。
func Resolve(die1, die2, level, difficulty int) (Check, error) {
	if err := validate(level, difficulty); err != nil {
		return Check{}, err
	}
	if die1 < 1 || die1 > Faces || die2 < 1 || die2 > Faces {
		return Check{}, fmt.Errorf("dice.Resolve: %w: %d, %d", ErrInvalidDie, die1, die2)
	}

	c := Check{
		Die1:       die1,
		Die2:       die2,
		Sum:        die1 + die2,
		Level:      level,
		Difficulty: difficulty,
		Band:       BandName(difficulty),
		Boxcars:    die1 == Faces && die2 == Faces,
		SnakeEyes:  die1 == 1 && die2 == 1,
	}
	c.Total = c.Sum + c.Level
	c.Margin = c.Total - c.Difficulty

	switch {
	case c.Boxcars:
		c.Success = true
	case c.SnakeEyes:
		c.Success = false
	default:
		c.Success = c.Total >= c.Difficulty
	}
	return c, nil
}

func validate(level, difficulty int) error {
	if level < 0 {
		return fmt.Errorf("dice: %w: %d", ErrInvalidLevel, level)
	}
	if difficulty < 1 || difficulty > maxDifficultyInput {
		return fmt.Errorf("dice: %w: %d", ErrInvalidDifficulty, difficulty)
	}
	return nil
}

// Roller は Source から出目を引いて判定します。
type Roller struct {
	src random.Source
}

func NewRoller(src random.Source) *Roller {
	return &Roller{src: src}
}

// Roll は 2d6 を振って判定します。入力が不正な場合は出目を引かずにエラーを返します。
func (r *Roller) Roll(level, difficulty int) (Check, error) {
	if err := validate(level, difficulty); err != nil {
		return Check{}, err
	}
	d1 := r.src.IntN(Faces) + 1
	d2 := r.src.IntN(Faces) + 1
	return Resolve(d1, d2, level, difficulty)
}

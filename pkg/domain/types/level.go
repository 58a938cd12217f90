package types

import (
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Level is one band of the ordered five-level probability/impact scale
type Level string

const (
	LevelVeryLow  Level = "Very Low"
	LevelLow      Level = "Low"
	LevelMedium   Level = "Medium"
	LevelHigh     Level = "High"
	LevelVeryHigh Level = "Very High"
)

// AllLevels returns the levels in ascending order
func AllLevels() []Level {
	return []Level{
		LevelVeryLow,
		LevelLow,
		LevelMedium,
		LevelHigh,
		LevelVeryHigh,
	}
}

// IsValid checks if the level is one of the five canonical bands
func (l Level) IsValid() bool {
	switch l {
	case LevelVeryLow,
		LevelLow,
		LevelMedium,
		LevelHigh,
		LevelVeryHigh:
		return true
	default:
		return false
	}
}

// Rank returns the zero-based position of the level on the scale, or -1 if unknown
func (l Level) Rank() int {
	for i, lv := range AllLevels() {
		if lv == l {
			return i
		}
	}
	return -1
}

// Reduce steps the level one notch toward Very Low, clamped at the floor.
// Unknown levels are treated as Medium before reduction.
func (l Level) Reduce() Level {
	rank := l.Rank()
	if rank < 0 {
		rank = LevelMedium.Rank()
	}
	if rank == 0 {
		return LevelVeryLow
	}
	return AllLevels()[rank-1]
}

// String returns the string representation of the level
func (l Level) String() string {
	return string(l)
}

// ParseLevel parses a level name case-insensitively, tolerating surrounding whitespace
func ParseLevel(s string) (Level, error) {
	normalized := strings.ToLower(strings.Join(strings.Fields(s), " "))
	for _, lv := range AllLevels() {
		if strings.ToLower(string(lv)) == normalized {
			return lv, nil
		}
	}
	return "", goerr.New("invalid level", goerr.V("level", s))
}

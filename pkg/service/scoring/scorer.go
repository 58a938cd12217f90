// Package scoring implements keyword and threshold heuristics that suggest
// probability, impact, ownership and controls for KRI rows. Every rule comes
// from a config.ScoringPolicy so a suggestion can always be traced back to the
// table entry that produced it.
package scoring

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/secmon-lab/oprisk/pkg/domain/model/config"
	"github.com/secmon-lab/oprisk/pkg/domain/types"
)

// Scorer applies one scoring policy. It is safe for concurrent use.
type Scorer struct {
	policy *config.ScoringPolicy
	zero   map[string]struct{}
}

// New creates a Scorer for the policy. The policy must not be modified afterwards.
func New(policy *config.ScoringPolicy) *Scorer {
	zero := make(map[string]struct{}, len(policy.ZeroOccurrence))
	for _, v := range policy.ZeroOccurrence {
		zero[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}

	return &Scorer{
		policy: policy,
		zero:   zero,
	}
}

// Policy returns the policy the scorer was built with
func (s *Scorer) Policy() *config.ScoringPolicy {
	return s.policy
}

// Probability converts an occurrence cell into a probability level
func (s *Scorer) Probability(raw string) types.Level {
	op := s.policy.Occurrence
	value := strings.ToLower(strings.TrimSpace(raw))
	if value == "" {
		return op.Unparsed
	}

	if len(op.Percents) > 0 && strings.HasSuffix(value, "%") {
		n, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(value, "%")), 64)
		if err != nil || !isFinite(n) {
			return op.Unparsed
		}
		return band(op.Percents, op.PercentCeiling, n)
	}

	if len(op.Frequencies) > 0 {
		if lv, ok := matchLevel(op.Frequencies, normalize(value)); ok {
			return lv
		}
	}

	n, ok := parseCount(value, op.AllowFraction)
	if !ok {
		return op.Unparsed
	}
	return band(op.Counts, op.Ceiling, n)
}

// Impact classifies free text by the first matching keyword tier
func (s *Scorer) Impact(text string) types.Level {
	if lv, ok := matchLevel(s.policy.Impact, normalize(text)); ok {
		return lv
	}
	return s.policy.DefaultImpact
}

// Owner suggests the accountable role for an area
func (s *Scorer) Owner(areaName string) string {
	return matchValue(s.policy.Owner, normalize(areaName), s.policy.DefaultOwner)
}

// Coordinator suggests the monitoring coordinator from the combined row text
func (s *Scorer) Coordinator(text string) string {
	return matchValue(s.policy.Coordinator, normalize(text), s.policy.DefaultCoordinator)
}

// Controls returns the canned control description for an area
func (s *Scorer) Controls(areaName string) string {
	return matchValue(s.policy.Controls, normalize(areaName), s.policy.DefaultControls)
}

// IsZeroOccurrence reports whether the occurrence cell means "did not occur"
func (s *Scorer) IsZeroOccurrence(raw string) bool {
	_, ok := s.zero[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}

// Residual derives residual levels from inherent ones according to the policy
func (s *Scorer) Residual(probability, impact types.Level) (types.Level, types.Level) {
	if !s.policy.ReduceResidual {
		return probability, impact
	}
	return probability.Reduce(), impact.Reduce()
}

func parseCount(value string, allowFraction bool) (float64, bool) {
	value = strings.ReplaceAll(value, ",", "")
	if allowFraction {
		n, err := strconv.ParseFloat(value, 64)
		if err != nil || !isFinite(n) {
			return 0, false
		}
		return n, true
	}

	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false
	}
	return float64(n), true
}

// ParseFloat accepts "NaN" and "Inf"; neither is an occurrence count.
func isFinite(n float64) bool {
	return !math.IsNaN(n) && !math.IsInf(n, 0)
}

func band(bands []config.Band, ceiling types.Level, n float64) types.Level {
	for _, b := range bands {
		if b.Exclusive && n < b.Max {
			return b.Level
		}
		if !b.Exclusive && n <= b.Max {
			return b.Level
		}
	}
	return ceiling
}

// normalize lower-cases text, folds every non alphanumeric rune into a single
// space and pads the result so " word " keywords match at the edges.
func normalize(text string) string {
	return " " + fold(text) + " "
}

func fold(text string) string {
	folded := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)
	return strings.Join(strings.Fields(folded), " ")
}

// normalizeKeyword folds a keyword the same way as normalize but keeps its
// edge spaces, which mark whole-word matches.
func normalizeKeyword(kw string) string {
	core := fold(kw)
	if core == "" {
		return ""
	}
	if strings.HasPrefix(kw, " ") {
		core = " " + core
	}
	if strings.HasSuffix(kw, " ") {
		core += " "
	}
	return core
}

func contains(normalized string, keywords []string) bool {
	for _, kw := range keywords {
		kw = normalizeKeyword(kw)
		if kw == "" {
			continue
		}
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

func matchLevel(rules []config.LevelRule, normalized string) (types.Level, bool) {
	for _, r := range rules {
		if contains(normalized, r.Keywords) {
			return r.Level, true
		}
	}
	return "", false
}

func matchValue(rules []config.KeywordRule, normalized, fallback string) string {
	for _, r := range rules {
		if contains(normalized, r.Keywords) {
			return r.Value
		}
	}
	return fallback
}

package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/domain/interfaces"
)

const (
	referenceFormat = "RISK-%s-%03d"

	// genericReferencePrefix is used when the area name has no usable characters
	genericReferencePrefix = "GEN"
	maxReferencePrefix     = 4

	// maxReferenceBump bounds the suffix search of uniqueReferenceID
	maxReferenceBump = 10000
)

// ReferencePrefix derives the area part of a reference ID from the first word
// of the area name, e.g. "IT Department" -> "IT", "Microfinance" -> "MICR".
func ReferencePrefix(areaName string) string {
	words := strings.Fields(areaName)
	for _, w := range words {
		var b strings.Builder
		for _, r := range w {
			if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
				b.WriteRune(unicode.ToUpper(r))
			}
			if b.Len() == maxReferencePrefix {
				break
			}
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return genericReferencePrefix
}

// BaseReferenceID returns the reference ID before collision handling for the
// seq-th row of an area
func BaseReferenceID(areaName string, seq int) string {
	return fmt.Sprintf(referenceFormat, ReferencePrefix(areaName), seq)
}

// uniqueReferenceID returns base when unused, otherwise the first free of
// base-1, base-2, ... The result is not reserved.
func uniqueReferenceID(ctx context.Context, repo interfaces.RiskRepository, base string) (string, error) {
	candidate := base
	for bump := 1; bump <= maxReferenceBump; bump++ {
		exists, err := repo.Exists(ctx, candidate)
		if err != nil {
			return "", goerr.Wrap(err, "failed to check reference id", goerr.V(ReferenceIDKey, candidate))
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, bump)
	}

	return "", goerr.Wrap(ErrReferenceExhausted, "failed to find unique reference id", goerr.V(ReferenceIDKey, base))
}

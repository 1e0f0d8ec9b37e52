package order

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// DefaultNumberPrefix starts every order number
const DefaultNumberPrefix = "ORD-"

const suffixLength = 13

// RandomSuffix returns 13 upper-case hex characters
func RandomSuffix() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:suffixLength])
}

// NumberGenerator issues order numbers that are not yet taken
type NumberGenerator struct {
	Prefix string
	Suffix func() string
}

// NewNumberGenerator returns a generator with random suffixes
func NewNumberGenerator(prefix string) *NumberGenerator {
	if prefix == "" {
		prefix = DefaultNumberPrefix
	}
	return &NumberGenerator{
		Prefix: prefix,
		Suffix: RandomSuffix,
	}
}

// Next draws numbers until one is unused. Collisions are practically
// impossible, so the loop has no attempt limit.
func (g *NumberGenerator) Next(ctx context.Context, repo Repository) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		number := g.Prefix + g.Suffix()
		exists, err := repo.NumberExists(ctx, number)
		if err != nil {
			return "", errors.Wrap(err, "check order number")
		}
		if !exists {
			return number, nil
		}
	}
}

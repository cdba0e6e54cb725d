package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strconv"

	"github.com/jaam8/poll_profiles/internal/models"
)

const (
	handlePrefix   = "user"
	handleBaseSpan = 1000
	// 1000·10^6 still fits a 32-bit int
	maxSpanExponent = 6
)

// HandleGenerator picks placeholder handles of the form user<number>. Attempt
// i draws from a span ten times wider than attempt i-1, up to attempt 6, and
// gives up after a fixed number of attempts.
type HandleGenerator struct {
	attempts int
	intn     func(n int) int
}

func NewHandleGenerator(attempts int) *HandleGenerator {
	if attempts < 1 {
		attempts = 1
	}
	return &HandleGenerator{attempts: attempts, intn: rand.Intn}
}

func (g *HandleGenerator) Candidate(email string, attempt int) string {
	span := handleBaseSpan
	for i := 0; i < attempt && i < maxSpanExponent; i++ {
		span *= 10
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(email))
	n := (int(h.Sum64()%uint64(span)) + g.intn(span)) % span
	return handlePrefix + strconv.Itoa(n)
}

// Generate returns the first candidate that reserved reports as free.
func (g *HandleGenerator) Generate(ctx context.Context, email string, reserved func(ctx context.Context, name string) (bool, error)) (string, error) {
	for attempt := 0; attempt < g.attempts; attempt++ {
		name := g.Candidate(email, attempt)
		taken, err := reserved(ctx, name)
		if err != nil {
			return "", err
		}
		if !taken {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: %d attempts", models.ErrHandleExhausted, g.attempts)
}

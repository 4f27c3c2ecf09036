package loadcheck

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/okian/eblviz/internal/domain/dosage"
	"github.com/okian/eblviz/pkg/logger"
)

// Constants for dose generation.
const (
	caseUniform   = 0 // any dose in range
	caseBoundary  = 1 // slider ends
	caseDefault   = 2 // untouched slider
	doseCaseCount = 4
)

// newRand returns the generator for seed, picking a clock seed for zero.
func newRand(seed uint64) (*rand.Rand, uint64) {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), seed
}

// generateSubmissions creates n vectors for each slider group.
func generateSubmissions(ctx context.Context, config *Config, stats *Stats) ([]Submission, error) {
	rng, seed := newRand(config.Seed)
	logger.Get().Info(ctx, "generating dosage vectors",
		logger.Int("perGroup", config.NumVectors),
		logger.Any("seed", seed))

	subs := make([]Submission, 0, 2*config.NumVectors)
	for _, g := range []dosage.Group{dosage.GroupPrediction, dosage.GroupAnimation} {
		for i := 0; i < config.NumVectors; i++ {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("context cancelled during generation: %w", err)
			}
			sub, err := generateSubmission(rng, g)
			if err != nil {
				return nil, fmt.Errorf("failed to generate vector %d: %w", i, err)
			}
			subs = append(subs, sub)
		}
	}
	// Interleave the groups so both endpoints see load at the same time.
	rng.Shuffle(len(subs), func(i, j int) { subs[i], subs[j] = subs[j], subs[i] })

	stats.VectorsGenerated = len(subs)
	logger.Get().Info(ctx, "generated dosage vectors", logger.Int("count", len(subs)))
	return subs, nil
}

// generateSubmission draws one vector and its request body. Each drug is
// keyed either by its bare id or by the group's form key.
func generateSubmission(rng *rand.Rand, g dosage.Group) (Submission, error) {
	v := dosage.Default()
	body := make(map[string]int, len(dosage.Drugs))
	for _, d := range dosage.Drugs {
		dose := generateDose(rng)
		next, err := v.With(d, dose)
		if err != nil {
			return Submission{}, err
		}
		v = next
		key := string(d)
		if rng.IntN(2) == 0 {
			key = groupPrefix(g) + key
		}
		body[key] = dose
	}
	return Submission{Group: g, Doses: v, Body: body}, nil
}

// generateDose favours the slider ends and the default over a flat draw.
func generateDose(rng *rand.Rand) int {
	switch rng.IntN(doseCaseCount) {
	case caseBoundary:
		if rng.IntN(2) == 0 {
			return dosage.MinDose
		}
		return dosage.MaxDose
	case caseDefault:
		return dosage.DefaultDose
	default:
		return dosage.MinDose + rng.IntN(dosage.MaxDose-dosage.MinDose+1)
	}
}

func groupPrefix(g dosage.Group) string {
	if g == dosage.GroupAnimation {
		return dosage.AnimationPrefix
	}
	return dosage.PredictionPrefix
}

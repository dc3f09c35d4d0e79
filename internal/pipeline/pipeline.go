// Package pipeline runs the fixed set of specialist evaluators and merges
// their candidates into the ranked decision list.
package pipeline

import (
	"context"
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"

	"planforge/internal/domain"
)

// Execute evaluates every specialist and returns the decision list sorted
// descending by weighted score. The specialists are independent, so they run
// concurrently; results land in declaration-order slots so that equal scores
// keep the declared specialist order after the stable sort. A failure of any
// single evaluator fails the whole run.
func Execute(ctx context.Context, req domain.DesignRequest, env domain.EnvironmentalProfile) ([]domain.DesignDecision, error) {
	candidates := make([]Candidate, len(specialists))
	g, _ := errgroup.WithContext(ctx)
	for i, s := range specialists {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("specialist %s: %v", s.Name, r)
				}
			}()
			candidates[i] = s.Run(req, env)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rank(candidates), nil
}

func rank(candidates []Candidate) []domain.DesignDecision {
	ordered := make([]Candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score*ordered[i].Weight > ordered[j].Score*ordered[j].Weight
	})
	decisions := make([]domain.DesignDecision, len(ordered))
	for i, c := range ordered {
		decisions[i] = domain.DesignDecision{
			Agent:     c.Name,
			Decision:  c.Decision,
			Reasoning: c.Reasoning,
			Score:     round2(c.Score * c.Weight),
		}
	}
	return decisions
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

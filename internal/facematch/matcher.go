package facematch

import (
	"context"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Match ranks every record against the query embedding.
// Records below threshold are dropped, the rest are sorted by similarity
// descending with ties kept in record order, and the result is cut to topK.
// A topK of zero or less means no limit.
func Match(query []float32, records []Record, threshold float64, topK int) []Candidate {
	candidates := scoreRange(query, records, 0, threshold)
	return rank(candidates, topK)
}

// MatchParallel is Match sharded across up to shards goroutines.
// Results are identical to Match for the same input.
func MatchParallel(ctx context.Context, query []float32, records []Record, threshold float64, topK, shards int) ([]Candidate, error) {
	if shards <= 1 || len(records) < 2*shards {
		return Match(query, records, threshold, topK), nil
	}

	chunk := (len(records) + shards - 1) / shards
	parts := make([][]scored, shards)

	g, ctx := errgroup.WithContext(ctx)
	for i := range shards {
		start := i * chunk
		if start >= len(records) {
			break
		}
		end := min(start+chunk, len(records))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			parts[i] = scoreRange(query, records[start:end], start, threshold)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var merged []scored
	for _, p := range parts {
		merged = append(merged, p...)
	}
	return rank(merged, topK), nil
}

// scored carries the record position so shards can be merged deterministically.
type scored struct {
	Candidate
	index int
}

func scoreRange(query []float32, records []Record, offset int, threshold float64) []scored {
	var out []scored
	for i, r := range records {
		sim := CosineSimilarity(query, r.Embedding)
		if sim < threshold {
			continue
		}
		out = append(out, scored{
			Candidate: Candidate{IdentityKey: r.IdentityKey, Similarity: sim},
			index:     offset + i,
		})
	}
	return out
}

func rank(in []scored, topK int) []Candidate {
	slices.SortStableFunc(in, func(a, b scored) int {
		switch {
		case a.Similarity > b.Similarity:
			return -1
		case a.Similarity < b.Similarity:
			return 1
		}
		return a.index - b.index
	})
	if topK > 0 && len(in) > topK {
		in = in[:topK]
	}
	out := make([]Candidate, len(in))
	for i, s := range in {
		out[i] = s.Candidate
	}
	return out
}

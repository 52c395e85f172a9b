package services

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

func ranked(specs ...any) []domain.RankedChunk {
	var out []domain.RankedChunk
	for i := 0; i+1 < len(specs); i += 2 {
		source := specs[i].(string)
		sim := specs[i+1].(float64)
		out = append(out, domain.RankedChunk{
			Chunk:      domain.Chunk{ID: fmt.Sprintf("%s-chunk-%d", source, i/2+1), Source: source},
			Similarity: sim,
		})
	}
	return out
}

func defaultSelect() SelectOptions {
	return SelectOptionsFrom(domain.DefaultRetrievalSettings())
}

func sources(chunks []domain.RankedChunk) map[string]bool {
	out := make(map[string]bool)
	for _, c := range chunks {
		out[c.Source] = true
	}
	return out
}

func TestSelect_Empty(t *testing.T) {
	assert.Empty(t, Select(nil, defaultSelect()))
}

func TestSelect_DiversityFirst(t *testing.T) {
	// One source dominates the top of the ranking.
	in := ranked("a", 0.9, "a", 0.88, "a", 0.87, "a", 0.86, "b", 0.5, "c", 0.4)

	got := Select(in, defaultSelect())

	assert.Len(t, got, 4)
	assert.True(t, sources(got)["a"])
	assert.True(t, sources(got)["b"], "second source should be represented")
	assert.False(t, sources(got)["c"], "diversity quota is half of max")
	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Similarity, got[i].Similarity)
	}
}

func TestSelect_TwoSlotsHoldTwoSources(t *testing.T) {
	in := ranked("a", 0.9, "a", 0.85, "b", 0.6)
	opts := defaultSelect()
	opts.MaxChunks = 2

	got := Select(in, opts)

	require.Len(t, got, 2)
	assert.Equal(t, map[string]bool{"a": true, "b": true}, sources(got))
	assert.Equal(t, "a-chunk-1", got[0].ID)
	assert.Equal(t, "b-chunk-3", got[1].ID)
}

func TestSelect_FillPassUsesLooserThreshold(t *testing.T) {
	in := ranked("a", 0.9, "a", 0.32, "a", 0.29)

	got := Select(in, defaultSelect())

	assert.Len(t, got, 2)
	assert.InDelta(t, 0.32, got[1].Similarity, 1e-9)
}

func TestSelect_DegenerateFallback(t *testing.T) {
	in := ranked("a", 0.2, "b", 0.1, "c", 0.05)

	got := Select(in, defaultSelect())

	assert.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Source)
	assert.Equal(t, "b", got[1].Source)
}

func TestSelect_DegenerateSingleChunk(t *testing.T) {
	got := Select(ranked("a", -0.5), defaultSelect())
	assert.Len(t, got, 1)
}

func TestSelect_RespectsMax(t *testing.T) {
	in := ranked("a", 0.9, "b", 0.8, "c", 0.7, "d", 0.6, "e", 0.5, "f", 0.4)

	got := Select(in, SelectOptions{MaxChunks: 3, DiversityThreshold: 0.35, FallbackThreshold: 0.3})

	assert.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].Source, got[1].Source, got[2].Source})
}

func TestSelect_OutputSortedDescending(t *testing.T) {
	// The diversity pass picks b before a's second chunk.
	in := ranked("a", 0.9, "a", 0.85, "b", 0.4, "b", 0.36)

	got := Select(in, defaultSelect())

	for i := 1; i < len(got); i++ {
		assert.GreaterOrEqual(t, got[i-1].Similarity, got[i].Similarity)
	}
}

func TestSelect_Properties(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	names := []string{"a", "b", "c", "d"}

	for iter := 0; iter < 300; iter++ {
		n := 1 + r.Intn(12)
		var specs []any
		for i := 0; i < n; i++ {
			specs = append(specs, names[r.Intn(len(names))], r.Float64())
		}
		in := ranked(specs...)
		sortBySimilarity(in)
		opts := SelectOptions{MaxChunks: 2 + r.Intn(5), DiversityThreshold: 0.35, FallbackThreshold: 0.3}

		got := Select(in, opts)

		assert.NotEmpty(t, got, "non-empty input never yields empty output")
		assert.LessOrEqual(t, len(got), opts.MaxChunks)

		qualifying := make(map[string]bool)
		for _, rc := range in {
			if rc.Similarity >= opts.DiversityThreshold {
				qualifying[rc.Source] = true
			}
		}
		if len(qualifying) >= 2 {
			assert.GreaterOrEqual(t, len(sources(got)), 2, "diversity guarantee")
		}
	}
}

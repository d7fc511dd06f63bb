package metadata

import (
	"context"
	"errors"
	"testing"

	"gohan/allelecounts/models/constants/ploidy"
	"gohan/allelecounts/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ repositories.Metadata = (*Repository)(nil)

func openInMemory(t *testing.T) *Repository {
	r, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func TestSamples(t *testing.T) {
	ctx := context.Background()

	t.Run("should resolve sample names and indexed samples", func(t *testing.T) {
		r := openInMemory(t)
		require.NoError(t, r.AddSamples(ctx,
			Sample{Id: 3, Name: "NA12878", Indexed: true},
			Sample{Id: 1, Name: "NA12891", Indexed: true},
			Sample{Id: 5, Name: "HG00096", Indexed: false},
		))

		name, err := r.SampleName(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, "NA12878", name)

		ids, err := r.SampleIds(ctx, "NA12891", "HG00096")
		require.NoError(t, err)
		assert.Equal(t, map[string]uint32{"NA12891": 1, "HG00096": 5}, ids)

		indexed, err := r.IndexedSamples(ctx)
		require.NoError(t, err)
		assert.Equal(t, []uint32{1, 3}, indexed)
	})

	t.Run("should update samples on conflict", func(t *testing.T) {
		r := openInMemory(t)
		require.NoError(t, r.AddSamples(ctx, Sample{Id: 1, Name: "a", Indexed: true}))
		require.NoError(t, r.AddSamples(ctx, Sample{Id: 1, Name: "a", Indexed: false}))

		indexed, err := r.IndexedSamples(ctx)
		require.NoError(t, err)
		assert.Empty(t, indexed)
	})

	t.Run("should fail on unknown samples", func(t *testing.T) {
		r := openInMemory(t)

		_, err := r.SampleName(ctx, 42)
		assert.True(t, errors.Is(err, ErrUnknownSample))

		_, err = r.SampleIds(ctx, "nobody")
		assert.True(t, errors.Is(err, ErrUnknownSample))
	})
}

func TestPloidy(t *testing.T) {
	ctx := context.Background()

	t.Run("should fall back on the chromosome default", func(t *testing.T) {
		r := openInMemory(t)

		p, err := r.Ploidy(ctx, "chrY")
		require.NoError(t, err)
		assert.Equal(t, ploidy.Haploid, p)

		p, err = r.Ploidy(ctx, "7")
		require.NoError(t, err)
		assert.Equal(t, ploidy.Diploid, p)
	})

	t.Run("should prefer the recorded ploidy", func(t *testing.T) {
		r := openInMemory(t)
		require.NoError(t, r.SetPloidy(ctx, "chrX", ploidy.Haploid))

		p, err := r.Ploidy(ctx, "X")
		require.NoError(t, err)
		assert.Equal(t, ploidy.Haploid, p)
	})
}

package genotypes

import (
	"errors"
	"testing"

	"gohan/allelecounts/models/constants"
	gi "gohan/allelecounts/models/constants/genotype-index"
	"gohan/allelecounts/models/constants/ploidy"
	variantType "gohan/allelecounts/models/constants/variant-type"
	"gohan/allelecounts/models/counts"
	coreErrors "gohan/allelecounts/models/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cohortFixture() *counts.AlleleCount {
	ac := counts.New()
	ac.AddReference(gi.NoCall, 7)
	ac.AddReference(gi.Single, 1, 2, 5, 6, 10, 20)
	ac.AddAlternate(gi.Single, 1, 2, 5, 8, 12)
	ac.AddAlternate(gi.Double, 3)
	ac.AddSecondary("G", gi.Single, 10, 12)
	ac.AddSecondary("G", gi.Double, 11)
	ac.AddSecondary(DeletionSymbol, gi.Single, 20)
	ac.AddSecondary(InsertionSymbol, gi.Double, 21)
	return ac
}

var indexed = []uint32{1, 2, 3, 4, 6, 7, 8, 10, 11, 12, 20, 21}

func TestReconstruct(t *testing.T) {
	t.Run("should reconstruct the cohort", func(t *testing.T) {
		result, err := Reconstruct(Request{
			Counts:         cohortFixture(),
			Reference:      "A",
			Alternate:      "T",
			IndexedSamples: indexed,
			Ploidy:         ploidy.Diploid,
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"A", "T", "G", DeletionSymbol}, result.Alleles)

		assert.Equal(t, []uint32{1, 2}, result.Genotypes[constants.GT_HETEROZYGOUS])
		assert.Equal(t, []uint32{3}, result.Genotypes[constants.GT_HOMOZYGOUS_ALTERNATE])
		assert.Equal(t, []uint32{4, 21}, result.Genotypes[constants.GT_HOMOZYGOUS_REFERENCE])
		assert.Equal(t, []uint32{6}, result.Genotypes[constants.GT_REFERENCE])
		assert.Equal(t, []uint32{7}, result.Genotypes[constants.GT_NO_CALL])
		assert.Equal(t, []uint32{8}, result.Genotypes[constants.GT_ALTERNATE])
		assert.Equal(t, []uint32{10}, result.Genotypes["0/2"])
		assert.Equal(t, []uint32{11}, result.Genotypes["2/2"])
		assert.Equal(t, []uint32{12}, result.Genotypes["1/2"])
		assert.Equal(t, []uint32{20}, result.Genotypes["0/3"])

		// sample 5 is not indexed
		assert.NotContains(t, result.Samples(result.SortedGenotypes()...), uint32(5))
		assert.Len(t, result.Samples(result.SortedGenotypes()...), len(indexed))
	})

	t.Run("should only report present samples", func(t *testing.T) {
		result, err := Reconstruct(Request{
			Counts:         cohortFixture(),
			Reference:      "A",
			Alternate:      "T",
			IndexedSamples: indexed,
			PresentSamples: []uint32{3, 21, 5},
			Ploidy:         ploidy.Diploid,
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"A", "T"}, result.Alleles)
		assert.Equal(t, map[constants.Genotype][]uint32{
			constants.GT_HOMOZYGOUS_ALTERNATE: {3},
			constants.GT_HOMOZYGOUS_REFERENCE: {21},
		}, result.Genotypes)
	})

	t.Run("should render haploid defaults", func(t *testing.T) {
		ac := counts.New()
		ac.AddReference(gi.NoCall, 1)
		ac.AddAlternate(gi.Single, 2)

		result, err := Reconstruct(Request{
			Counts:         ac,
			Reference:      "C",
			Alternate:      "T",
			IndexedSamples: []uint32{1, 2, 3},
			Ploidy:         ploidy.Haploid,
		})
		require.NoError(t, err)

		assert.Equal(t, []uint32{1}, result.Genotypes[constants.GT_HAPLOID_NO_CALL])
		assert.Equal(t, []uint32{2}, result.Genotypes[constants.GT_ALTERNATE])
		assert.Equal(t, []uint32{3}, result.Genotypes[constants.GT_REFERENCE])
	})

	t.Run("should count insertions as reference copies", func(t *testing.T) {
		ac := counts.New()
		ac.AddReference(gi.Single, 1)
		ac.AddAlternate(gi.Single, 1)
		ac.AddSecondary(InsertionSymbol, gi.Single, 1, 2)

		result, err := Reconstruct(Request{
			Counts:         ac,
			Reference:      "C",
			Alternate:      "T",
			IndexedSamples: []uint32{1, 2},
			Ploidy:         ploidy.Diploid,
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"C", "T"}, result.Alleles)
		assert.Equal(t, []uint32{1}, result.Genotypes[constants.GT_HETEROZYGOUS])
		assert.Equal(t, []uint32{2}, result.Genotypes[constants.GT_REFERENCE])
	})

	t.Run("should leave filtered secondary alleles unnumbered", func(t *testing.T) {
		result, err := Reconstruct(Request{
			Counts:          cohortFixture(),
			Reference:       "A",
			Alternate:       "T",
			IndexedSamples:  indexed,
			SecondaryFilter: func(symbol string) bool { return symbol != "G" },
			Ploidy:          ploidy.Diploid,
		})
		require.NoError(t, err)

		assert.Equal(t, []string{"A", "T", DeletionSymbol}, result.Alleles)
		assert.Equal(t, []uint32{10}, result.Genotypes["0/."])
		assert.Equal(t, []uint32{12}, result.Genotypes["1/."])
		assert.Equal(t, []uint32{20}, result.Genotypes["0/2"])
	})
}

func TestAmbiguousGenotypes(t *testing.T) {
	reconstruct := func(ac *counts.AlleleCount, p constants.Ploidy) error {
		_, err := Reconstruct(Request{
			Counts:         ac,
			Reference:      "A",
			Alternate:      "T",
			IndexedSamples: []uint32{9},
			Ploidy:         p,
		})
		return err
	}

	t.Run("should reject two indices on one allele", func(t *testing.T) {
		ac := counts.New()
		ac.AddReference(gi.Single, 9)
		ac.AddReference(gi.Double, 9)

		err := reconstruct(ac, ploidy.Diploid)
		assert.True(t, errors.Is(err, coreErrors.ErrAmbiguousGenotype))

		var ce *coreErrors.Error
		require.True(t, errors.As(err, &ce))
		require.NotNil(t, ce.SampleId)
		assert.Equal(t, uint32(9), *ce.SampleId)
	})

	t.Run("should reject a no call carrying copies", func(t *testing.T) {
		ac := counts.New()
		ac.AddReference(gi.NoCall, 9)
		ac.AddAlternate(gi.Single, 9)

		assert.True(t, errors.Is(reconstruct(ac, ploidy.Diploid), coreErrors.ErrAmbiguousGenotype))
	})

	t.Run("should reject copies above ploidy", func(t *testing.T) {
		ac := counts.New()
		ac.AddReference(gi.Single, 9)
		ac.AddAlternate(gi.Double, 9)

		assert.True(t, errors.Is(reconstruct(ac, ploidy.Diploid), coreErrors.ErrAmbiguousGenotype))
	})

	t.Run("should reject a hemizygous alternate with a secondary on haploid positions", func(t *testing.T) {
		ac := counts.New()
		ac.AddAlternate(gi.Single, 9)
		ac.AddSecondary("G", gi.Single, 9)

		assert.True(t, errors.Is(reconstruct(ac, ploidy.Haploid), coreErrors.ErrAmbiguousGenotype))
		assert.NoError(t, reconstruct(ac, ploidy.Diploid))
	})

	t.Run("should ignore ambiguous samples that are not indexed", func(t *testing.T) {
		ac := counts.New()
		ac.AddReference(gi.Single, 77)
		ac.AddReference(gi.Double, 77)

		assert.NoError(t, reconstruct(ac, ploidy.Diploid))
	})
}

func TestSymbolFor(t *testing.T) {
	assert.Equal(t, DeletionSymbol, SymbolFor(variantType.Deletion, ""))
	assert.Equal(t, InsertionSymbol, SymbolFor(variantType.Insertion, "ACG"))
	assert.Equal(t, "T", SymbolFor(variantType.Snv, "T"))
}

package counts

import (
	"testing"

	gi "gohan/allelecounts/models/constants/genotype-index"
	"gohan/allelecounts/models/constants/ploidy"

	"github.com/stretchr/testify/assert"
)

func TestPredicates(t *testing.T) {
	t.Run("should ignore homozygous reference calls", func(t *testing.T) {
		ac := New()
		ac.AddReference(gi.HomozygousReference, 1, 2, 3)

		assert.False(t, ac.HasReferenceData(ploidy.Diploid))
		assert.False(t, ac.HasVariantData())
	})

	t.Run("should ignore haploid homozygous reference calls", func(t *testing.T) {
		ac := New()
		ac.AddReference(gi.Single, 1, 2)

		assert.False(t, ac.HasReferenceData(ploidy.Haploid))
		assert.True(t, ac.HasReferenceData(ploidy.Diploid))

		ac.AddReference(gi.NoCall, 3)
		assert.True(t, ac.HasReferenceData(ploidy.Haploid))
	})

	t.Run("should see no-calls, filters and secondary alleles", func(t *testing.T) {
		ac := New()
		ac.AddReference(gi.NoCall, 7)
		assert.True(t, ac.HasReferenceData(ploidy.Diploid))

		ac = New()
		ac.AddNotPass(4)
		assert.True(t, ac.HasReferenceData(ploidy.Diploid))

		ac = New()
		ac.AddSecondary("<DEL>", gi.Single, 20)
		assert.True(t, ac.HasReferenceData(ploidy.Diploid))
		assert.False(t, ac.HasVariantData())
	})

	t.Run("should see alternate calls", func(t *testing.T) {
		ac := New()
		ac.AddAlternate(gi.Heterozygous, 1)
		assert.True(t, ac.HasVariantData())
		assert.False(t, ac.HasReferenceData(ploidy.Diploid))
	})

	t.Run("should treat empty lists as no data", func(t *testing.T) {
		ac := New()
		ac.Alternate[gi.Single] = []uint32{}
		ac.SecondaryAlleles["G"] = GenotypeMap{gi.Single: nil}

		assert.False(t, ac.HasVariantData())
		assert.False(t, ac.HasReferenceData(ploidy.Diploid))
		assert.False(t, (*AlleleCount)(nil).HasReferenceData(ploidy.Diploid))
	})
}

func TestAddKeepsListsSortedAndUnique(t *testing.T) {
	ac := New()
	ac.AddReference(gi.Single, 5, 1, 5, 3)
	ac.AddPass(9, 2, 9)

	assert.Equal(t, []uint32{1, 3, 5}, ac.Reference[gi.Single])
	assert.Equal(t, []uint32{2, 9}, ac.Pass)
}

func TestEqualIgnoresOrder(t *testing.T) {
	a := New()
	a.Reference.Append(gi.Single, 3, 1, 2)
	a.SecondaryAlleles["G"] = GenotypeMap{gi.Single: {10, 12}}

	b := New()
	b.Reference.Append(gi.Single, 1, 2, 3)
	b.Reference[gi.NoCall] = []uint32{}
	b.SecondaryAlleles["G"] = GenotypeMap{gi.Single: {12, 10}}
	b.SecondaryAlleles["T"] = GenotypeMap{}

	assert.True(t, a.Equal(b))

	b.AddAlternate(gi.Double, 3)
	assert.False(t, a.Equal(b))
}

func TestNormalize(t *testing.T) {
	ac := New()
	ac.Alternate.Append(gi.Single, 4, 2, 4)
	ac.Reference[gi.NoCall] = nil
	ac.SecondaryAlleles["G"] = GenotypeMap{gi.Single: {}}
	ac.Pass = []uint32{3, 3, 1}

	ac.Normalize()

	assert.Equal(t, GenotypeMap{gi.Single: {2, 4}}, ac.Alternate)
	assert.Empty(t, ac.Reference)
	assert.Empty(t, ac.SecondaryAlleles)
	assert.Equal(t, []uint32{1, 3}, ac.Pass)
}

func TestGenotypeMap(t *testing.T) {
	gm := GenotypeMap{}
	gm.Add(gi.Double, 8, 3)
	gm.Add(gi.NoCall, 1)

	assert.Equal(t, []uint32{1, 3, 8}, gm.Samples())
	assert.Equal(t, []int{-1, 2}, []int{int(gm.Indices()[0]), int(gm.Indices()[1])})

	found := gm.Remove(3)
	assert.Len(t, found, 1)
	assert.Equal(t, []uint32{8}, gm[gi.Double])
	assert.Empty(t, gm.Remove(42))
}

func TestClone(t *testing.T) {
	ac := New()
	ac.AddAlternate(gi.Single, 1)
	ac.AddSecondary("G", gi.Single, 2)

	clone := ac.Clone()
	clone.AddAlternate(gi.Single, 5)
	clone.AddSecondary("G", gi.Single, 6)

	assert.Equal(t, []uint32{1}, ac.Alternate[gi.Single])
	assert.Equal(t, []uint32{2}, ac.SecondaryAlleles["G"][gi.Single])
}

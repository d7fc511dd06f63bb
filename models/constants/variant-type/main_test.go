package variantType

import (
	"errors"
	"testing"

	"gohan/allelecounts/models/constants"
	coreErrors "gohan/allelecounts/models/errors"

	"github.com/stretchr/testify/assert"
)

func TestDetermine(t *testing.T) {
	table := []struct {
		reference string
		alternate string
		expected  constants.VariantType
	}{
		{"", "", NoVariation},
		{".", ".", NoVariation},
		{"A", "T", Snv},
		{"AGG", "TCC", Mnv},
		{"", "T", Insertion},
		{".", "T", Insertion},
		{"A", "", Deletion},
		{"A", ".", Deletion},
		{"AG", "T", Mixed},
		{"A", "TC", Mixed},
	}

	for _, row := range table {
		vt, err := Determine(row.reference, row.alternate)
		assert.Nil(t, err)
		assert.Equal(t, row.expected, vt, "%q -> %q", row.reference, row.alternate)
	}

	t.Run("should reject symbolic alleles", func(t *testing.T) {
		for _, pair := range [][2]string{{"<ABC>", "T"}, {"A", "<T>"}, {"A", "A[2:123["}} {
			_, err := Determine(pair[0], pair[1])
			assert.True(t, errors.Is(err, coreErrors.ErrUnsupportedVariantType), "%v", pair)
		}
	})
}

func TestNormalize(t *testing.T) {
	t.Run("should strip the padding base of an insertion", func(t *testing.T) {
		pos, ref, alt := Normalize(100, "A", "AT")
		assert.Equal(t, int64(101), pos)
		assert.Equal(t, "", ref)
		assert.Equal(t, "T", alt)
	})

	t.Run("should strip the padding base of a deletion", func(t *testing.T) {
		pos, ref, alt := Normalize(100, "AGG", "A")
		assert.Equal(t, int64(101), pos)
		assert.Equal(t, "GG", ref)
		assert.Equal(t, "", alt)
	})

	t.Run("should leave snvs untouched", func(t *testing.T) {
		pos, ref, alt := Normalize(100, "A", "T")
		assert.Equal(t, int64(100), pos)
		assert.Equal(t, "A", ref)
		assert.Equal(t, "T", alt)
	})

	t.Run("should trim shared trailing context", func(t *testing.T) {
		pos, ref, alt := Normalize(100, "TCCT", "TCCA")
		assert.Equal(t, int64(103), pos)
		assert.Equal(t, "T", ref)
		assert.Equal(t, "A", alt)
	})
}

func TestSpan(t *testing.T) {
	del := Span("1", 101, "GG", "")
	assert.Equal(t, int64(101), del.Start)
	assert.Equal(t, int64(102), del.End)
	assert.Equal(t, int64(2), del.Length())

	ins := Span("1", 101, "", "T")
	assert.Equal(t, int64(101), ins.Start)
	assert.Equal(t, int64(100), ins.End)
	assert.Equal(t, int64(0), ins.Length())
	assert.Equal(t, int64(1), ins.CoveredPositions())
}

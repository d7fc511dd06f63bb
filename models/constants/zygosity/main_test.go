package zygosity

import (
	"testing"

	"gohan/allelecounts/models/constants"

	"github.com/stretchr/testify/assert"
)

func TestOf(t *testing.T) {
	for gt, expected := range map[constants.Genotype]constants.Zygosity{
		constants.GT_HOMOZYGOUS_REFERENCE: HomozygousReference,
		constants.GT_HETEROZYGOUS:         Heterozygous,
		constants.GT_HOMOZYGOUS_ALTERNATE: HomozygousAlternate,
		constants.GT_NO_CALL:              Unknown,
		constants.GT_REFERENCE:            Reference,
		constants.GT_ALTERNATE:            Alternate,
		constants.GT_HAPLOID_NO_CALL:      Unknown,
		"1/2":                             Heterozygous,
		"0/2":                             Unknown,
		"2":                               Unknown,
		"":                                Unknown,
	} {
		assert.Equal(t, expected, Of(gt), string(gt))
	}
}

func TestParse(t *testing.T) {
	z, err := Parse("Heterozygous")
	assert.NoError(t, err)
	assert.Equal(t, Heterozygous, z)
	assert.Equal(t, "HETEROZYGOUS", ZygosityToString(z))

	_, err = Parse("both")
	assert.ErrorIs(t, err, ErrUnknownZygosity)
	assert.False(t, IsKnown(int(Unknown)))
	assert.True(t, IsKnown(int(Alternate)))
}

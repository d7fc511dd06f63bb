package ploidy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultForChromosome(t *testing.T) {
	assert.Equal(t, Diploid, DefaultForChromosome("1"))
	assert.Equal(t, Diploid, DefaultForChromosome("chrX"))
	assert.Equal(t, Haploid, DefaultForChromosome("Y"))
	assert.Equal(t, Haploid, DefaultForChromosome("chrM"))
	assert.Equal(t, Haploid, DefaultForChromosome("MT"))
}

func TestMaxCopies(t *testing.T) {
	assert.Equal(t, 1, MaxCopies(Haploid))
	assert.Equal(t, 2, MaxCopies(Diploid))
	assert.Equal(t, 2, MaxCopies(Unknown))
	assert.True(t, IsKnown(int(Haploid)))
	assert.False(t, IsKnown(int(Unknown)))
}

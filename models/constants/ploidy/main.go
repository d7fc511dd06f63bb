package ploidy

import (
	"strings"

	"gohan/allelecounts/models/constants"
)

const (
	Unknown constants.Ploidy = iota

	Haploid
	Diploid
)

func IsKnown(value int) bool {
	return value > int(Unknown) && value <= int(Diploid)
}

// MaxCopies is the largest number of allele copies a sample
// may carry at a position (unknown ploidies are treated as diploid)
func MaxCopies(p constants.Ploidy) int {
	if p == Haploid {
		return 1
	}
	return 2
}

// DefaultForChromosome is the ploidy hint used when the metadata
// boundary has none recorded for a chromosome
func DefaultForChromosome(chromosome string) constants.Ploidy {
	switch strings.TrimPrefix(strings.ToLower(chromosome), "chr") {
	case "m", "mt", "y":
		return Haploid
	default:
		return Diploid
	}
}

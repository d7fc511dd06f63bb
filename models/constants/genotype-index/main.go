package genotypeIndex

import (
	"gohan/allelecounts/models/constants"
)

// A genotype index is the number of copies of one allele
// (reference, primary alternate or a secondary allele)
// carried by a sample; -1 flags a missing call.
const (
	NoCall constants.GenotypeIndex = iota - 1
	Absent
	Single
	Double
)

const (
	// one copy of the allele on a diploid position
	Heterozygous = Single
	// two copies of the allele
	Homozygous = Double
	// single copy being the only allele of the sample
	Hemizygous = Single

	// explicit homozygous reference calls are the implicit
	// default of a reference map and never force a column
	// to be persisted on their own
	HomozygousReference = Double
)

func IsValid(value int) bool {
	return value >= int(NoCall) && value <= int(Double)
}

func IsCopy(index constants.GenotypeIndex) bool {
	return index > Absent
}

package zygosity

import (
	"errors"
	"strings"

	"gohan/allelecounts/models/constants"
)

const (
	Unknown constants.Zygosity = iota
	// Diploid or higher
	Heterozygous
	HomozygousReference
	HomozygousAlternate

	// Haploid (deliberately below diploid for sequential id'ing purposes)
	Reference
	Alternate
)

var ErrUnknownZygosity = errors.New("unable to parse zygosity")

func IsKnown(value int) bool {
	return value > int(Unknown) && value <= int(Alternate)
}

func ZygosityToString(zyg constants.Zygosity) string {
	switch zyg {
	// Haploid
	case Reference:
		return "REFERENCE"
	case Alternate:
		return "ALTERNATE"

	// Diploid or higher
	case Heterozygous:
		return "HETEROZYGOUS"
	case HomozygousReference:
		return "HOMOZYGOUS_REFERENCE"
	case HomozygousAlternate:
		return "HOMOZYGOUS_ALTERNATE"
	default:
		return "UNKNOWN"
	}
}

func Parse(text string) (constants.Zygosity, error) {
	switch strings.ToLower(text) {
	case "reference":
		return Reference, nil
	case "alternate":
		return Alternate, nil
	case "homozygous_reference":
		return HomozygousReference, nil
	case "heterozygous":
		return Heterozygous, nil
	case "homozygous_alternate":
		return HomozygousAlternate, nil
	default:
		return Unknown, ErrUnknownZygosity
	}
}

// Of classifies a rendered genotype with respect to the queried
// alternate allele (numbered 1). No-calls and genotypes carrying
// neither the reference nor the queried allele only are Unknown.
func Of(gt constants.Genotype) constants.Zygosity {
	alleles := strings.FieldsFunc(string(gt), func(r rune) bool { return r == '/' || r == '|' })
	if len(alleles) == 0 {
		return Unknown
	}

	refs, alts := 0, 0
	for _, a := range alleles {
		switch a {
		case "0":
			refs++
		case "1":
			alts++
		case ".":
			return Unknown
		}
	}

	if len(alleles) == 1 {
		switch {
		case refs == 1:
			return Reference
		case alts == 1:
			return Alternate
		}
		return Unknown
	}

	switch {
	case refs == len(alleles):
		return HomozygousReference
	case alts == len(alleles):
		return HomozygousAlternate
	case alts > 0:
		return Heterozygous
	}
	return Unknown
}

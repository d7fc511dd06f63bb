package variantType

import (
	"strings"

	"gohan/allelecounts/models/constants"
	coreErrors "gohan/allelecounts/models/errors"
	"gohan/allelecounts/models/region"
)

const (
	NoVariation constants.VariantType = "NO_VARIATION"
	Snv         constants.VariantType = "SNV"
	Mnv         constants.VariantType = "MNV"
	Insertion   constants.VariantType = "INSERTION"
	Deletion    constants.VariantType = "DELETION"
	Mixed       constants.VariantType = "MIXED"
)

const noCallAllele = "."

func IsSymbolic(allele string) bool {
	return len(allele) > 1 &&
		(strings.HasPrefix(allele, "<") || strings.ContainsAny(allele, "[]"))
}

// Determine infers the type of variation between a reference
// and an alternate allele.
func Determine(reference string, alternate string) (constants.VariantType, error) {
	if IsSymbolic(reference) || IsSymbolic(alternate) {
		return "", coreErrors.New(coreErrors.ErrUnsupportedVariantType, "symbolic allele %q/%q", reference, alternate)
	}

	if reference == noCallAllele {
		reference = ""
	}
	if alternate == noCallAllele {
		alternate = ""
	}

	refLen, altLen := len(reference), len(alternate)
	switch {
	case refLen == altLen:
		switch refLen {
		case 0:
			return NoVariation, nil
		case 1:
			return Snv, nil
		default:
			return Mnv, nil
		}
	case refLen == 0 && altLen > 0:
		return Insertion, nil
	case refLen > 0 && altLen == 0:
		return Deletion, nil
	case refLen > 0 && altLen > 0:
		return Mixed, nil
	}

	return "", coreErrors.New(coreErrors.ErrInvariantViolation, "reference length %d, alternate length %d", refLen, altLen)
}

// Normalize strips the bases shared by both alleles (i.e. the VCF
// padding base) and shifts the position accordingly, so that
// "A -> AT" at 100 becomes "" -> "T" at 101
func Normalize(position int64, reference string, alternate string) (int64, string, string) {
	if reference == noCallAllele {
		reference = ""
	}
	if alternate == noCallAllele {
		alternate = ""
	}

	// -- trailing context first, keeps the left-most representation
	for len(reference) > 0 && len(alternate) > 0 &&
		reference[len(reference)-1] == alternate[len(alternate)-1] &&
		(len(reference) > 1 || len(alternate) > 1) {
		reference = reference[:len(reference)-1]
		alternate = alternate[:len(alternate)-1]
	}

	// -- then leading context
	for len(reference) > 0 && len(alternate) > 0 && reference[0] == alternate[0] {
		reference = reference[1:]
		alternate = alternate[1:]
		position++
	}

	return position, reference, alternate
}

// Span returns the reference positions covered by a normalized variant.
// Insertions are the zero-width region (position, position-1).
func Span(chromosome string, position int64, reference string, alternate string) region.Region {
	return region.New(chromosome, position, position+int64(len(reference))-1)
}

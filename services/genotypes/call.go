package genotypes

import (
	"gohan/allelecounts/models/constants"
	"gohan/allelecounts/models/constants/ploidy"
	coreErrors "gohan/allelecounts/models/errors"
)

type Axis int

const (
	NoCallAxis Axis = iota
	ReferenceAxis
	AlternateAxis
	SecondaryAxis
)

// Call is one entry of a sample's call set: copies of one allele, or
// the missing call marker.
type Call struct {
	Axis   Axis
	Symbol string
	Copies int
}

// SampleCall is the validated set of calls of one sample at one position.
type SampleCall struct {
	SampleId uint32
	Calls    []Call
}

// NewSampleCall rejects call sets no genotype can be drawn from: two
// indices on one allele, a missing call carrying copies, or more copies
// than the ploidy allows.
func NewSampleCall(sampleId uint32, calls []Call, p constants.Ploidy) (*SampleCall, error) {
	seen := map[Call]constants.GenotypeIndex{}
	noCall, copies, insertionCopies := false, 0, 0

	for _, c := range calls {
		key := Call{Axis: c.Axis, Symbol: c.Symbol}
		if previous, ok := seen[key]; ok {
			return nil, coreErrors.ForSample(coreErrors.ErrAmbiguousGenotype, sampleId,
				"indices %d and %d for the same allele %s", previous, c.Copies, describe(c))
		}
		seen[key] = constants.GenotypeIndex(c.Copies)

		switch {
		case c.Axis == NoCallAxis:
			noCall = true
		case c.Axis == SecondaryAxis && c.Symbol == InsertionSymbol:
			insertionCopies = c.Copies
		default:
			copies += c.Copies
		}
	}

	if insertionCopies > 0 {
		// the reference base is still carried on an inserted haplotype
		copies += maxInt(0, insertionCopies-referenceCopies(calls))
	}

	if noCall && copies > 0 {
		return nil, coreErrors.ForSample(coreErrors.ErrAmbiguousGenotype, sampleId,
			"no call together with %d allele copies", copies)
	}
	if copies > ploidy.MaxCopies(p) {
		return nil, coreErrors.ForSample(coreErrors.ErrAmbiguousGenotype, sampleId,
			"%d allele copies above the ploidy maximum of %d", copies, ploidy.MaxCopies(p))
	}

	return &SampleCall{SampleId: sampleId, Calls: calls}, nil
}

func (sc *SampleCall) IsNoCall() bool {
	for _, c := range sc.Calls {
		if c.Axis == NoCallAxis {
			return true
		}
	}
	return false
}

func referenceCopies(calls []Call) int {
	for _, c := range calls {
		if c.Axis == ReferenceAxis {
			return c.Copies
		}
	}
	return 0
}

func describe(c Call) string {
	switch c.Axis {
	case NoCallAxis:
		return "no-call"
	case ReferenceAxis:
		return "reference"
	case AlternateAxis:
		return "alternate"
	default:
		return c.Symbol
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

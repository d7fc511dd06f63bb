// Package genotypes turns sparse allele counts back into per-sample genotypes.
package genotypes

import (
	"strconv"
	"strings"

	"gohan/allelecounts/models/constants"
	gi "gohan/allelecounts/models/constants/genotype-index"
	"gohan/allelecounts/models/constants/ploidy"
	variantType "gohan/allelecounts/models/constants/variant-type"
	"gohan/allelecounts/models/counts"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const (
	DeletionSymbol  = "<DEL>"
	InsertionSymbol = "<INS>"

	// rendered in place of a secondary allele excluded by the filter
	filteredAllele = "."
)

type (
	Request struct {
		Counts *counts.AlleleCount

		// target variant
		Reference string
		Alternate string

		IndexedSamples []uint32
		// nil means every indexed sample
		PresentSamples []uint32

		// optional, secondary alleles it rejects are neither listed
		// nor numbered
		SecondaryFilter func(symbol string) bool

		Ploidy constants.Ploidy
	}

	Result struct {
		// 0 is the reference, 1 the target alternate, then secondary
		// alleles in the order they were first seen
		Alleles   []string
		Genotypes map[constants.Genotype][]uint32
	}
)

// Reconstruct assigns a genotype to every present indexed sample.
func Reconstruct(req Request) (*Result, error) {
	ac := req.Counts
	if ac == nil {
		ac = counts.New()
	}

	samples := slices.Clone(req.IndexedSamples)
	slices.Sort(samples)
	samples = slices.Compact(samples)
	if req.PresentSamples != nil {
		samples = slices.DeleteFunc(samples, func(id uint32) bool {
			return !slices.Contains(req.PresentSamples, id)
		})
	}

	callsBySample := map[uint32][]Call{}
	collect := func(gm counts.GenotypeMap, axis Axis, symbol string) {
		for _, index := range gm.Indices() {
			for _, id := range gm[index] {
				c := Call{Axis: axis, Symbol: symbol, Copies: int(index)}
				if index == gi.NoCall {
					c = Call{Axis: NoCallAxis}
				}
				callsBySample[id] = append(callsBySample[id], c)
			}
		}
	}
	collect(ac.Reference, ReferenceAxis, "")
	collect(ac.Alternate, AlternateAxis, "")
	for _, symbol := range ac.SecondarySymbols() {
		collect(ac.SecondaryAlleles[symbol], SecondaryAxis, symbol)
	}

	result := &Result{
		Alleles:   []string{req.Reference, req.Alternate},
		Genotypes: map[constants.Genotype][]uint32{},
	}
	alleleIndex := map[string]int{}
	haploid := req.Ploidy == ploidy.Haploid

	for _, id := range samples {
		sc, err := NewSampleCall(id, callsBySample[id], req.Ploidy)
		if err != nil {
			return nil, err
		}

		var alleles []string
		refCopies, insCopies := 0, 0
		for _, c := range sc.Calls {
			switch c.Axis {
			case ReferenceAxis:
				refCopies = c.Copies
			case AlternateAxis:
				alleles = appendCopies(alleles, "1", c.Copies)
			case SecondaryAxis:
				if c.Symbol == InsertionSymbol {
					insCopies = c.Copies
					continue
				}
				if req.SecondaryFilter != nil && !req.SecondaryFilter(c.Symbol) {
					alleles = appendCopies(alleles, filteredAllele, c.Copies)
					continue
				}
				if c.Copies <= 0 {
					continue
				}
				n, ok := alleleIndex[c.Symbol]
				if !ok {
					n = len(result.Alleles)
					alleleIndex[c.Symbol] = n
					result.Alleles = append(result.Alleles, c.Symbol)
				}
				alleles = appendCopies(alleles, strconv.Itoa(n), c.Copies)
			}
		}
		if insCopies > refCopies {
			refCopies = insCopies
		}
		alleles = appendCopies(alleles, "0", refCopies)

		gt := render(sc.IsNoCall(), alleles, haploid)
		result.Genotypes[gt] = append(result.Genotypes[gt], id)
	}

	return result, nil
}

// Samples returns the samples called with one of the given genotypes.
func (r *Result) Samples(genotypes ...constants.Genotype) []uint32 {
	var ids []uint32
	for _, gt := range genotypes {
		ids = append(ids, r.Genotypes[gt]...)
	}
	slices.Sort(ids)
	return ids
}

// SortedGenotypes lists the genotypes present in the result.
func (r *Result) SortedGenotypes() []constants.Genotype {
	gts := maps.Keys(r.Genotypes)
	slices.Sort(gts)
	return gts
}

func render(noCall bool, alleles []string, haploid bool) constants.Genotype {
	switch {
	case noCall && haploid:
		return constants.GT_HAPLOID_NO_CALL
	case noCall:
		return constants.GT_NO_CALL
	case len(alleles) == 0 && haploid:
		return constants.GT_REFERENCE
	case len(alleles) == 0:
		return constants.GT_HOMOZYGOUS_REFERENCE
	}

	slices.SortFunc(alleles, compareAlleles)
	return constants.Genotype(strings.Join(alleles, "/"))
}

// numbered alleles sort numerically, filtered ones last
func compareAlleles(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA != nil && errB != nil:
		return 0
	case errA != nil:
		return 1
	case errB != nil:
		return -1
	}
	return na - nb
}

func appendCopies(alleles []string, allele string, copies int) []string {
	for i := 0; i < copies; i++ {
		alleles = append(alleles, allele)
	}
	return alleles
}

// SymbolFor is the secondary allele symbol a variant is reported under
// when it is not the target of a query.
func SymbolFor(vt constants.VariantType, alternate string) string {
	switch vt {
	case variantType.Deletion:
		return DeletionSymbol
	case variantType.Insertion:
		return InsertionSymbol
	}
	return alternate
}

package counts

import (
	"gohan/allelecounts/models/constants"
	"gohan/allelecounts/models/constants/ploidy"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type (
	// GenotypeMap maps a genotype index to the samples called with it
	GenotypeMap map[constants.GenotypeIndex][]uint32

	// AlleleCount is the sparse representation of every sample call at
	// one genomic position (or of one variant at that position)
	AlleleCount struct {
		Reference        GenotypeMap
		Alternate        GenotypeMap
		SecondaryAlleles map[string]GenotypeMap
		Pass             []uint32
		NotPass          []uint32
	}
)

func New() *AlleleCount {
	return &AlleleCount{
		Reference:        GenotypeMap{},
		Alternate:        GenotypeMap{},
		SecondaryAlleles: map[string]GenotypeMap{},
	}
}

func (ac *AlleleCount) AddReference(index constants.GenotypeIndex, sampleIds ...uint32) {
	ac.Reference.Add(index, sampleIds...)
}

func (ac *AlleleCount) AddAlternate(index constants.GenotypeIndex, sampleIds ...uint32) {
	ac.Alternate.Add(index, sampleIds...)
}

func (ac *AlleleCount) AddSecondary(symbol string, index constants.GenotypeIndex, sampleIds ...uint32) {
	if ac.SecondaryAlleles == nil {
		ac.SecondaryAlleles = map[string]GenotypeMap{}
	}
	gm, ok := ac.SecondaryAlleles[symbol]
	if !ok {
		gm = GenotypeMap{}
		ac.SecondaryAlleles[symbol] = gm
	}
	gm.Add(index, sampleIds...)
}

func (ac *AlleleCount) AddPass(sampleIds ...uint32) {
	for _, id := range sampleIds {
		ac.Pass = insertSorted(ac.Pass, id)
	}
}

func (ac *AlleleCount) AddNotPass(sampleIds ...uint32) {
	for _, id := range sampleIds {
		ac.NotPass = insertSorted(ac.NotPass, id)
	}
}

// HasReferenceData reports whether the reference side carries anything
// besides (implicit) homozygous reference calls, which hold as many
// reference copies as the ploidy allows.
func (ac *AlleleCount) HasReferenceData(p constants.Ploidy) bool {
	if ac == nil {
		return false
	}
	if len(ac.Pass) > 0 || len(ac.NotPass) > 0 {
		return true
	}
	homozygousReference := constants.GenotypeIndex(ploidy.MaxCopies(p))
	for index, ids := range ac.Reference {
		if index != homozygousReference && len(ids) > 0 {
			return true
		}
	}
	for _, gm := range ac.SecondaryAlleles {
		if gm.hasData() {
			return true
		}
	}
	return false
}

func (ac *AlleleCount) HasVariantData() bool {
	return ac != nil && ac.Alternate.hasData()
}

// Normalize sorts every list, drops duplicated ids and empty lists.
// Decoding never normalizes on its own: appended blobs keep every entry.
func (ac *AlleleCount) Normalize() *AlleleCount {
	ac.Reference.normalize()
	ac.Alternate.normalize()
	for symbol, gm := range ac.SecondaryAlleles {
		gm.normalize()
		if len(gm) == 0 {
			delete(ac.SecondaryAlleles, symbol)
		}
	}
	ac.Pass = sortedUnique(ac.Pass)
	ac.NotPass = sortedUnique(ac.NotPass)
	return ac
}

func (ac *AlleleCount) Clone() *AlleleCount {
	clone := New()
	clone.Reference = ac.Reference.Clone()
	clone.Alternate = ac.Alternate.Clone()
	for symbol, gm := range ac.SecondaryAlleles {
		clone.SecondaryAlleles[symbol] = gm.Clone()
	}
	clone.Pass = slices.Clone(ac.Pass)
	clone.NotPass = slices.Clone(ac.NotPass)
	return clone
}

// Equal compares two counts ignoring the order of sample ids.
func (ac *AlleleCount) Equal(other *AlleleCount) bool {
	if ac == nil || other == nil {
		return ac == other
	}
	if !ac.Reference.Equal(other.Reference) || !ac.Alternate.Equal(other.Alternate) {
		return false
	}
	if !sameMultiset(ac.Pass, other.Pass) || !sameMultiset(ac.NotPass, other.NotPass) {
		return false
	}
	symbols := map[string]struct{}{}
	for s, gm := range ac.SecondaryAlleles {
		if gm.hasData() {
			symbols[s] = struct{}{}
		}
	}
	for s, gm := range other.SecondaryAlleles {
		if gm.hasData() {
			symbols[s] = struct{}{}
		}
	}
	for s := range symbols {
		if !ac.SecondaryAlleles[s].Equal(other.SecondaryAlleles[s]) {
			return false
		}
	}
	return true
}

// SecondarySymbols are returned sorted, for deterministic iteration.
func (ac *AlleleCount) SecondarySymbols() []string {
	symbols := maps.Keys(ac.SecondaryAlleles)
	slices.Sort(symbols)
	return symbols
}

// -- GenotypeMap

func (gm GenotypeMap) Add(index constants.GenotypeIndex, sampleIds ...uint32) {
	for _, id := range sampleIds {
		gm[index] = insertSorted(gm[index], id)
	}
}

// Append keeps every id as given, duplicates included.
func (gm GenotypeMap) Append(index constants.GenotypeIndex, sampleIds ...uint32) {
	gm[index] = append(gm[index], sampleIds...)
}

// Remove drops a sample from every index of the map, returning the
// indices it was found under.
func (gm GenotypeMap) Remove(sampleId uint32) []constants.GenotypeIndex {
	var found []constants.GenotypeIndex
	for _, index := range gm.Indices() {
		ids := gm[index]
		if i := slices.Index(ids, sampleId); i >= 0 {
			gm[index] = slices.Delete(slices.Clone(ids), i, i+1)
			found = append(found, index)
		}
	}
	return found
}

// Indices are returned in ascending order.
func (gm GenotypeMap) Indices() []constants.GenotypeIndex {
	indices := maps.Keys(gm)
	slices.Sort(indices)
	return indices
}

// Samples is the sorted union of every list of the map.
func (gm GenotypeMap) Samples() []uint32 {
	var all []uint32
	for _, ids := range gm {
		all = append(all, ids...)
	}
	return sortedUnique(all)
}

func (gm GenotypeMap) Clone() GenotypeMap {
	clone := GenotypeMap{}
	for index, ids := range gm {
		clone[index] = slices.Clone(ids)
	}
	return clone
}

func (gm GenotypeMap) Equal(other GenotypeMap) bool {
	indices := map[constants.GenotypeIndex]struct{}{}
	for index, ids := range gm {
		if len(ids) > 0 {
			indices[index] = struct{}{}
		}
	}
	for index, ids := range other {
		if len(ids) > 0 {
			indices[index] = struct{}{}
		}
	}
	for index := range indices {
		if !sameMultiset(gm[index], other[index]) {
			return false
		}
	}
	return true
}

func (gm GenotypeMap) hasData() bool {
	for _, ids := range gm {
		if len(ids) > 0 {
			return true
		}
	}
	return false
}

func (gm GenotypeMap) normalize() {
	for index, ids := range gm {
		if len(ids) == 0 {
			delete(gm, index)
			continue
		}
		gm[index] = sortedUnique(ids)
	}
}

// -- helpers

func insertSorted(ids []uint32, id uint32) []uint32 {
	i, found := slices.BinarySearch(ids, id)
	if found {
		return ids
	}
	return slices.Insert(ids, i, id)
}

func sortedUnique(ids []uint32) []uint32 {
	if len(ids) == 0 {
		return nil
	}
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}

func sameMultiset(a []uint32, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	sa, sb := slices.Clone(a), slices.Clone(b)
	slices.Sort(sa)
	slices.Sort(sb)
	return slices.Equal(sa, sb)
}

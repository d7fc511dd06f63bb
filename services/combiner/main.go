// Package combiner reconciles the reference calls of a position with the
// variant calls overlapping it.
package combiner

import (
	"fmt"
	"strings"

	"gohan/allelecounts/models/constants"
	gi "gohan/allelecounts/models/constants/genotype-index"
	"gohan/allelecounts/models/counts"
	coreErrors "gohan/allelecounts/models/errors"
	"gohan/allelecounts/models/region"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// DefaultIndex is never reduced by overlapping variants: a missing
// reference call stays missing whatever the sample carries elsewhere.
const DefaultIndex = gi.NoCall

type (
	// VariantSpan is one sample's variant call, with the reference
	// positions it replaces and how many alternate copies it carries.
	VariantSpan struct {
		SampleId uint32
		Region   region.Region
		Copies   int
	}

	// Overlaps holds, per sample and position, the number of reference
	// copies explained by overlapping variants.
	Overlaps map[uint32]map[int64]int
)

func (o Overlaps) Add(sampleId uint32, position int64, copies int) {
	if copies <= 0 {
		return
	}
	byPosition, ok := o[sampleId]
	if !ok {
		byPosition = map[int64]int{}
		o[sampleId] = byPosition
	}
	byPosition[position] += copies
}

func (o Overlaps) At(sampleId uint32, position int64) int {
	return o[sampleId][position]
}

// BuildOverlaps derives the overlap matrix at one position. Insertions
// sit between two bases and never explain a reference base.
func BuildOverlaps(position int64, spans []VariantSpan) Overlaps {
	overlaps := Overlaps{}
	for _, span := range spans {
		if span.Region.IsInsertion() || !span.Region.Overlap(position) {
			continue
		}
		overlaps.Add(span.SampleId, position, span.Copies)
	}
	return overlaps
}

// Combine returns a copy of the reference counts at position with the
// reference copies explained by overlapping variants removed. A sample
// left without reference copy is dropped from the map. A sample both
// passing and failing filters is kept as passing only.
func Combine(position int64, reference *counts.AlleleCount, overlaps Overlaps) *counts.AlleleCount {
	combined := reference.Clone()
	combined.Reference = counts.GenotypeMap{}

	for _, index := range reference.Reference.Indices() {
		for _, sampleId := range reference.Reference[index] {
			explained := overlaps.At(sampleId, position)
			if index == DefaultIndex || explained <= 0 {
				combined.Reference.Add(index, sampleId)
				continue
			}

			remaining := int(index) - explained
			if remaining <= 0 {
				continue
			}
			combined.Reference.Add(constants.GenotypeIndex(remaining), sampleId)
		}
	}

	combined.Normalize()
	combined.NotPass = slices.DeleteFunc(combined.NotPass, func(id uint32) bool {
		_, found := slices.BinarySearch(combined.Pass, id)
		return found
	})

	return combined
}

// Verify compares a combined reference map with the expected one.
func Verify(combined counts.GenotypeMap, expected counts.GenotypeMap) error {
	if combined.Equal(expected) {
		return nil
	}

	indices := map[constants.GenotypeIndex]struct{}{}
	for _, index := range combined.Indices() {
		indices[index] = struct{}{}
	}
	for _, index := range expected.Indices() {
		indices[index] = struct{}{}
	}
	sorted := maps.Keys(indices)
	slices.Sort(sorted)

	var diffs []string
	for _, index := range sorted {
		got, want := counts.GenotypeMap{index: combined[index]}, counts.GenotypeMap{index: expected[index]}
		if !got.Equal(want) {
			diffs = append(diffs, fmt.Sprintf("index %d: got %v, want %v", index, got.Samples(), want.Samples()))
		}
	}
	return coreErrors.New(coreErrors.ErrInvariantViolation, "combined reference mismatch (%s)", strings.Join(diffs, "; "))
}

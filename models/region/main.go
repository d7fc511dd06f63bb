// Package region holds the inclusive genomic interval used across the store.
package region

import "fmt"

// Region is an inclusive [Start, End] interval on Data (usually a
// chromosome). Start == End+1 is the zero-width insertion anchor: the
// insertion sits between End and Start.
type Region struct {
	Data  string
	Start int64
	End   int64
}

func New(data string, start int64, end int64) Region {
	return Region{Data: data, Start: start, End: end}
}

func Point(data string, position int64) Region {
	return Region{Data: data, Start: position, End: position}
}

func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Data, r.Start, r.End)
}

func (r Region) IsInsertion() bool {
	return r.Start == r.End+1
}

func (r Region) Min() int64 {
	if r.Start < r.End {
		return r.Start
	}
	return r.End
}

func (r Region) Max() int64 {
	if r.Start > r.End {
		return r.Start
	}
	return r.End
}

// Length is End-Start+1, which is 0 for insertions.
func (r Region) Length() int64 {
	return r.End - r.Start + 1
}

// CoveredPositions is always at least 1 (insertions report one position).
func (r Region) CoveredPositions() int64 {
	if r.IsInsertion() {
		return 1
	}
	return r.Max() - r.Min() + 1
}

// Overlap tells whether a single position touches the region. The raw start
// is used so that an insertion is only touched at its anchor.
func (r Region) Overlap(position int64) bool {
	return r.OverlapRegion(Point(r.Data, position), true)
}

// OverlapRegion compares two regions. With insertionAware the raw starts are
// compared instead of the normalized minimums.
func (r Region) OverlapRegion(other Region, insertionAware bool) bool {
	if r.Start == other.Start && r.End == other.End {
		return true
	}
	if insertionAware {
		return r.Start <= other.Max() && other.Start <= r.Max()
	}
	return r.Min() <= other.Max() && other.Min() <= r.Max()
}

// CoveredBy tells whether the region lies entirely within other.
func (r Region) CoveredBy(other Region) bool {
	return other.Min() <= r.Min() && r.Max() <= other.Max()
}

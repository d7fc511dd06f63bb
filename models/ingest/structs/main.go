package structs

import (
	"fmt"
	"strconv"
	"strings"

	"gohan/allelecounts/models/constants"
	"gohan/allelecounts/models/counts"
	"gohan/allelecounts/models/ingest"
)

// RowKey identifies one stored row: ten consecutive positions of a chromosome.
type RowKey struct {
	Chromosome string
	Bucket     int64
}

// String renders the key so that lexicographic order matches
// (chromosome, bucket) order.
func (k RowKey) String() string {
	return fmt.Sprintf("%s:%010d", k.Chromosome, k.Bucket)
}

func (k RowKey) Less(other RowKey) bool {
	if k.Chromosome != other.Chromosome {
		return k.Chromosome < other.Chromosome
	}
	return k.Bucket < other.Bucket
}

func ParseRowKey(s string) (RowKey, error) {
	i := strings.LastIndex(s, ":")
	if i <= 0 {
		return RowKey{}, fmt.Errorf("invalid row key %q", s)
	}
	bucket, err := strconv.ParseInt(s[i+1:], 10, 64)
	if err != nil {
		return RowKey{}, fmt.Errorf("invalid row key %q: %w", s, err)
	}
	return RowKey{Chromosome: s[:i], Bucket: bucket}, nil
}

type Cell struct {
	Qualifier string
	Value     []byte
}

// StoreWrite is one append to one row, carrying every non-empty cell of it.
type StoreWrite struct {
	Row   RowKey
	Cells []Cell
}

// Batch holds every call touching one bucket of one chromosome: the
// calls starting inside the bucket and the spans carried over from
// previous buckets.
type Batch struct {
	Chromosome string
	Bucket     int64
	Ploidy     constants.Ploidy
	Calls      []ingest.Call
}

type VariantCounts struct {
	Reference string
	Alternate string
	Counts    *counts.AlleleCount
}

// PositionCounts is everything stored for one position: the reference
// column and one column per variant starting there.
type PositionCounts struct {
	Position  int64
	Reference *counts.AlleleCount
	Variants  []VariantCounts
}

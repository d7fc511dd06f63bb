// Package router maps genomic positions onto grouped rows.
//
// Every row holds BucketSize consecutive positions. Inside a row, the
// reference counts of a position live under 'Y'+subColumn and the counts
// of each variant starting there under 'Z'+subColumn+':'+variantId.
package router

import (
	"encoding/hex"
	"strconv"
	"strings"

	"gohan/allelecounts/models/constants"
	coreErrors "gohan/allelecounts/models/errors"
	"gohan/allelecounts/models/ingest/structs"
	"gohan/allelecounts/services/codec"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/exp/slices"
)

const (
	BucketSize = 10

	ReferenceFamily = 'Y'
	VariantFamily   = 'Z'

	// allele text longer than this is replaced by a digest in variant ids
	maxVariantIdAlleles = 64
	digestBytes         = 16
)

// Bucket splits a position into its row bucket and sub-column.
func Bucket(position int64) (int64, int) {
	return position / BucketSize, int(position % BucketSize)
}

// Route returns the row and column a position's counts are stored under.
// The variant id is ignored for reference columns.
func Route(chromosome string, position int64, isReference bool, variantId string) (structs.RowKey, string, error) {
	if position < 0 {
		return structs.RowKey{}, "", coreErrors.At(
			coreErrors.New(coreErrors.ErrRange, "negative position"), chromosome, position)
	}
	bucket, sub := Bucket(position)
	row := structs.RowKey{Chromosome: chromosome, Bucket: bucket}
	if isReference {
		return row, ReferenceQualifier(sub), nil
	}
	return row, VariantQualifier(sub, variantId), nil
}

func ReferenceQualifier(subColumn int) string {
	return string(ReferenceFamily) + strconv.Itoa(subColumn)
}

func VariantQualifier(subColumn int, variantId string) string {
	return string(VariantFamily) + strconv.Itoa(subColumn) + ":" + variantId
}

// Unroute parses a column qualifier back into its parts.
func Unroute(qualifier string) (isReference bool, subColumn int, variantId string, err error) {
	if len(qualifier) < 2 {
		return false, 0, "", coreErrors.New(coreErrors.ErrInvariantViolation, "qualifier %q too short", qualifier)
	}

	rest := qualifier[1:]
	switch qualifier[0] {
	case ReferenceFamily:
		isReference = true
	case VariantFamily:
		i := strings.IndexByte(rest, ':')
		if i < 0 {
			return false, 0, "", coreErrors.New(coreErrors.ErrInvariantViolation, "variant qualifier %q without variant id", qualifier)
		}
		rest, variantId = rest[:i], rest[i+1:]
	default:
		return false, 0, "", coreErrors.New(coreErrors.ErrInvariantViolation, "unknown column family in %q", qualifier)
	}

	subColumn, convErr := strconv.Atoi(rest)
	if convErr != nil {
		return false, 0, "", coreErrors.New(coreErrors.ErrRange, "sub-column %q of %q is not a number", rest, qualifier)
	}
	if subColumn < 0 || subColumn >= BucketSize {
		return false, 0, "", coreErrors.New(coreErrors.ErrRange, "sub-column %d of %q", subColumn, qualifier)
	}
	return isReference, subColumn, variantId, nil
}

// Position is the inverse of Route for a row and sub-column.
func Position(row structs.RowKey, subColumn int) (int64, error) {
	if subColumn < 0 || subColumn >= BucketSize {
		return 0, coreErrors.New(coreErrors.ErrRange, "sub-column %d", subColumn)
	}
	return row.Bucket*BucketSize + int64(subColumn), nil
}

// VariantId builds the column id of a variant from its normalized alleles.
func VariantId(reference string, alternate string) string {
	if len(reference)+len(alternate) <= maxVariantIdAlleles {
		return reference + ":" + alternate
	}
	sum := blake2b.Sum256([]byte(reference + ":" + alternate))
	return "#" + hex.EncodeToString(sum[:digestBytes])
}

// Group turns the counts of a chromosome into row writes: one write per
// row, holding the columns of every position with data. Rows without
// data are skipped.
func Group(chromosome string, p constants.Ploidy, positions []structs.PositionCounts) ([]structs.StoreWrite, error) {
	byRow := map[int64]*structs.StoreWrite{}
	var buckets []int64

	for _, pc := range positions {
		var cells []structs.Cell

		if pc.Reference.HasReferenceData(p) {
			_, qualifier, err := Route(chromosome, pc.Position, true, "")
			if err != nil {
				return nil, err
			}
			cells = append(cells, structs.Cell{Qualifier: qualifier, Value: codec.EncodeReference(pc.Reference)})
		}

		for _, v := range pc.Variants {
			if !v.Counts.HasVariantData() {
				continue
			}
			_, qualifier, err := Route(chromosome, pc.Position, false, VariantId(v.Reference, v.Alternate))
			if err != nil {
				return nil, err
			}
			alleles := codec.Alleles{Reference: v.Reference, Alternate: v.Alternate}
			cells = append(cells, structs.Cell{Qualifier: qualifier, Value: codec.EncodeAlternate(v.Counts, alleles)})
		}

		if len(cells) == 0 {
			continue
		}

		bucket, _ := Bucket(pc.Position)
		write, ok := byRow[bucket]
		if !ok {
			write = &structs.StoreWrite{Row: structs.RowKey{Chromosome: chromosome, Bucket: bucket}}
			byRow[bucket] = write
			buckets = append(buckets, bucket)
		}
		write.Cells = append(write.Cells, cells...)
	}

	slices.Sort(buckets)
	writes := make([]structs.StoreWrite, 0, len(buckets))
	for _, b := range buckets {
		w := byRow[b]
		slices.SortStableFunc(w.Cells, func(a, b structs.Cell) int { return strings.Compare(a.Qualifier, b.Qualifier) })
		writes = append(writes, *w)
	}
	return writes, nil
}

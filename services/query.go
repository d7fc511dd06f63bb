package services

import (
	"context"
	"fmt"

	"gohan/allelecounts/models"
	"gohan/allelecounts/models/constants/chromosome"
	variantType "gohan/allelecounts/models/constants/variant-type"
	"gohan/allelecounts/models/counts"
	coreErrors "gohan/allelecounts/models/errors"
	"gohan/allelecounts/models/ingest/structs"
	"gohan/allelecounts/repositories"
	"gohan/allelecounts/services/codec"
	"gohan/allelecounts/services/genotypes"
	"gohan/allelecounts/services/router"

	"golang.org/x/exp/slices"
)

type (
	QueryService struct {
		Store          repositories.Store
		Metadata       repositories.Metadata
		MaxScanBuckets int64
	}

	GenotypeQuery struct {
		Chromosome string
		Position   int64
		Reference  string
		Alternate  string
		// nil means every indexed sample
		Samples         []uint32
		SecondaryFilter func(symbol string) bool
	}

	GenotypeAnswer struct {
		Chromosome string
		// normalized
		Position  int64
		Reference string
		Alternate string
		*genotypes.Result
	}

	// Column is one decoded stored column.
	Column struct {
		Chromosome  string
		Position    int64
		Qualifier   string
		IsReference bool
		VariantId   string
		Alleles     codec.Alleles
		Counts      *counts.AlleleCount
	}
)

var ErrScanTooLarge = fmt.Errorf("scan range too large")

func NewQueryService(store repositories.Store, metadata repositories.Metadata, cfg *models.Config) *QueryService {
	return &QueryService{
		Store:          store,
		Metadata:       metadata,
		MaxScanBuckets: cfg.Api.MaxScanBuckets,
	}
}

// Genotypes reconstructs the genotypes of every requested sample for one
// variant. Other variants starting at the same position are reported as
// secondary alleles.
func (q *QueryService) Genotypes(ctx context.Context, query GenotypeQuery) (*GenotypeAnswer, error) {
	chr := chromosome.Normalize(query.Chromosome)
	position, reference, alternate := variantType.Normalize(query.Position, query.Reference, query.Alternate)
	if _, err := variantType.Determine(reference, alternate); err != nil {
		return nil, coreErrors.At(err, chr, query.Position)
	}

	rowKey, refQualifier, err := router.Route(chr, position, true, "")
	if err != nil {
		return nil, err
	}
	row, err := q.Store.Get(ctx, rowKey)
	if err != nil {
		return nil, err
	}

	ac, err := q.assemble(row, position, router.VariantId(reference, alternate), refQualifier)
	if err != nil {
		return nil, coreErrors.At(err, chr, position)
	}

	indexed, err := q.Metadata.IndexedSamples(ctx)
	if err != nil {
		return nil, err
	}
	p, err := q.Metadata.Ploidy(ctx, chr)
	if err != nil {
		return nil, err
	}

	result, err := genotypes.Reconstruct(genotypes.Request{
		Counts:          ac,
		Reference:       reference,
		Alternate:       alternate,
		IndexedSamples:  indexed,
		PresentSamples:  query.Samples,
		SecondaryFilter: query.SecondaryFilter,
		Ploidy:          p,
	})
	if err != nil {
		return nil, coreErrors.At(err, chr, position)
	}

	return &GenotypeAnswer{
		Chromosome: chr,
		Position:   position,
		Reference:  reference,
		Alternate:  alternate,
		Result:     result,
	}, nil
}

// assemble merges the reference column of a position with its variant
// columns: the target's alternate map, every other one as a secondary.
func (q *QueryService) assemble(row *repositories.Row, position int64, targetId string, refQualifier string) (*counts.AlleleCount, error) {
	_, sub := router.Bucket(position)

	ac := counts.New()
	if blob, ok := row.Cells[refQualifier]; ok {
		decoded, err := codec.DecodeReference(blob)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", refQualifier, err)
		}
		ac = decoded
	}

	for _, qualifier := range sortedQualifiers(row) {
		isReference, columnSub, variantId, err := router.Unroute(qualifier)
		if err != nil {
			return nil, err
		}
		if isReference || columnSub != sub {
			continue
		}

		decoded, alleles, err := codec.DecodeAlternate(row.Cells[qualifier])
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", qualifier, err)
		}
		if variantId == targetId {
			for _, index := range decoded.Alternate.Indices() {
				ac.Alternate.Append(index, decoded.Alternate[index]...)
			}
			continue
		}

		vt, err := variantType.Determine(alleles.Reference, alleles.Alternate)
		if err != nil {
			return nil, err
		}
		symbol := genotypes.SymbolFor(vt, alleles.Alternate)
		for _, index := range decoded.Alternate.Indices() {
			ac.AddSecondary(symbol, index, decoded.Alternate[index]...)
		}
	}

	return ac.Normalize(), nil
}

// Columns decodes every stored column between two positions (inclusive).
func (q *QueryService) Columns(ctx context.Context, chr string, lowerBound int64, upperBound int64) ([]Column, error) {
	chr = chromosome.Normalize(chr)
	if upperBound < lowerBound {
		return nil, coreErrors.New(coreErrors.ErrRange, "upper bound %d below lower bound %d", upperBound, lowerBound)
	}
	from, _ := router.Bucket(lowerBound)
	to, _ := router.Bucket(upperBound)
	if q.MaxScanBuckets > 0 && to-from+1 > q.MaxScanBuckets {
		return nil, fmt.Errorf("%d buckets requested, at most %d: %w", to-from+1, q.MaxScanBuckets, ErrScanTooLarge)
	}

	rows, err := q.Store.Scan(ctx, structs.RowKey{Chromosome: chr, Bucket: from}, structs.RowKey{Chromosome: chr, Bucket: to})
	if err != nil {
		return nil, err
	}

	columns := []Column{}
	for i := range rows {
		row := &rows[i]
		for _, qualifier := range sortedQualifiers(row) {
			column, err := decodeColumn(row, qualifier)
			if err != nil {
				return nil, err
			}
			if column.Position < lowerBound || column.Position > upperBound {
				continue
			}
			columns = append(columns, column)
		}
	}

	slices.SortStableFunc(columns, func(a, b Column) int {
		if a.Position != b.Position {
			if a.Position < b.Position {
				return -1
			}
			return 1
		}
		// reference column first
		if a.IsReference != b.IsReference {
			if a.IsReference {
				return -1
			}
			return 1
		}
		return 0
	})
	return columns, nil
}

// Variants lists the variants starting between two positions.
func (q *QueryService) Variants(ctx context.Context, chr string, lowerBound int64, upperBound int64) ([]Column, error) {
	columns, err := q.Columns(ctx, chr, lowerBound, upperBound)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(columns, func(c Column) bool { return c.IsReference }), nil
}

func decodeColumn(row *repositories.Row, qualifier string) (Column, error) {
	isReference, sub, variantId, err := router.Unroute(qualifier)
	if err != nil {
		return Column{}, err
	}
	position, err := router.Position(row.Key, sub)
	if err != nil {
		return Column{}, err
	}

	column := Column{
		Chromosome:  row.Key.Chromosome,
		Position:    position,
		Qualifier:   qualifier,
		IsReference: isReference,
		VariantId:   variantId,
	}
	if isReference {
		column.Counts, err = codec.DecodeReference(row.Cells[qualifier])
	} else {
		column.Counts, column.Alleles, err = codec.DecodeAlternate(row.Cells[qualifier])
	}
	if err != nil {
		return Column{}, coreErrors.At(fmt.Errorf("column %s: %w", qualifier, err), row.Key.Chromosome, position)
	}
	column.Counts.Normalize()
	return column, nil
}

func sortedQualifiers(row *repositories.Row) []string {
	qualifiers := make([]string, 0, len(row.Cells))
	for q := range row.Cells {
		qualifiers = append(qualifiers, q)
	}
	slices.Sort(qualifiers)
	return qualifiers
}

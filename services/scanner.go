package services

import (
	"strings"

	"gohan/allelecounts/models/constants"
	gi "gohan/allelecounts/models/constants/genotype-index"
	"gohan/allelecounts/models/constants/ploidy"
	variantType "gohan/allelecounts/models/constants/variant-type"
	"gohan/allelecounts/models/counts"
	coreErrors "gohan/allelecounts/models/errors"
	"gohan/allelecounts/models/ingest"
	"gohan/allelecounts/models/ingest/structs"
	"gohan/allelecounts/models/region"
	"gohan/allelecounts/services/combiner"
	"gohan/allelecounts/services/genotypes"
	"gohan/allelecounts/services/router"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Scanner accumulates the calls of one chromosome, sorted by position,
// into per-bucket batches. Calls spanning past their bucket (reference
// blocks, deletions) are carried into the following batches.
type Scanner struct {
	chromosome string
	ploidy     constants.Ploidy

	lastPosition int64
	started      bool

	pending map[int64][]ingest.Call
	carried []ingest.Call
	// bucket the carried calls go into next
	carriedBucket int64
}

func NewScanner(chromosome string) *Scanner {
	return &Scanner{
		chromosome: chromosome,
		ploidy:     ploidy.DefaultForChromosome(chromosome),
		pending:    map[int64][]ingest.Call{},
	}
}

// Add validates and normalizes a call, returning the batches it completed.
func (s *Scanner) Add(call ingest.Call) ([]structs.Batch, error) {
	if call.Chromosome != s.chromosome {
		return nil, coreErrors.At(coreErrors.New(coreErrors.ErrInvariantViolation,
			"call for chromosome %s given to the %s scanner", call.Chromosome, s.chromosome), call.Chromosome, call.Position)
	}
	if s.started && call.Position < s.lastPosition {
		return nil, coreErrors.At(coreErrors.New(coreErrors.ErrUnsortedInput,
			"position follows %d", s.lastPosition), s.chromosome, call.Position)
	}

	normalized, err := normalizeCall(call)
	if err != nil {
		return nil, coreErrors.At(err, s.chromosome, call.Position)
	}

	// normalized positions never precede raw ones, every bucket before the
	// raw position's one is complete
	rawBucket, _ := router.Bucket(call.Position)
	batches := s.emitBefore(rawBucket)

	bucket, _ := router.Bucket(normalized.Position)
	s.pending[bucket] = append(s.pending[bucket], normalized)
	s.lastPosition, s.started = call.Position, true

	return batches, nil
}

// Close returns every remaining batch.
func (s *Scanner) Close() []structs.Batch {
	return s.emitBefore(-1)
}

// emitBefore completes the batches of every bucket below limit, or all of
// them with a negative limit.
func (s *Scanner) emitBefore(limit int64) []structs.Batch {
	var batches []structs.Batch
	for {
		bucket, ok := s.nextBucket()
		if !ok || (limit >= 0 && bucket >= limit) {
			return batches
		}

		calls := append(s.carried, s.pending[bucket]...)
		delete(s.pending, bucket)
		batches = append(batches, structs.Batch{Chromosome: s.chromosome, Bucket: bucket, Ploidy: s.ploidy, Calls: calls})

		nextStart := (bucket + 1) * router.BucketSize
		s.carried = nil
		for _, c := range calls {
			if spanOf(c).Max() >= nextStart {
				s.carried = append(s.carried, c)
			}
		}
		s.carriedBucket = bucket + 1
	}
}

func (s *Scanner) nextBucket() (int64, bool) {
	keys := maps.Keys(s.pending)
	if len(s.carried) > 0 {
		keys = append(keys, s.carriedBucket)
	}
	if len(keys) == 0 {
		return 0, false
	}
	slices.Sort(keys)
	return keys[0], true
}

// -- calls

type callAlleles struct {
	refCopies int
	altCopies int
	noCall    bool
}

func parseGenotype(call ingest.Call) (callAlleles, error) {
	var parsed callAlleles
	gt := strings.TrimSpace(call.Genotype)
	if gt == "" {
		return parsed, coreErrors.ForSample(coreErrors.ErrInvariantViolation, call.SampleId, "missing genotype")
	}

	for _, allele := range strings.FieldsFunc(gt, func(r rune) bool { return r == '/' || r == '|' }) {
		switch allele {
		case ".":
			parsed.noCall = true
		case "0":
			parsed.refCopies++
		case "1":
			if call.IsReferenceCall() {
				return parsed, coreErrors.ForSample(coreErrors.ErrInvariantViolation, call.SampleId,
					"genotype %s on a reference call", gt)
			}
			parsed.altCopies++
		default:
			return parsed, coreErrors.ForSample(coreErrors.ErrInvariantViolation, call.SampleId,
				"genotype %s references allele %s, calls carry a single alternate", gt, allele)
		}
	}
	if parsed.noCall {
		// partially missing calls are missing calls
		return callAlleles{noCall: true}, nil
	}
	return parsed, nil
}

func normalizeCall(call ingest.Call) (ingest.Call, error) {
	if _, err := parseGenotype(call); err != nil {
		return call, err
	}

	if call.IsReferenceCall() {
		if call.End == 0 {
			call.End = call.Position
		}
		if call.End < call.Position {
			return call, coreErrors.New(coreErrors.ErrInvariantViolation, "reference block ends at %d", call.End)
		}
		call.Alternate = ""
		return call, nil
	}

	call.Variant = true
	call.Position, call.Reference, call.Alternate = variantType.Normalize(call.Position, call.Reference, call.Alternate)
	if _, err := variantType.Determine(call.Reference, call.Alternate); err != nil {
		return call, err
	}
	call.End = spanOf(call).End
	return call, nil
}

func spanOf(call ingest.Call) region.Region {
	if call.IsReferenceCall() {
		return region.New(call.Chromosome, call.Position, call.End)
	}
	return variantType.Span(call.Chromosome, call.Position, call.Reference, call.Alternate)
}

// -- flush

// Flush turns a completed batch into the row writes of its bucket.
func Flush(batch structs.Batch) ([]structs.StoreWrite, error) {
	first := batch.Bucket * router.BucketSize
	positions := make([]structs.PositionCounts, 0, router.BucketSize)

	for position := first; position < first+router.BucketSize; position++ {
		pc, err := countPosition(batch, position)
		if err != nil {
			return nil, coreErrors.At(err, batch.Chromosome, position)
		}
		positions = append(positions, pc)
	}

	return router.Group(batch.Chromosome, batch.Ploidy, positions)
}

func countPosition(batch structs.Batch, position int64) (structs.PositionCounts, error) {
	reference := counts.New()
	variantReference := counts.GenotypeMap{}
	variants := map[string]*structs.VariantCounts{}
	var spans []combiner.VariantSpan

	addFilter := func(call ingest.Call) {
		if call.Pass() {
			reference.AddPass(call.SampleId)
		} else {
			reference.AddNotPass(call.SampleId)
		}
	}

	for _, call := range batch.Calls {
		alleles, err := parseGenotype(call)
		if err != nil {
			return structs.PositionCounts{}, err
		}
		span := spanOf(call)

		if call.IsReferenceCall() {
			if position < span.Start || position > span.End {
				continue
			}
			if alleles.noCall {
				reference.AddReference(gi.NoCall, call.SampleId)
			} else {
				reference.AddReference(constants.GenotypeIndex(alleles.refCopies), call.SampleId)
			}
			addFilter(call)
			continue
		}

		vt, err := variantType.Determine(call.Reference, call.Alternate)
		if err != nil {
			return structs.PositionCounts{}, err
		}
		if vt != variantType.Insertion && alleles.altCopies > 0 && span.Overlap(position) {
			spans = append(spans, combiner.VariantSpan{SampleId: call.SampleId, Region: span, Copies: alleles.altCopies})
		}

		switch {
		case call.Position == position:
			addFilter(call)
			if alleles.noCall {
				variantReference.Add(gi.NoCall, call.SampleId)
				continue
			}
			if alleles.refCopies > 0 {
				variantReference.Add(constants.GenotypeIndex(alleles.refCopies), call.SampleId)
			}
			if alleles.altCopies > 0 {
				id := router.VariantId(call.Reference, call.Alternate)
				vc, ok := variants[id]
				if !ok {
					vc = &structs.VariantCounts{Reference: call.Reference, Alternate: call.Alternate, Counts: counts.New()}
					variants[id] = vc
				}
				vc.Counts.AddAlternate(constants.GenotypeIndex(alleles.altCopies), call.SampleId)
			}

		case vt == variantType.Deletion && position > call.Position && position <= span.End && !alleles.noCall:
			if alleles.altCopies > 0 {
				reference.AddSecondary(genotypes.DeletionSymbol, constants.GenotypeIndex(alleles.altCopies), call.SampleId)
			}
			if alleles.refCopies > 0 {
				variantReference.Add(constants.GenotypeIndex(alleles.refCopies), call.SampleId)
			}
		}
	}

	combined := combiner.Combine(position, reference, combiner.BuildOverlaps(position, spans))
	for _, index := range variantReference.Indices() {
		combined.AddReference(index, variantReference[index]...)
	}

	pc := structs.PositionCounts{Position: position, Reference: combined}
	ids := maps.Keys(variants)
	slices.Sort(ids)
	for _, id := range ids {
		pc.Variants = append(pc.Variants, *variants[id])
	}
	return pc, nil
}

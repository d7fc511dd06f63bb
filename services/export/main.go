package export

import (
	"context"
	"fmt"
	"io"

	"gohan/allelecounts/services"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/klauspost/compress/zstd"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const defaultChunkSize = 1024

var Schema = arrow.NewSchema([]arrow.Field{
	{Name: "chromosome", Type: arrow.BinaryTypes.String},
	{Name: "position", Type: arrow.PrimitiveTypes.Int64},
	{Name: "reference", Type: arrow.BinaryTypes.String},
	{Name: "alternate", Type: arrow.BinaryTypes.String},
	{Name: "sample", Type: arrow.PrimitiveTypes.Uint32},
	{Name: "genotype", Type: arrow.BinaryTypes.String},
}, nil)

type (
	ExportService struct {
		Query *services.QueryService
	}

	Request struct {
		Chromosome string
		LowerBound int64
		UpperBound int64
		// nil means every indexed sample
		Samples  []uint32
		Compress bool
		// rows per record batch
		ChunkSize int
	}

	Stats struct {
		Variants int
		Rows     int
	}

	// recordWriter buffers rows into builders and flushes a record batch
	// every chunkSize rows.
	recordWriter struct {
		writer    *ipc.Writer
		builder   *array.RecordBuilder
		chunkSize int
		inChunk   int
	}
)

func NewExportService(query *services.QueryService) *ExportService {
	return &ExportService{Query: query}
}

// Export writes one row per variant and sample for every variant starting
// in the requested region, as an Arrow IPC stream.
func (es *ExportService) Export(ctx context.Context, w io.Writer, req Request) (Stats, error) {
	var stats Stats

	variants, err := es.Query.Variants(ctx, req.Chromosome, req.LowerBound, req.UpperBound)
	if err != nil {
		return stats, err
	}

	out := w
	var encoder *zstd.Encoder
	if req.Compress {
		encoder, err = zstd.NewWriter(w)
		if err != nil {
			return stats, err
		}
		out = encoder
	}

	rw := newRecordWriter(out, req.ChunkSize)
	for _, v := range variants {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		answer, err := es.Query.Genotypes(ctx, services.GenotypeQuery{
			Chromosome: v.Chromosome,
			Position:   v.Position,
			Reference:  v.Alleles.Reference,
			Alternate:  v.Alleles.Alternate,
			Samples:    req.Samples,
		})
		if err != nil {
			return stats, fmt.Errorf("variant %s at %d: %w", v.VariantId, v.Position, err)
		}

		bySample := map[uint32]string{}
		for gt, ids := range answer.Genotypes {
			for _, id := range ids {
				bySample[id] = string(gt)
			}
		}
		ids := maps.Keys(bySample)
		slices.Sort(ids)

		for _, id := range ids {
			if err := rw.append(answer.Chromosome, answer.Position, answer.Reference, answer.Alternate, id, bySample[id]); err != nil {
				return stats, err
			}
			stats.Rows++
		}
		stats.Variants++
	}

	if err := rw.close(); err != nil {
		return stats, err
	}
	if encoder != nil {
		if err := encoder.Close(); err != nil {
			return stats, err
		}
	}

	log.WithFields(log.Fields{
		"chromosome": req.Chromosome,
		"variants":   stats.Variants,
		"rows":       stats.Rows,
	}).Debug("genotypes exported")
	return stats, nil
}

func newRecordWriter(w io.Writer, chunkSize int) *recordWriter {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	pool := memory.NewGoAllocator()
	return &recordWriter{
		writer:    ipc.NewWriter(w, ipc.WithSchema(Schema), ipc.WithAllocator(pool)),
		builder:   array.NewRecordBuilder(pool, Schema),
		chunkSize: chunkSize,
	}
}

func (rw *recordWriter) append(chr string, position int64, reference string, alternate string, sample uint32, genotype string) error {
	rw.builder.Field(0).(*array.StringBuilder).Append(chr)
	rw.builder.Field(1).(*array.Int64Builder).Append(position)
	rw.builder.Field(2).(*array.StringBuilder).Append(reference)
	rw.builder.Field(3).(*array.StringBuilder).Append(alternate)
	rw.builder.Field(4).(*array.Uint32Builder).Append(sample)
	rw.builder.Field(5).(*array.StringBuilder).Append(genotype)
	rw.inChunk++

	if rw.inChunk == rw.chunkSize {
		return rw.flush()
	}
	return nil
}

func (rw *recordWriter) flush() error {
	// NewRecord resets the builders
	record := rw.builder.NewRecord()
	defer record.Release()

	rw.inChunk = 0
	return rw.writer.Write(record)
}

func (rw *recordWriter) close() error {
	defer rw.builder.Release()

	if rw.inChunk > 0 {
		if err := rw.flush(); err != nil {
			return err
		}
	}
	return rw.writer.Close()
}

// Read decodes an exported stream, mostly for tests and tooling.
func Read(r io.Reader, compressed bool, fn func(record arrow.Record) error) error {
	if compressed {
		decoder, err := zstd.NewReader(r)
		if err != nil {
			return err
		}
		defer decoder.Close()
		r = decoder
	}

	reader, err := ipc.NewReader(r, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return err
	}
	defer reader.Release()

	for reader.Next() {
		if err := fn(reader.Record()); err != nil {
			return err
		}
	}
	return reader.Err()
}

package repositories

import (
	"context"

	"gohan/allelecounts/models/constants"
	"gohan/allelecounts/models/ingest/structs"
)

// Row is a stored row: qualifier -> every byte appended to that column.
type Row struct {
	Key   structs.RowKey
	Cells map[string][]byte
}

// Store is the ordered key-value boundary the counts are persisted in.
// Appending to a column concatenates bytes; CompareAndPut replaces them
// only while the column still holds the expected bytes, so an append
// made since they were read is never overwritten.
type Store interface {
	Get(ctx context.Context, key structs.RowKey) (*Row, error)
	Append(ctx context.Context, key structs.RowKey, qualifier string, value []byte) error
	Apply(ctx context.Context, writes []structs.StoreWrite) error
	CompareAndPut(ctx context.Context, key structs.RowKey, qualifier string, expected []byte, value []byte) (bool, error)
	// Scan returns the rows between from and to (both inclusive) in key order.
	Scan(ctx context.Context, from structs.RowKey, to structs.RowKey) ([]Row, error)
	Chromosomes(ctx context.Context) ([]string, error)
}

// Metadata is the cohort boundary: sample names, the indexed samples and
// the ploidy recorded per chromosome.
type Metadata interface {
	SampleName(ctx context.Context, sampleId uint32) (string, error)
	SampleIds(ctx context.Context, names ...string) (map[string]uint32, error)
	IndexedSamples(ctx context.Context) ([]uint32, error)
	Ploidy(ctx context.Context, chromosome string) (constants.Ploidy, error)
}

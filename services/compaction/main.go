package compaction

import (
	"context"
	"time"

	"gohan/allelecounts/models"
	"gohan/allelecounts/models/ingest/structs"
	"gohan/allelecounts/repositories"
	"gohan/allelecounts/services/codec"
	"gohan/allelecounts/services/router"

	"github.com/go-co-op/gocron"
	log "github.com/sirupsen/logrus"
)

// largest bucket a 10-digit row key holds
const maxBucket = 9_999_999_999

type (
	CompactionService struct {
		Initialized bool
		Store       repositories.Store
		Config      *models.Config
		// compaction is skipped while it reports true, as rewriting a
		// column concurrently appended to would lose the append
		Busy func() bool

		scheduler *gocron.Scheduler
	}

	Stats struct {
		Rows      int
		Columns   int
		Rewritten int
		// columns appended to while being compacted, left for the next run
		Skipped int
	}
)

func NewCompactionService(store repositories.Store, cfg *models.Config, busy func() bool) *CompactionService {
	cs := &CompactionService{
		Initialized: false,
		Store:       store,
		Config:      cfg,
		Busy:        busy,
	}

	cs.Init()

	return cs
}

func (cs *CompactionService) Init() {
	if cs.Initialized || !cs.Config.Compaction.Enabled {
		return
	}

	// - spin up a scheduler that periodically rewrites appended
	//   columns into a single normalized sub-message
	cs.scheduler = gocron.NewScheduler(time.UTC)
	_, err := cs.scheduler.Every(1).Days().At(cs.Config.Compaction.At).Do(func() {
		if cs.Busy != nil && cs.Busy() {
			log.Info("ingestion in progress, skipping compaction")
			return
		}
		log.Info("running compaction..")

		stats, err := cs.Compact(context.Background())
		if err != nil {
			log.WithError(err).Error("compaction failed")
			return
		}
		log.WithFields(log.Fields{
			"rows":      stats.Rows,
			"columns":   stats.Columns,
			"rewritten": stats.Rewritten,
			"skipped":   stats.Skipped,
		}).Info("compaction done")
	})
	if err != nil {
		log.WithError(err).Error("invalid compaction schedule")
		return
	}
	cs.scheduler.StartAsync()

	cs.Initialized = true
	log.Info("Compaction Service Initialized ..")
}

func (cs *CompactionService) Stop() {
	if cs.scheduler != nil {
		cs.scheduler.Stop()
	}
}

// Compact rewrites every column holding more than one sub-message.
func (cs *CompactionService) Compact(ctx context.Context) (Stats, error) {
	var stats Stats

	chromosomes, err := cs.Store.Chromosomes(ctx)
	if err != nil {
		return stats, err
	}

	for _, chr := range chromosomes {
		rows, err := cs.Store.Scan(ctx,
			structs.RowKey{Chromosome: chr, Bucket: 0},
			structs.RowKey{Chromosome: chr, Bucket: maxBucket})
		if err != nil {
			return stats, err
		}

		for _, row := range rows {
			stats.Rows++
			for qualifier, blob := range row.Cells {
				stats.Columns++
				outcome, err := cs.compactColumn(ctx, row.Key, qualifier, blob)
				if err != nil {
					// a malformed column only fails itself
					log.WithError(err).WithFields(log.Fields{
						"row":       row.Key.String(),
						"qualifier": qualifier,
					}).Warn("column left as is")
					continue
				}
				switch outcome {
				case columnRewritten:
					stats.Rewritten++
				case columnSkipped:
					stats.Skipped++
					log.WithFields(log.Fields{
						"row":       row.Key.String(),
						"qualifier": qualifier,
					}).Debug("column changed since it was read, skipped")
				}
			}
		}
	}
	return stats, nil
}

type columnOutcome int

const (
	columnUnchanged columnOutcome = iota
	columnRewritten
	columnSkipped
)

func (cs *CompactionService) compactColumn(ctx context.Context, key structs.RowKey, qualifier string, blob []byte) (columnOutcome, error) {
	n, err := codec.SubMessages(blob)
	if err != nil || n < 2 {
		return columnUnchanged, err
	}

	isReference, _, _, err := router.Unroute(qualifier)
	if err != nil {
		return columnUnchanged, err
	}

	var compacted []byte
	if isReference {
		compacted, err = codec.CompactReference(blob)
	} else {
		compacted, err = codec.CompactAlternate(blob)
	}
	if err != nil {
		return columnUnchanged, err
	}

	replaced, err := cs.Store.CompareAndPut(ctx, key, qualifier, blob, compacted)
	if err != nil {
		return columnUnchanged, err
	}
	if !replaced {
		return columnSkipped, nil
	}
	return columnRewritten, nil
}

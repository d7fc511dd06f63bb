package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gohan/allelecounts/models"
	"gohan/allelecounts/models/constants/chromosome"
	coreErrors "gohan/allelecounts/models/errors"
	"gohan/allelecounts/models/ingest"
	"gohan/allelecounts/models/ingest/structs"
	"gohan/allelecounts/repositories"
	"gohan/allelecounts/services/router"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
	"golang.org/x/sync/errgroup"
)

type (
	IngestionService struct {
		Store               repositories.Store
		ConcurrencyLevel    int
		IngestRequestChan   chan *ingest.IngestRequest
		IngestRequestMap    map[string]*ingest.IngestRequest
		IngestRequestMapMux sync.RWMutex
		Initialized         bool

		// number of Ingest calls in flight
		active int64
	}
)

func NewIngestionService(store repositories.Store, cfg *models.Config) *IngestionService {
	iz := &IngestionService{
		Store:             store,
		ConcurrencyLevel:  cfg.Api.IngestionConcurrencyLevel,
		IngestRequestChan: make(chan *ingest.IngestRequest),
		IngestRequestMap:  map[string]*ingest.IngestRequest{},
	}
	if iz.ConcurrencyLevel < 1 {
		iz.ConcurrencyLevel = 1
	}

	iz.Init()

	return iz
}

func (i *IngestionService) Init() {
	// safeguard to prevent multiple initilizations
	if !i.Initialized {
		// listener for ingest request updates
		go func() {
			for request := range i.IngestRequestChan {
				if request.State == ingest.Queued {
					log.WithField("request", request.Id).Info("queueing a new ingestion request")
				}

				request.UpdatedAt = time.Now().String()
				i.IngestRequestMapMux.Lock()
				copied := *request
				i.IngestRequestMap[request.Id.String()] = &copied
				i.IngestRequestMapMux.Unlock()
			}
		}()
		i.Initialized = true
	}
}

// Submit registers an ingest request for the calls and processes it in
// the background.
func (i *IngestionService) Submit(calls []ingest.Call) *ingest.IngestRequest {
	now := time.Now().String()
	request := &ingest.IngestRequest{
		Id:          uuid.New(),
		Chromosomes: chromosomesOf(calls),
		CallCount:   len(calls),
		State:       ingest.Queued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	i.IngestRequestChan <- request

	go func(request ingest.IngestRequest) {
		request.State = ingest.Running
		i.IngestRequestChan <- &request

		rows, err := i.Ingest(context.Background(), calls)
		request.RowsWritten = rows
		if err != nil {
			request.State = ingest.Error
			request.Message = err.Error()
		} else {
			request.State = ingest.Done
			request.Message = fmt.Sprintf("%d calls ingested into %d rows", len(calls), rows)
		}
		i.IngestRequestChan <- &request
	}(*request)

	return request
}

// Ingest stores the calls, chromosomes in parallel. Within a chromosome,
// calls must be sorted by position. Returns the number of rows written.
func (i *IngestionService) Ingest(ctx context.Context, calls []ingest.Call) (int, error) {
	atomic.AddInt64(&i.active, 1)
	defer atomic.AddInt64(&i.active, -1)

	byChromosome := map[string][]ingest.Call{}
	for _, c := range calls {
		c.Chromosome = chromosome.Normalize(c.Chromosome)
		byChromosome[c.Chromosome] = append(byChromosome[c.Chromosome], c)
	}

	var rows int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.ConcurrencyLevel)
	for _, chr := range chromosomesOf(calls) {
		chr := chr
		g.Go(func() error {
			written, err := i.ingestChromosome(gctx, chr, byChromosome[chr])
			atomic.AddInt64(&rows, int64(written))
			return err
		})
	}
	err := g.Wait()
	return int(rows), err
}

func (i *IngestionService) ingestChromosome(ctx context.Context, chr string, calls []ingest.Call) (int, error) {
	logger := log.WithField("chromosome", chr)
	logger.WithField("calls", len(calls)).Info("ingesting chromosome")

	scanner := NewScanner(chr)
	written := 0
	for _, call := range calls {
		batches, err := scanner.Add(call)
		if err != nil {
			return written, err
		}
		for _, b := range batches {
			n, err := i.store(ctx, logger, b)
			written += n
			if err != nil {
				return written, err
			}
		}
	}
	for _, b := range scanner.Close() {
		n, err := i.store(ctx, logger, b)
		written += n
		if err != nil {
			return written, err
		}
	}

	logger.WithField("rows", written).Info("chromosome ingested")
	return written, nil
}

func (i *IngestionService) store(ctx context.Context, logger *log.Entry, b structs.Batch) (int, error) {
	writes, err := Flush(b)
	if err != nil {
		return 0, err
	}
	if len(writes) == 0 {
		return 0, nil
	}
	if err := i.Store.Apply(ctx, writes); err != nil {
		return 0, coreErrors.At(err, b.Chromosome, b.Bucket*router.BucketSize)
	}
	logger.WithField("bucket", b.Bucket).Debug("row appended")
	return len(writes), nil
}

// IsBusy reports whether calls are being written to the store.
func (i *IngestionService) IsBusy() bool {
	return atomic.LoadInt64(&i.active) > 0
}

func (i *IngestionService) GetRequests() []*ingest.IngestRequest {
	i.IngestRequestMapMux.RLock()
	defer i.IngestRequestMapMux.RUnlock()

	requests := make([]*ingest.IngestRequest, 0, len(i.IngestRequestMap))
	for _, r := range i.IngestRequestMap {
		copied := *r
		requests = append(requests, &copied)
	}
	slices.SortFunc(requests, func(a, b *ingest.IngestRequest) int {
		switch {
		case a.CreatedAt < b.CreatedAt:
			return -1
		case a.CreatedAt > b.CreatedAt:
			return 1
		}
		return 0
	})
	return requests
}

func (i *IngestionService) GetRequest(id string) (*ingest.IngestRequest, bool) {
	i.IngestRequestMapMux.RLock()
	defer i.IngestRequestMapMux.RUnlock()

	r, ok := i.IngestRequestMap[id]
	if !ok {
		return nil, false
	}
	copied := *r
	return &copied, true
}

// chromosomesOf lists the normalized chromosomes in first-seen order
func chromosomesOf(calls []ingest.Call) []string {
	var chromosomes []string
	for _, c := range calls {
		chr := chromosome.Normalize(c.Chromosome)
		if !slices.Contains(chromosomes, chr) {
			chromosomes = append(chromosomes, chr)
		}
	}
	return chromosomes
}

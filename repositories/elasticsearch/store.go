package elasticsearch

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"gohan/allelecounts/models"
	"gohan/allelecounts/models/indexes"
	"gohan/allelecounts/models/ingest/structs"
	"gohan/allelecounts/repositories"

	"github.com/Jeffail/gabs"
	"github.com/carbocation/pfx"
	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esutil"
	"github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"
)

const (
	appendScript = "ctx._source.cells.addAll(params.cells)"
	putScript    = "ctx._source.cells.removeIf(c -> c.q == params.q); ctx._source.cells.addAll(params.cells)"

	scanPageSize      = 500
	retriesOnConflict = 5
)

// Store keeps one index per chromosome and one document per row.
type Store struct {
	Client      *elasticsearch.Client
	IndexPrefix string
	BulkWorkers int
	Debug       bool

	createdIndexes sync.Map
}

func NewStore(es *elasticsearch.Client, cfg *models.Config) *Store {
	return &Store{
		Client:      es,
		IndexPrefix: cfg.Elasticsearch.IndexPrefix,
		BulkWorkers: cfg.Elasticsearch.BulkWorkers,
		Debug:       cfg.Debug,
	}
}

func (s *Store) index(chromosome string) string {
	return fmt.Sprintf("%s-%s", s.IndexPrefix, strings.ToLower(chromosome))
}

func (s *Store) Get(ctx context.Context, key structs.RowKey) (*repositories.Row, error) {
	row, _, err := s.getRow(ctx, key)
	return row, err
}

// version identifies one state of a row document, for optimistic
// concurrency control
type version struct {
	seqNo       int
	primaryTerm int
}

// getRow also returns the document version, nil when it does not exist.
func (s *Store) getRow(ctx context.Context, key structs.RowKey) (*repositories.Row, *version, error) {
	res, err := s.Client.Get(s.index(key.Chromosome), key.String(), s.Client.Get.WithContext(ctx))
	if err != nil {
		return nil, nil, pfx.Err(err)
	}
	defer res.Body.Close()

	row := &repositories.Row{Key: key, Cells: map[string][]byte{}}
	if res.StatusCode == http.StatusNotFound {
		return row, nil, nil
	}
	if res.IsError() {
		return nil, nil, pfx.Err(fmt.Errorf("getting row %s: %s", key, res.String()))
	}

	parsed, err := gabs.ParseJSONBuffer(res.Body)
	if err != nil {
		return nil, nil, pfx.Err(err)
	}
	doc, err := decodeDocument(parsed.Path("_source").Data())
	if err != nil {
		return nil, nil, err
	}
	if err := fillRow(row, doc); err != nil {
		return nil, nil, err
	}

	var v *version
	seqNo, hasSeqNo := parsed.Path("_seq_no").Data().(float64)
	primaryTerm, hasPrimaryTerm := parsed.Path("_primary_term").Data().(float64)
	if hasSeqNo && hasPrimaryTerm {
		v = &version{seqNo: int(seqNo), primaryTerm: int(primaryTerm)}
	}
	return row, v, nil
}

func (s *Store) Append(ctx context.Context, key structs.RowKey, qualifier string, value []byte) error {
	return s.Apply(ctx, []structs.StoreWrite{{
		Row:   key,
		Cells: []structs.Cell{{Qualifier: qualifier, Value: value}},
	}})
}

// Apply sends every write as a scripted upsert through one bulk indexer
// and waits for all of them.
func (s *Store) Apply(ctx context.Context, writes []structs.StoreWrite) error {
	if len(writes) == 0 {
		return nil
	}
	for _, w := range writes {
		if err := s.ensureIndex(ctx, w.Row.Chromosome); err != nil {
			return err
		}
	}

	numWorkers := s.BulkWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}
	bi, err := esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:     s.Client,
		NumWorkers: numWorkers,
	})
	if err != nil {
		return pfx.Err(err)
	}

	var (
		failuresMux sync.Mutex
		failures    []string
	)
	retries := retriesOnConflict
	for _, w := range writes {
		body, err := updateBody(w.Row, appendScript, nil, w.Cells)
		if err != nil {
			return err
		}
		addErr := bi.Add(ctx, esutil.BulkIndexerItem{
			Action:          "update",
			Index:           s.index(w.Row.Chromosome),
			DocumentID:      w.Row.String(),
			RetryOnConflict: &retries,
			Body:            bytes.NewReader(body),
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				failuresMux.Lock()
				defer failuresMux.Unlock()
				if err != nil {
					failures = append(failures, fmt.Sprintf("%s: %s", item.DocumentID, err))
				} else {
					failures = append(failures, fmt.Sprintf("%s: %s: %s", item.DocumentID, res.Error.Type, res.Error.Reason))
				}
			},
		})
		if addErr != nil {
			bi.Close(ctx)
			return pfx.Err(addErr)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return pfx.Err(err)
	}

	stats := bi.Stats()
	if s.Debug {
		log.WithFields(log.Fields{
			"added":   stats.NumAdded,
			"updated": stats.NumUpdated,
			"failed":  stats.NumFailed,
		}).Debug("bulk append done")
	}
	if stats.NumFailed > 0 {
		return pfx.Err(fmt.Errorf("%d of %d row appends failed: %s", stats.NumFailed, len(writes), strings.Join(failures, "; ")))
	}
	return nil
}

// CompareAndPut reads the row, and replaces the column only if it holds
// the expected bytes and the document was not written since the read.
func (s *Store) CompareAndPut(ctx context.Context, key structs.RowKey, qualifier string, expected []byte, value []byte) (bool, error) {
	row, v, err := s.getRow(ctx, key)
	if err != nil {
		return false, err
	}
	if v == nil || !bytes.Equal(row.Cells[qualifier], expected) {
		return false, nil
	}

	body, err := updateBody(key, putScript, map[string]interface{}{"q": qualifier},
		[]structs.Cell{{Qualifier: qualifier, Value: value}})
	if err != nil {
		return false, err
	}

	res, err := s.Client.Update(s.index(key.Chromosome), key.String(), bytes.NewReader(body),
		s.Client.Update.WithContext(ctx),
		s.Client.Update.WithIfSeqNo(v.seqNo),
		s.Client.Update.WithIfPrimaryTerm(v.primaryTerm),
	)
	if err != nil {
		return false, pfx.Err(err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusConflict {
		return false, nil
	}
	if res.IsError() {
		return false, pfx.Err(fmt.Errorf("putting %s/%s: %s", key, qualifier, res.String()))
	}
	return true, nil
}

// Scan pages through the rows of one chromosome ordered by bucket.
func (s *Store) Scan(ctx context.Context, from structs.RowKey, to structs.RowKey) ([]repositories.Row, error) {
	if from.Chromosome != to.Chromosome {
		return nil, pfx.Err(fmt.Errorf("scan across chromosomes %s and %s", from.Chromosome, to.Chromosome))
	}

	rows := []repositories.Row{}
	var searchAfter interface{}
	for {
		query := map[string]interface{}{
			"query": map[string]interface{}{
				"range": map[string]interface{}{
					"bucket": map[string]interface{}{
						"gte": from.Bucket,
						"lte": to.Bucket,
					},
				},
			},
			"sort": []map[string]string{{"bucket": "asc"}},
			"size": scanPageSize,
		}
		if searchAfter != nil {
			query["search_after"] = []interface{}{searchAfter}
		}

		hits, err := s.search(ctx, s.index(from.Chromosome), query)
		if err != nil {
			return nil, err
		}
		if hits == nil {
			return rows, nil
		}

		children, _ := hits.Children()
		for _, hit := range children {
			doc, err := decodeDocument(hit.Path("_source").Data())
			if err != nil {
				return nil, err
			}
			row := repositories.Row{
				Key:   structs.RowKey{Chromosome: doc.Chromosome, Bucket: doc.Bucket},
				Cells: map[string][]byte{},
			}
			if err := fillRow(&row, doc); err != nil {
				return nil, err
			}
			rows = append(rows, row)
			searchAfter = doc.Bucket
		}
		if len(children) < scanPageSize {
			return rows, nil
		}
	}
}

func (s *Store) Chromosomes(ctx context.Context) ([]string, error) {
	query := map[string]interface{}{
		"size": 0,
		"aggs": map[string]interface{}{
			"chromosomes": map[string]interface{}{
				"terms": map[string]interface{}{
					"field": "chromosome",
					"size":  10000,
				},
			},
		},
	}
	parsed, err := s.do(ctx, s.IndexPrefix+"-*", query)
	if err != nil {
		return nil, err
	}

	chromosomes := []string{}
	if parsed == nil {
		return chromosomes, nil
	}
	buckets, _ := parsed.Path("aggregations.chromosomes.buckets").Children()
	for _, b := range buckets {
		if key, ok := b.Path("key").Data().(string); ok {
			chromosomes = append(chromosomes, key)
		}
	}
	return chromosomes, nil
}

// -- helpers

func (s *Store) ensureIndex(ctx context.Context, chromosome string) error {
	index := s.index(chromosome)
	if _, done := s.createdIndexes.Load(index); done {
		return nil
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(map[string]interface{}{"mappings": indexes.ROW_INDEX_MAPPING}); err != nil {
		return pfx.Err(err)
	}
	res, err := s.Client.Indices.Create(index,
		s.Client.Indices.Create.WithContext(ctx),
		s.Client.Indices.Create.WithBody(&buf),
	)
	if err != nil {
		return pfx.Err(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		if !strings.Contains(string(body), "resource_already_exists_exception") {
			return pfx.Err(fmt.Errorf("creating index %s: %s", index, body))
		}
	} else {
		log.WithField("index", index).Info("created row index")
	}
	s.createdIndexes.Store(index, true)
	return nil
}

// search returns the hits of a query, nil when the index does not exist.
func (s *Store) search(ctx context.Context, index string, query map[string]interface{}) (*gabs.Container, error) {
	parsed, err := s.do(ctx, index, query)
	if err != nil || parsed == nil {
		return nil, err
	}
	return parsed.Path("hits.hits"), nil
}

func (s *Store) do(ctx context.Context, index string, query map[string]interface{}) (*gabs.Container, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, pfx.Err(err)
	}
	if s.Debug {
		log.WithField("index", index).Debug(buf.String())
	}

	res, err := s.Client.Search(
		s.Client.Search.WithContext(ctx),
		s.Client.Search.WithIndex(index),
		s.Client.Search.WithBody(&buf),
		s.Client.Search.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return nil, pfx.Err(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.IsError() {
		return nil, pfx.Err(fmt.Errorf("searching %s: %s", index, res.String()))
	}

	parsed, err := gabs.ParseJSONBuffer(res.Body)
	if err != nil {
		return nil, pfx.Err(err)
	}
	return parsed, nil
}

func updateBody(key structs.RowKey, script string, params map[string]interface{}, cells []structs.Cell) ([]byte, error) {
	encoded := make([]indexes.Cell, 0, len(cells))
	for _, c := range cells {
		encoded = append(encoded, indexes.Cell{
			Qualifier: c.Qualifier,
			Value:     base64.StdEncoding.EncodeToString(c.Value),
		})
	}

	scriptParams := map[string]interface{}{"cells": encoded}
	for k, v := range params {
		scriptParams[k] = v
	}

	body, err := json.Marshal(map[string]interface{}{
		"script": map[string]interface{}{
			"source": script,
			"lang":   "painless",
			"params": scriptParams,
		},
		"upsert": indexes.RowDocument{
			Chromosome: key.Chromosome,
			Bucket:     key.Bucket,
			Cells:      encoded,
		},
	})
	if err != nil {
		return nil, pfx.Err(err)
	}
	return body, nil
}

func decodeDocument(source interface{}) (*indexes.RowDocument, error) {
	doc := &indexes.RowDocument{}
	if err := mapstructure.Decode(source, doc); err != nil {
		return nil, pfx.Err(err)
	}
	return doc, nil
}

// fillRow concatenates the chunks of every column in append order
func fillRow(row *repositories.Row, doc *indexes.RowDocument) error {
	for _, c := range doc.Cells {
		value, err := base64.StdEncoding.DecodeString(c.Value)
		if err != nil {
			return pfx.Err(fmt.Errorf("cell %s of row %s: %w", c.Qualifier, row.Key, err))
		}
		row.Cells[c.Qualifier] = append(row.Cells[c.Qualifier], value...)
	}
	return nil
}

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gohan/allelecounts/contexts"
	"gohan/allelecounts/models/dtos"
	"gohan/allelecounts/models/ingest"
	"gohan/allelecounts/repositories/memory"
	"gohan/allelecounts/repositories/metadata"
	"gohan/allelecounts/services"
	"gohan/allelecounts/services/export"
	"gohan/allelecounts/tests/common"

	. "github.com/ahmetb/go-linq"
	"github.com/apache/arrow/go/v14/arrow"
	"github.com/labstack/echo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ingestBody = `{
	"samples": [
		{"id": 1, "name": "NA12878"},
		{"id": 2, "name": "NA12891"},
		{"id": 3, "name": "NA12892"}
	],
	"calls": [
		{"chromosome": "chr1", "position": 95, "end": 105, "sampleId": 3, "genotype": "0/0"},
		{"chromosome": "chr1", "position": 100, "reference": "A", "alternate": "T", "sampleId": 1, "genotype": "0|1"},
		{"chromosome": "chr1", "position": 100, "reference": "A", "alternate": "T", "sampleId": 2, "genotype": "1/1", "filter": "PASS"}
	]
}`

func setUpServer(t *testing.T) *echo.Echo {
	cfg := common.InitConfig()
	store := memory.NewStore()

	meta, err := metadata.Open(cfg.Metadata.SqlitePath)
	require.NoError(t, err)
	t.Cleanup(func() { meta.Close() })

	qz := services.NewQueryService(store, meta, cfg)
	return New(contexts.GohanContext{
		Config:           cfg,
		Store:            store,
		Metadata:         meta,
		IngestionService: services.NewIngestionService(store, cfg),
		QueryService:     qz,
		ExportService:    export.NewExportService(qz),
	})
}

func serve(e *echo.Echo, method string, target string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func ingestAndWait(t *testing.T, e *echo.Echo) {
	rec := serve(e, http.MethodPost, "/calls/ingest", ingestBody)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var response ingest.IngestResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, ingest.Queued, response.State)

	require.Eventually(t, func() bool {
		rec := serve(e, http.MethodGet, fmt.Sprintf("/calls/ingestion/requests/%s", response.Id), "")
		if rec.Code != http.StatusOK {
			return false
		}
		var request ingest.IngestRequest
		if err := json.Unmarshal(rec.Body.Bytes(), &request); err != nil {
			return false
		}
		assert.NotEqual(t, ingest.Error, request.State, request.Message)
		return request.State == ingest.Done
	}, 5*time.Second, 10*time.Millisecond)
}

func TestServiceInfo(t *testing.T) {
	e := setUpServer(t)

	rec := serve(e, http.MethodGet, "/service-info", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "memory", info["store"])
	assert.NotEmpty(t, info["id"])

	rec = serve(e, http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestIngestion(t *testing.T) {
	t.Run("should ingest calls and register samples", func(t *testing.T) {
		e := setUpServer(t)
		ingestAndWait(t, e)

		rec := serve(e, http.MethodGet, "/calls/ingestion/requests", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var requests []ingest.IngestRequest
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &requests))
		require.Len(t, requests, 1)
		assert.Equal(t, []string{"1"}, requests[0].Chromosomes)
		assert.Equal(t, 3, requests[0].CallCount)

		rec = serve(e, http.MethodGet, "/samples", "")
		require.Equal(t, http.StatusOK, rec.Code)
		var samples []metadata.Sample
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &samples))

		var indexed []string
		From(samples).WhereT(func(s metadata.Sample) bool {
			return s.Indexed
		}).SelectT(func(s metadata.Sample) string {
			return s.Name
		}).ToSlice(&indexed)
		assert.ElementsMatch(t, []string{"NA12878", "NA12891", "NA12892"}, indexed)
	})

	t.Run("should reject malformed payloads", func(t *testing.T) {
		e := setUpServer(t)

		assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodPost, "/calls/ingest", `{"calls": []}`).Code)
		assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodPost, "/calls/ingest", `not json`).Code)
		assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodPost, "/calls/ingest",
			`{"calls": [{"chromosome": "1", "position": 1, "colour": "blue"}]}`).Code)
	})

	t.Run("should answer 404 for unknown requests", func(t *testing.T) {
		e := setUpServer(t)
		assert.Equal(t, http.StatusNotFound, serve(e, http.MethodGet, "/calls/ingestion/requests/nope", "").Code)
	})
}

func TestGenotypes(t *testing.T) {
	e := setUpServer(t)
	ingestAndWait(t, e)

	t.Run("should reconstruct the genotypes of every indexed sample", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/genotypes?chromosome=chr1&position=100&reference=A&alternate=T", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var dto dtos.GenotypesResponseDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
		assert.Equal(t, "1", dto.Chromosome)
		assert.Equal(t, []string{"A", "T"}, dto.Alleles)
		assert.Equal(t, 3, dto.Count)

		genotypeOf := map[string]string{}
		From(dto.Results).ForEachT(func(r dtos.SampleGenotypeDTO) {
			genotypeOf[r.SampleName] = string(r.Genotype)
		})
		assert.Equal(t, map[string]string{
			"NA12878": "0/1",
			"NA12891": "1/1",
			"NA12892": "0/0",
		}, genotypeOf)
	})

	t.Run("should restrict the samples", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/genotypes?chromosome=1&position=100&reference=A&alternate=T&samples=NA12892,NA12878", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var dto dtos.GenotypesResponseDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))

		var ids []uint32
		From(dto.Results).SelectT(func(r dtos.SampleGenotypeDTO) uint32 {
			return r.SampleId
		}).ToSlice(&ids)
		assert.Equal(t, []uint32{1, 3}, ids)
	})

	t.Run("should filter on zygosity", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/genotypes?chromosome=1&position=100&reference=A&alternate=T&genotype=HOMOZYGOUS_ALTERNATE", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var dto dtos.GenotypesResponseDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
		require.Equal(t, 1, dto.Count)
		assert.Equal(t, "NA12891", dto.Results[0].SampleName)
	})

	t.Run("should validate the query", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodGet, "/genotypes?position=100&reference=A&alternate=T", "").Code)
		assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodGet, "/genotypes?chromosome=1&position=x&reference=A&alternate=T", "").Code)
		assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodGet, "/genotypes?chromosome=1&position=100&reference=A", "").Code)
		assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodGet, "/genotypes?chromosome=1&position=100&reference=A&alternate=T&samples=nobody", "").Code)
		assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodGet, "/genotypes?chromosome=1&position=100&reference=A&alternate=T&genotype=both", "").Code)
		assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodGet, "/genotypes?chromosome=1&position=100&reference=A&alternate=%3CCNV%3E", "").Code)
	})
}

func TestCounts(t *testing.T) {
	e := setUpServer(t)
	ingestAndWait(t, e)

	t.Run("should dump the stored columns", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/counts?chromosome=1&lowerBound=100&upperBound=100", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var dto dtos.CountsResponseDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
		require.Equal(t, 2, dto.Count)
		assert.True(t, dto.Results[0].IsReference)
		assert.Equal(t, "Y0", dto.Results[0].Qualifier)
		assert.Equal(t, []uint32{1, 2, 3}, dto.Results[0].Counts.Pass)

		var variants []string
		From(dto.Results).WhereT(func(c dtos.ColumnDTO) bool {
			return !c.IsReference
		}).SelectT(func(c dtos.ColumnDTO) string {
			return c.VariantId
		}).ToSlice(&variants)
		assert.Equal(t, []string{"A:T"}, variants)
	})

	t.Run("should list variants only", func(t *testing.T) {
		rec := serve(e, http.MethodGet, "/counts?chromosome=1&lowerBound=90&upperBound=110&variantsOnly=true", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var dto dtos.CountsResponseDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
		require.Equal(t, 1, dto.Count)
		assert.Equal(t, "T", dto.Results[0].Alternate)
	})

	t.Run("should validate the bounds", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodGet, "/counts?chromosome=1&lowerBound=100", "").Code)
		assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodGet, "/counts?chromosome=1&lowerBound=100&upperBound=10", "").Code)
		// wider than maxScanBuckets
		assert.Equal(t, http.StatusBadRequest, serve(e, http.MethodGet, "/counts?chromosome=1&lowerBound=0&upperBound=1000000", "").Code)
	})
}

func TestExport(t *testing.T) {
	e := setUpServer(t)
	ingestAndWait(t, e)

	for _, compress := range []bool{false, true} {
		compress := compress
		t.Run(fmt.Sprintf("should stream arrow records (compressed: %t)", compress), func(t *testing.T) {
			rec := serve(e, http.MethodGet, fmt.Sprintf("/genotypes/export?chromosome=1&lowerBound=90&upperBound=110&compress=%t", compress), "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, "3", rec.Header().Get("X-Exported-Rows"))

			rows := int64(0)
			require.NoError(t, export.Read(rec.Body, compress, func(record arrow.Record) error {
				rows += record.NumRows()
				return nil
			}))
			assert.Equal(t, int64(3), rows)
		})
	}
}

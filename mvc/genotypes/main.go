package genotypes

import (
	"bytes"
	"fmt"
	"net/http"

	"gohan/allelecounts/contexts"
	"gohan/allelecounts/models/constants/zygosity"
	"gohan/allelecounts/models/dtos"
	"gohan/allelecounts/mvc"
	"gohan/allelecounts/services"
	"gohan/allelecounts/services/export"

	"github.com/labstack/echo"
	"golang.org/x/exp/slices"
)

const (
	arrowStreamMimeType = "application/vnd.apache.arrow.stream"
	zstdMimeType        = "application/zstd"
)

func GenotypesGet(c echo.Context) error {
	gc := c.(*contexts.GohanContext)
	ctx := c.Request().Context()

	answer, err := gc.QueryService.Genotypes(ctx, services.GenotypeQuery{
		Chromosome: gc.Chromosome,
		Position:   gc.Position,
		Reference:  gc.Reference,
		Alternate:  gc.Alternate,
		Samples:    gc.SampleIds,
	})
	if err != nil {
		return mvc.RespondError(c, err)
	}

	samples, err := gc.Metadata.Samples(ctx)
	if err != nil {
		return mvc.RespondError(c, err)
	}
	names := map[uint32]string{}
	for _, s := range samples {
		names[s.Id] = s.Name
	}

	results := []dtos.SampleGenotypeDTO{}
	for gt, ids := range answer.Genotypes {
		if gc.Zygosity != zygosity.Unknown && zygosity.Of(gt) != gc.Zygosity {
			continue
		}
		for _, id := range ids {
			results = append(results, dtos.SampleGenotypeDTO{
				SampleId:   id,
				SampleName: names[id],
				Genotype:   gt,
			})
		}
	}
	slices.SortFunc(results, func(a, b dtos.SampleGenotypeDTO) int {
		return int(int64(a.SampleId) - int64(b.SampleId))
	})

	return c.JSON(http.StatusOK, dtos.GenotypesResponseDTO{
		Status:     http.StatusOK,
		Message:    "Success",
		Chromosome: answer.Chromosome,
		Position:   answer.Position,
		Reference:  answer.Reference,
		Alternate:  answer.Alternate,
		Alleles:    answer.Alleles,
		Count:      len(results),
		Results:    results,
	})
}

func GenotypesExport(c echo.Context) error {
	gc := c.(*contexts.GohanContext)

	compress := c.QueryParam("compress") == "true"

	// buffered so a failing variant still yields a proper error response
	var buf bytes.Buffer
	stats, err := gc.ExportService.Export(c.Request().Context(), &buf, export.Request{
		Chromosome: gc.Chromosome,
		LowerBound: gc.LowerBound,
		UpperBound: gc.UpperBound,
		Samples:    gc.SampleIds,
		Compress:   compress,
	})
	if err != nil {
		return mvc.RespondError(c, err)
	}

	contentType := arrowStreamMimeType
	if compress {
		contentType = zstdMimeType
	}
	c.Response().Header().Set("X-Exported-Variants", fmt.Sprint(stats.Variants))
	c.Response().Header().Set("X-Exported-Rows", fmt.Sprint(stats.Rows))
	return c.Blob(http.StatusOK, contentType, buf.Bytes())
}

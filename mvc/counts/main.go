package counts

import (
	"net/http"

	"gohan/allelecounts/contexts"
	"gohan/allelecounts/models/dtos"
	"gohan/allelecounts/mvc"
	"gohan/allelecounts/services"

	"github.com/labstack/echo"
)

// CountsGet dumps the stored columns of a region, optionally variants only.
func CountsGet(c echo.Context) error {
	gc := c.(*contexts.GohanContext)
	ctx := c.Request().Context()

	var (
		columns []services.Column
		err     error
	)
	if c.QueryParam("variantsOnly") == "true" {
		columns, err = gc.QueryService.Variants(ctx, gc.Chromosome, gc.LowerBound, gc.UpperBound)
	} else {
		columns, err = gc.QueryService.Columns(ctx, gc.Chromosome, gc.LowerBound, gc.UpperBound)
	}
	if err != nil {
		return mvc.RespondError(c, err)
	}

	results := make([]dtos.ColumnDTO, 0, len(columns))
	for _, col := range columns {
		results = append(results, dtos.ColumnDTO{
			Position:    col.Position,
			Qualifier:   col.Qualifier,
			IsReference: col.IsReference,
			VariantId:   col.VariantId,
			Reference:   col.Alleles.Reference,
			Alternate:   col.Alleles.Alternate,
			Counts:      dtos.NewCountsDTO(col.Counts),
		})
	}

	return c.JSON(http.StatusOK, dtos.CountsResponseDTO{
		Status:     http.StatusOK,
		Message:    "Success",
		Chromosome: gc.Chromosome,
		LowerBound: gc.LowerBound,
		UpperBound: gc.UpperBound,
		Count:      len(results),
		Results:    results,
	})
}

package middleware

import (
	"fmt"
	"net/http"

	"gohan/allelecounts/contexts"
	z "gohan/allelecounts/models/constants/zygosity"

	"github.com/labstack/echo"
)

func ValidatePotentialGenotypeQueryParameter(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		gc := c.(*contexts.GohanContext)
		genotypeQP := c.QueryParam("genotype")

		if len(genotypeQP) > 0 {
			zyg, err := z.Parse(genotypeQP)
			if err != nil {
				return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid genotype query %s", genotypeQP))
			}
			gc.Zygosity = zyg
		}

		return next(gc)
	}
}

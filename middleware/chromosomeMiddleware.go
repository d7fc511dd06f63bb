package middleware

import (
	"net/http"
	"strings"

	"gohan/allelecounts/contexts"
	"gohan/allelecounts/models/constants/chromosome"

	"github.com/labstack/echo"
)

/*
Echo middleware to ensure a valid `chromosome` HTTP query parameter was provided
*/
func MandateChromosomeAttribute(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		gc := c.(*contexts.GohanContext)

		// check for chromosome query parameter
		chromQP := chromosome.Normalize(c.QueryParam("chromosome"))
		if len(chromQP) == 0 {
			// if no id was provided return an error
			return echo.NewHTTPError(http.StatusBadRequest, "Missing 'chromosome' query parameter for querying!")
		}
		if strings.ContainsAny(chromQP, ": ") {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid 'chromosome' query parameter! Check your input")
		}

		gc.Chromosome = chromQP
		return next(gc)
	}
}

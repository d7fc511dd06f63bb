package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gohan/allelecounts/contexts"

	"github.com/labstack/echo"
)

/*
Echo middleware to ensure a variant (`position`, `reference`, `alternate`) was provided
*/
func MandateVariantAttributes(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		gc := c.(*contexts.GohanContext)

		positionQP := c.QueryParam("position")
		position, err := strconv.ParseInt(positionQP, 10, 64)
		if err != nil || position < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Invalid 'position' query parameter %q", positionQP))
		}

		reference := strings.ToUpper(c.QueryParam("reference"))
		alternate := strings.ToUpper(c.QueryParam("alternate"))
		if len(reference) == 0 || len(alternate) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "Missing 'reference' or 'alternate' query parameter!")
		}

		gc.Position = position
		gc.Reference = reference
		gc.Alternate = alternate
		return next(gc)
	}
}

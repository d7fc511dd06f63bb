package middleware

import (
	"net/http"
	"strconv"

	"gohan/allelecounts/contexts"

	"github.com/labstack/echo"
)

/*
Echo middleware to ensure balanced `lowerBound` and `upperBound` HTTP query parameters were provided
*/
func MandateCalibratedBounds(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		gc := c.(*contexts.GohanContext)

		lowerBound, lbErr := strconv.ParseInt(c.QueryParam("lowerBound"), 10, 64)
		upperBound, ubErr := strconv.ParseInt(c.QueryParam("upperBound"), 10, 64)

		// allow call to pass if and only if both are provided,
		// positive, and balanced
		if lbErr != nil || ubErr != nil || lowerBound < 0 || upperBound < lowerBound {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid lower and upper bounds!")
		}

		gc.LowerBound = lowerBound
		gc.UpperBound = upperBound
		return next(gc)
	}
}

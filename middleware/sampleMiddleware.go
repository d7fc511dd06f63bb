package middleware

import (
	"errors"
	"net/http"
	"strings"

	"gohan/allelecounts/contexts"
	"gohan/allelecounts/repositories/metadata"

	"github.com/labstack/echo"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

/*
Echo middleware to resolve an optionally provided, comma separated `samples` HTTP query parameter
(sample names) into sample ids
*/
func CalibrateOptionalSamplesAttribute(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		gc := c.(*contexts.GohanContext)

		samplesQP := c.QueryParam("samples")
		if len(samplesQP) == 0 {
			// every indexed sample
			return next(gc)
		}

		names := strings.Split(samplesQP, ",")
		ids, err := gc.Metadata.SampleIds(c.Request().Context(), names...)
		if errors.Is(err, metadata.ErrUnknownSample) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		if err != nil {
			return err
		}

		gc.SampleIds = maps.Values(ids)
		slices.Sort(gc.SampleIds)
		return next(gc)
	}
}

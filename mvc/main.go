package mvc

import (
	"errors"
	"net/http"

	errorDtos "gohan/allelecounts/models/dtos/errors"
	coreErrors "gohan/allelecounts/models/errors"
	"gohan/allelecounts/repositories/metadata"
	"gohan/allelecounts/services"

	"github.com/labstack/echo"
	log "github.com/sirupsen/logrus"
)

// RespondError renders a service error with the status its cause maps to.
func RespondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, coreErrors.ErrUnsupportedVariantType),
		errors.Is(err, coreErrors.ErrRange),
		errors.Is(err, coreErrors.ErrUnsortedInput),
		errors.Is(err, services.ErrScanTooLarge):
		return c.JSON(http.StatusBadRequest, errorDtos.CreateSimpleBadRequest(err.Error()))
	case errors.Is(err, metadata.ErrUnknownSample):
		return c.JSON(http.StatusNotFound, errorDtos.CreateSimpleNotFound(err.Error()))
	case errors.Is(err, coreErrors.ErrAmbiguousGenotype):
		return c.JSON(http.StatusConflict, errorDtos.CreateSimpleConflict(err.Error()))
	}

	log.WithError(err).WithField("path", c.Path()).Error("request failed")
	return c.JSON(http.StatusInternalServerError, errorDtos.CreateSimpleInternalServerError(err.Error()))
}

package ingestion

import (
	"encoding/json"
	"fmt"
	"net/http"

	"gohan/allelecounts/contexts"
	"gohan/allelecounts/models/dtos"
	errorDtos "gohan/allelecounts/models/dtos/errors"
	"gohan/allelecounts/models/ingest"
	"gohan/allelecounts/mvc"
	"gohan/allelecounts/repositories/metadata"

	"github.com/labstack/echo"
	"github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"
)

func CallsIngest(c echo.Context) error {
	gc := c.(*contexts.GohanContext)
	ctx := c.Request().Context()

	body := map[string]interface{}{}
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorDtos.CreateSimpleBadRequest(fmt.Sprintf("invalid body: %s", err)))
	}

	var dto dtos.IngestCallsRequestDTO
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &dto,
	})
	if err != nil {
		return mvc.RespondError(c, err)
	}
	if err := decoder.Decode(body); err != nil {
		return c.JSON(http.StatusBadRequest, errorDtos.CreateSimpleBadRequest(err.Error()))
	}
	if len(dto.Calls) == 0 {
		return c.JSON(http.StatusBadRequest, errorDtos.CreateSimpleBadRequest("no calls to ingest"))
	}

	if len(dto.Samples) > 0 {
		samples := make([]metadata.Sample, 0, len(dto.Samples))
		for _, s := range dto.Samples {
			indexed := s.Indexed == nil || *s.Indexed
			samples = append(samples, metadata.Sample{Id: s.Id, Name: s.Name, Indexed: indexed})
		}
		if err := gc.Metadata.AddSamples(ctx, samples...); err != nil {
			return mvc.RespondError(c, err)
		}
	}

	request := gc.IngestionService.Submit(dto.Calls)
	log.WithFields(log.Fields{
		"request": request.Id,
		"calls":   request.CallCount,
	}).Info("ingestion request submitted")

	return c.JSON(http.StatusAccepted, ingest.IngestResponseDTO{
		Id:      request.Id,
		State:   request.State,
		Message: fmt.Sprintf("%d calls queued for ingestion", request.CallCount),
	})
}

func GetAllIngestionRequests(c echo.Context) error {
	return c.JSON(http.StatusOK, c.(*contexts.GohanContext).IngestionService.GetRequests())
}

func GetIngestionRequest(c echo.Context) error {
	request, ok := c.(*contexts.GohanContext).IngestionService.GetRequest(c.Param("id"))
	if !ok {
		return c.JSON(http.StatusNotFound, errorDtos.CreateSimpleNotFound(fmt.Sprintf("no ingestion request %s", c.Param("id"))))
	}
	return c.JSON(http.StatusOK, request)
}

func GetSamples(c echo.Context) error {
	gc := c.(*contexts.GohanContext)

	samples, err := gc.Metadata.Samples(c.Request().Context())
	if err != nil {
		return mvc.RespondError(c, err)
	}
	return c.JSON(http.StatusOK, samples)
}

package contexts

import (
	"gohan/allelecounts/models"
	"gohan/allelecounts/models/constants"
	"gohan/allelecounts/repositories"
	"gohan/allelecounts/repositories/metadata"
	"gohan/allelecounts/services"
	"gohan/allelecounts/services/export"

	"github.com/labstack/echo"
)

type (
	// "Helper" Context to pass into routes that need
	//  the store, the services and other variables
	GohanContext struct {
		echo.Context
		Config           *models.Config
		Store            repositories.Store
		Metadata         *metadata.Repository
		IngestionService *services.IngestionService
		QueryService     *services.QueryService
		ExportService    *export.ExportService

		// set by the middleware
		Chromosome string
		LowerBound int64
		UpperBound int64
		Position   int64
		Reference  string
		Alternate  string
		// nil unless samples were requested
		SampleIds []uint32
		// zygosity.Unknown unless a genotype filter was requested
		Zygosity constants.Zygosity
	}
)

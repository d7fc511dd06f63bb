package server

import (
	"gohan/allelecounts/contexts"
	gam "gohan/allelecounts/middleware"
	"gohan/allelecounts/mvc/counts"
	"gohan/allelecounts/mvc/genotypes"
	"gohan/allelecounts/mvc/ingestion"
	serviceInfo "gohan/allelecounts/mvc/service-info"

	"github.com/labstack/echo"
	"github.com/labstack/echo/middleware"
)

// New builds the API server. Every request gets its own copy of the
// prototype context, holding the global singletons.
func New(prototype contexts.GohanContext) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	// Configure Server
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.PUT, echo.POST, echo.DELETE},
	}))

	// -- Override handlers with "custom Gohan" context
	//		to be able to provide variables and global singletons
	e.Use(func(h echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := prototype
			cc.Context = c
			return h(&cc)
		}
	})

	// Begin MVC Routes
	// -- Root
	e.GET("/", serviceInfo.GetWelcome)

	// -- Service Info
	e.GET("/service-info", serviceInfo.GetServiceInfo)

	// -- Ingestion
	e.POST("/calls/ingest", ingestion.CallsIngest)
	e.GET("/calls/ingestion/requests", ingestion.GetAllIngestionRequests)
	e.GET("/calls/ingestion/requests/:id", ingestion.GetIngestionRequest)
	e.GET("/samples", ingestion.GetSamples)

	// -- Genotypes
	e.GET("/genotypes", genotypes.GenotypesGet,
		// middleware
		gam.MandateChromosomeAttribute,
		gam.MandateVariantAttributes,
		gam.CalibrateOptionalSamplesAttribute,
		gam.ValidatePotentialGenotypeQueryParameter)
	e.GET("/genotypes/export", genotypes.GenotypesExport,
		// middleware
		gam.MandateChromosomeAttribute,
		gam.MandateCalibratedBounds,
		gam.CalibrateOptionalSamplesAttribute)

	// -- Counts
	e.GET("/counts", counts.CountsGet,
		// middleware
		gam.MandateChromosomeAttribute,
		gam.MandateCalibratedBounds)

	return e
}

package serviceInfo

import (
	"net/http"

	"gohan/allelecounts/contexts"
	serviceInfo "gohan/allelecounts/models/constants/service-info"

	"github.com/labstack/echo"
)

// Spec: https://github.com/ga4gh-discovery/ga4gh-service-info
func GetServiceInfo(c echo.Context) error {
	gc := c.(*contexts.GohanContext)

	return c.JSON(http.StatusOK, map[string]interface{}{
		"type": map[string]interface{}{
			"artifact": serviceInfo.SERVICE_ARTIFACT,
			"group":    serviceInfo.SERVICE_TYPE_NO_VER,
			"version":  serviceInfo.SERVICE_VERSION,
		},
		"id":          serviceInfo.SERVICE_ID,
		"name":        serviceInfo.SERVICE_NAME,
		"description": serviceInfo.SERVICE_DESCRIPTION,
		"organization": map[string]string{
			"name": "C3G",
			"url":  "http://c3g.ca",
		},
		"version": serviceInfo.SERVICE_VERSION,
		"store":   gc.Config.Store.Backend,
	})
}

func GetWelcome(c echo.Context) error {
	return c.JSON(http.StatusOK, serviceInfo.SERVICE_WELCOME)
}

package serviceInfo

import "fmt"

type ServiceInfo string

var (
	SERVICE_NAME        ServiceInfo = "Gohan Allele Count Service"
	SERVICE_WELCOME     ServiceInfo = "Welcome to the Gohan allele count API!"
	SERVICE_DESCRIPTION ServiceInfo = "Sparse cohort genotype store: per-position allele counts, genotype reconstruction and export."

	SERVICE_ARTIFACT    ServiceInfo = "gohan-allele-counts"
	SERVICE_VERSION     ServiceInfo = "0.1.0"
	SERVICE_TYPE_NO_VER ServiceInfo = ServiceInfo(fmt.Sprintf("ca.c3g.bento:%s", SERVICE_ARTIFACT))
	SERVICE_ID          ServiceInfo = SERVICE_TYPE_NO_VER
	SERVICE_TYPE        ServiceInfo = ServiceInfo(fmt.Sprintf("%s:%s", SERVICE_TYPE_NO_VER, SERVICE_VERSION))
)

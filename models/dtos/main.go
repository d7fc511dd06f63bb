package dtos

import (
	"time"

	"gohan/allelecounts/models/constants"
	"gohan/allelecounts/models/counts"
	"gohan/allelecounts/models/ingest"
)

type GeneralErrorResponseDto struct {
	Code      int            `json:"code"`
	Message   string         `json:"message"`
	Timestamp time.Time      `json:"timestamp"`
	Errors    []GeneralError `json:"errors"`
}
type GeneralError struct {
	Message string `json:"message"`
}

// -- Genotypes

type GenotypesResponseDTO struct {
	Status     int                 `json:"status"`
	Message    string              `json:"message"`
	Chromosome string              `json:"chromosome"`
	Position   int64               `json:"position"`
	Reference  string              `json:"reference"`
	Alternate  string              `json:"alternate"`
	Alleles    []string            `json:"alleles"`
	Count      int                 `json:"count"`
	Results    []SampleGenotypeDTO `json:"results"`
}
type SampleGenotypeDTO struct {
	SampleId   uint32             `json:"sampleId"`
	SampleName string             `json:"sampleName,omitempty"`
	Genotype   constants.Genotype `json:"genotype"`
}

// -- Counts

type CountsResponseDTO struct {
	Status     int         `json:"status"`
	Message    string      `json:"message"`
	Chromosome string      `json:"chromosome"`
	LowerBound int64       `json:"lowerBound"`
	UpperBound int64       `json:"upperBound"`
	Count      int         `json:"count"`
	Results    []ColumnDTO `json:"results"`
}
type ColumnDTO struct {
	Position    int64     `json:"position"`
	Qualifier   string    `json:"qualifier"`
	IsReference bool      `json:"isReference"`
	VariantId   string    `json:"variantId,omitempty"`
	Reference   string    `json:"reference,omitempty"`
	Alternate   string    `json:"alternate,omitempty"`
	Counts      CountsDTO `json:"counts"`
}
type CountsDTO struct {
	Reference        map[constants.GenotypeIndex][]uint32            `json:"reference,omitempty"`
	Alternate        map[constants.GenotypeIndex][]uint32            `json:"alternate,omitempty"`
	SecondaryAlleles map[string]map[constants.GenotypeIndex][]uint32 `json:"secondaryAlleles,omitempty"`
	Pass             []uint32                                        `json:"pass,omitempty"`
	NotPass          []uint32                                        `json:"notPass,omitempty"`
}

func NewCountsDTO(ac *counts.AlleleCount) CountsDTO {
	dto := CountsDTO{
		Reference: ac.Reference,
		Alternate: ac.Alternate,
		Pass:      ac.Pass,
		NotPass:   ac.NotPass,
	}
	if len(ac.SecondaryAlleles) > 0 {
		dto.SecondaryAlleles = map[string]map[constants.GenotypeIndex][]uint32{}
		for symbol, gm := range ac.SecondaryAlleles {
			dto.SecondaryAlleles[symbol] = gm
		}
	}
	return dto
}

// -- Ingestion

type IngestCallsRequestDTO struct {
	// samples to register (or update) before the calls are ingested
	Samples []SampleDTO   `json:"samples" mapstructure:"samples"`
	Calls   []ingest.Call `json:"calls" mapstructure:"calls"`
}
type SampleDTO struct {
	Id      uint32 `json:"id" mapstructure:"id"`
	Name    string `json:"name" mapstructure:"name"`
	Indexed *bool  `json:"indexed" mapstructure:"indexed"`
}

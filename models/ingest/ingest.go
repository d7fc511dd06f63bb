package ingest

import (
	"strings"

	"github.com/google/uuid"
)

type State string

const (
	Queued  State = "Queued"
	Running State = "Running"
	Done    State = "Done"
	Error   State = "Error"
)

type IngestRequest struct {
	Id          uuid.UUID `json:"id"`
	Chromosomes []string  `json:"chromosomes"`
	CallCount   int       `json:"callCount"`
	RowsWritten int       `json:"rowsWritten"`
	State       State     `json:"state"`
	Message     string    `json:"message"`
	CreatedAt   string    `json:"createdAt"`
	UpdatedAt   string    `json:"updatedAt"`
}

type IngestResponseDTO struct {
	Id      uuid.UUID `json:"id"`
	State   State     `json:"state"`
	Message string    `json:"message"`
}

// Call is one sample's call at one record, as submitted for ingestion.
// An empty (or ".") alternate makes it a reference call, which may span
// up to End (inclusive) like a gVCF reference block.
type Call struct {
	Chromosome string `json:"chromosome" mapstructure:"chromosome"`
	Position   int64  `json:"position" mapstructure:"position"`
	End        int64  `json:"end" mapstructure:"end"`
	Reference  string `json:"reference" mapstructure:"reference"`
	Alternate  string `json:"alternate" mapstructure:"alternate"`
	SampleId   uint32 `json:"sampleId" mapstructure:"sampleId"`
	Genotype   string `json:"genotype" mapstructure:"genotype"`
	Filter     string `json:"filter" mapstructure:"filter"`

	// set on normalization, as normalized deletions have an empty alternate
	Variant bool `json:"-" mapstructure:"-"`
}

func (c Call) IsReferenceCall() bool {
	return !c.Variant && (c.Alternate == "" || c.Alternate == ".")
}

// Pass reports whether the call passed every filter; an unset filter
// is treated as passing.
func (c Call) Pass() bool {
	switch strings.ToUpper(c.Filter) {
	case "", "PASS", ".":
		return true
	}
	return false
}

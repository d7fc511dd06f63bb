package coreErrors

import (
	"errors"
	"fmt"
	"strings"
)

/*
Error taxonomy shared by the allele count core.
Every error surfaced by the core unwraps to one
of these sentinels (see errors.Is)
*/
var (
	ErrUnsupportedVariantType = errors.New("unsupported variant type")
	ErrInvariantViolation     = errors.New("invariant violation")
	ErrRange                  = errors.New("sub-column out of range")
	ErrAmbiguousGenotype      = errors.New("ambiguous genotype")
	ErrMalformedMessage       = errors.New("malformed message")
	ErrUnsortedInput          = errors.New("unsorted input")
)

// Error decorates a sentinel with the location it was raised at.
type Error struct {
	Err        error
	Chromosome string
	Position   int64
	SampleId   *uint32
	Detail     string
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Err.Error())

	location := []string{}
	if e.Chromosome != "" {
		location = append(location, fmt.Sprintf("chromosome=%s", e.Chromosome))
	}
	if e.Position != 0 {
		location = append(location, fmt.Sprintf("position=%d", e.Position))
	}
	if e.SampleId != nil {
		location = append(location, fmt.Sprintf("sample=%d", *e.SampleId))
	}
	if len(location) > 0 {
		sb.WriteString(" [")
		sb.WriteString(strings.Join(location, " "))
		sb.WriteString("]")
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(err error, detail string, args ...interface{}) *Error {
	return &Error{
		Err:    err,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// At attaches (or overrides) the genomic location of an error.
// Errors which are not part of the taxonomy are wrapped as-is.
func At(err error, chromosome string, position int64) error {
	if err == nil {
		return nil
	}
	var ce *Error
	if errors.As(err, &ce) {
		located := *ce
		located.Chromosome = chromosome
		located.Position = position
		return &located
	}
	return fmt.Errorf("%s:%d: %w", chromosome, position, err)
}

func ForSample(err error, sampleId uint32, detail string, args ...interface{}) *Error {
	e := New(err, detail, args...)
	e.SampleId = &sampleId
	return e
}

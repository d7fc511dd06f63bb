package coreErrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorContext(t *testing.T) {
	t.Run("should unwrap to the sentinel", func(t *testing.T) {
		err := New(ErrRange, "sub-column %d", 12)

		assert.True(t, errors.Is(err, ErrRange))
		assert.False(t, errors.Is(err, ErrAmbiguousGenotype))
		assert.Equal(t, "sub-column out of range: sub-column 12", err.Error())
	})

	t.Run("should carry chromosome, position and sample", func(t *testing.T) {
		err := At(ForSample(ErrAmbiguousGenotype, 7, "no-call and alternate"), "1", 123)

		assert.True(t, errors.Is(err, ErrAmbiguousGenotype))
		assert.Equal(t, "ambiguous genotype [chromosome=1 position=123 sample=7]: no-call and alternate", err.Error())
	})

	t.Run("should wrap foreign errors", func(t *testing.T) {
		base := fmt.Errorf("boom")
		err := At(base, "X", 5)

		assert.True(t, errors.Is(err, base))
		assert.Equal(t, "X:5: boom", err.Error())
		assert.Nil(t, At(nil, "X", 5))
	})
}

package safeconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMustIntToUint(t *testing.T) {
	t.Parallel()

	t.Run("normal_value", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, uint(42), MustIntToUint(42))
	})

	t.Run("max_int", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, uint(MaxInt), MustIntToUint(MaxInt))
	})

	t.Run("negative_panics", func(t *testing.T) {
		t.Parallel()

		assert.PanicsWithValue(t, "safeconv: negative int to uint conversion", func() {
			MustIntToUint(-1)
		})
	})
}

func TestMustIntToUint64(t *testing.T) {
	t.Parallel()

	t.Run("zero", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, uint64(0), MustIntToUint64(0))
	})

	t.Run("normal_value", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, uint64(4096), MustIntToUint64(4096))
	})

	t.Run("negative_panics", func(t *testing.T) {
		t.Parallel()

		assert.PanicsWithValue(t, "safeconv: negative int to uint64 conversion", func() {
			MustIntToUint64(-7)
		})
	})
}

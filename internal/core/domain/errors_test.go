package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrRateLimited", ErrRateLimited},
		{"ErrSyncInProgress", ErrSyncInProgress},
		{"ErrCorpusClosed", ErrCorpusClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

// TestErrors_Distinct tests that sentinel errors do not match each other
func TestErrors_Distinct(t *testing.T) {
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrRateLimited))
	assert.False(t, errors.Is(ErrRateLimited, ErrEmbeddingUnavailable))
}

// TestErrors_Wrapping tests that wrapped sentinels survive errors.Is
func TestErrors_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("embed batch 3: %w", ErrRateLimited)
	assert.True(t, errors.Is(wrapped, ErrRateLimited))
	assert.False(t, errors.Is(wrapped, ErrNotFound))
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestSyncProgress_Note tests the still-synchronising hint
func TestSyncProgress_Note(t *testing.T) {
	active := SyncProgress{Reconciling: true, TotalFiles: 12, CompletedFiles: 5}
	assert.Equal(t, "index still synchronising: 5/12 files processed", active.Note())

	done := SyncProgress{Reconciling: false, TotalFiles: 12, CompletedFiles: 12}
	assert.Empty(t, done.Note())
}

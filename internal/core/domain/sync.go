package domain

import "fmt"

// SyncProgress reports the state of the startup reconciliation pass.
// It lives in memory only; queries read it to annotate results served
// while the index is still catching up with the vault.
type SyncProgress struct {
	// Reconciling is true while the startup pass is running.
	Reconciling bool

	// TotalFiles is the number of files the pass decided to process.
	TotalFiles int

	// CompletedFiles is the number of files processed so far,
	// including files that failed and were skipped.
	CompletedFiles int
}

// Note renders the progress as a short human-readable hint, or an
// empty string when reconciliation has finished.
func (p SyncProgress) Note() string {
	if !p.Reconciling {
		return ""
	}
	return fmt.Sprintf("index still synchronising: %d/%d files processed", p.CompletedFiles, p.TotalFiles)
}

package domain

// SearchOptions configures a similarity query.
type SearchOptions struct {
	// Limit is the maximum number of results. Zero means the default.
	Limit int

	// Folder restricts results to documents under this vault-relative
	// prefix. Empty matches everything.
	Folder string

	// MinScore drops results scoring below this threshold, in [0,1].
	// Zero keeps everything.
	MinScore float64

	// ExcludePaths removes specific documents from the results.
	ExcludePaths []string
}

// SearchResult represents a single query hit: the best-scoring passage
// of a document after filtering and per-document deduplication.
type SearchResult struct {
	// Path is the vault-relative path of the owning document.
	Path string

	// Title is the owning document's title.
	Title string

	// Section is the passage's heading label, if any.
	Section string

	// Preview is the passage's stored excerpt.
	Preview string

	// Position is the passage's ordinal within the document.
	Position int

	// Score is the bounded similarity in [0,1]; higher is closer.
	Score float64
}

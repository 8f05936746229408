package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/semdex/internal/core/domain"
)

var (
	searchLimit     int
	searchFolder    string
	searchThreshold float64
	searchExclude   []string
	searchJSON      bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the index",
	Long: `Runs a semantic similarity search over the indexed passages.
Each document appears at most once, represented by its best passage.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum number of results")
	searchCmd.Flags().StringVar(&searchFolder, "folder", "", "restrict results to this vault folder")
	searchCmd.Flags().Float64Var(&searchThreshold, "threshold", 0, "minimum similarity score in [0,1]")
	searchCmd.Flags().StringSliceVar(&searchExclude, "exclude", nil, "paths to leave out of the results")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	query := args[0]

	if queryService == nil {
		return errors.New("query service not configured")
	}

	opts := domain.SearchOptions{
		Limit:        searchLimit,
		Folder:       searchFolder,
		MinScore:     searchThreshold,
		ExcludePaths: searchExclude,
	}

	if searchJSON {
		results, progress, err := queryService.SearchRaw(cmd.Context(), query, opts)
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		return outputSearchJSON(cmd, results, progress)
	}

	out, err := queryService.Search(cmd.Context(), query, opts)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}
	cmd.Print(out)
	return nil
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult, progress domain.SyncProgress) error {
	payload := struct {
		Results []domain.SearchResult `json:"results"`
		Syncing bool                  `json:"syncing,omitempty"`
		Note    string                `json:"note,omitempty"`
	}{
		Results: results,
		Syncing: progress.Reconciling,
		Note:    progress.Note(),
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

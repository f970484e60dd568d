package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"health-rag/internal/domain"
)

type topicJSON struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
}

var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Search MedlinePlus health topics",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().Int("max", 3, "maximum number of topics")
	searchCmd.Flags().Bool("json", false, "output as JSON")
}

func runSearch(cmd *cobra.Command, args []string) error {
	maxResults, _ := cmd.Flags().GetInt("max")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	if maxResults <= 0 {
		return fmt.Errorf("--max must be positive, got %d", maxResults)
	}

	components, err := buildComponents()
	if err != nil {
		return err
	}

	docs := components.Source.Search(cmd.Context(), strings.Join(args, " "), maxResults)
	return printDocuments(cmd.OutOrStdout(), docs, jsonOutput)
}

func printDocuments(w io.Writer, docs []domain.Document, jsonOutput bool) error {
	if jsonOutput {
		topics := make([]topicJSON, len(docs))
		for i, doc := range docs {
			topics[i] = topicJSON{Title: doc.Title, Summary: doc.Summary, URL: doc.URL}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(topics)
	}

	if len(docs) == 0 {
		fmt.Fprintln(w, "No topics found.")
		return nil
	}
	for i, doc := range docs {
		fmt.Fprintf(w, "%d. %s\n   %s\n", i+1, doc.Title, doc.URL)
		if doc.Summary != "" {
			fmt.Fprintf(w, "   %s\n", doc.Summary)
		}
	}
	return nil
}

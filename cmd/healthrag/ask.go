package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	rag_http "health-rag/internal/adapter/rag_http"
	"health-rag/internal/usecase"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a health question",
	Long: `Answer one question from MedlinePlus health topics.

With --history-file the conversation is read from a JSON array of
"User: ..." / "Assistant: ..." turns and written back with the new turn.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().String("history-file", "", "JSON file holding the conversation history")
	askCmd.Flags().Bool("json", false, "print the full result as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	historyFile, _ := cmd.Flags().GetString("history-file")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	history, err := readHistory(historyFile)
	if err != nil {
		return err
	}

	components, err := buildComponents()
	if err != nil {
		return err
	}

	out, err := components.ChatUsecase.Execute(cmd.Context(), usecase.ChatInput{
		Question: strings.Join(args, " "),
		History:  history,
	})
	if err != nil {
		return err
	}

	if historyFile != "" {
		if err := writeHistory(historyFile, out.History); err != nil {
			return err
		}
	}

	return printAnswer(cmd.OutOrStdout(), out, jsonOutput)
}

func printAnswer(w io.Writer, out *usecase.ChatOutput, jsonOutput bool) error {
	if jsonOutput {
		contexts := make([]rag_http.ContextResponse, len(out.Contexts))
		for i, ref := range out.Contexts {
			contexts[i] = rag_http.ContextResponse{Title: ref.Title, URL: ref.URL}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rag_http.ChatResponse{
			Answer:    out.Answer,
			History:   out.History,
			Outcome:   out.Outcome,
			Queries:   out.Queries,
			Contexts:  contexts,
			RequestID: out.RequestID,
		})
	}

	fmt.Fprintln(w, out.Answer)
	if len(out.Contexts) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Sources:")
		for _, ref := range out.Contexts {
			fmt.Fprintf(w, "  - %s (%s)\n", ref.Title, ref.URL)
		}
	}
	return nil
}

// readHistory returns nil when path is empty or the file does not exist yet.
func readHistory(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var history []string
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("parse history %s: %w", path, err)
	}
	return history, nil
}

func writeHistory(path string, history []string) error {
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/wolfman30/patient-search-assistant/internal/patients"
)

var exitWords = map[string]struct{}{"exit": {}, "quit": {}, "bye": {}}

// newRootCommand builds the command tree. load runs once, before any
// subcommand, so tests can supply stub collaborators.
func newRootCommand(load func() (*app, error)) *cobra.Command {
	var a *app
	root := &cobra.Command{
		Use:          "patientbot",
		Short:        "Ask questions about patient records in plain English",
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			var err error
			a, err = load()
			return err
		},
	}

	chat := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.assistant == nil {
				return errChatDisabled
			}
			return runChat(cmd.Context(), a.assistant, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	ask := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.assistant == nil {
				return errChatDisabled
			}
			answer := a.assistant.ProcessQuery(cmd.Context(), strings.Join(args, " "))
			printBox(cmd.OutOrStdout(), answer)
			return nil
		},
	}

	var extractWithLLM bool
	extract := &cobra.Command{
		Use:   "extract <text>",
		Short: "Print the search filter extracted from text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := a.filterFor(cmd.Context(), strings.Join(args, " "), extractWithLLM)
			return printJSON(cmd.OutOrStdout(), filter)
		},
	}
	extract.Flags().BoolVar(&extractWithLLM, "llm", false, "extract with the LLM (falls back to the rules on failure)")

	var searchWithLLM bool
	search := &cobra.Command{
		Use:   "search <text>",
		Short: "Extract a filter, search, and print the patient table",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := a.filterFor(cmd.Context(), strings.Join(args, " "), searchWithLLM)
			return a.printResult(cmd.OutOrStdout(), a.searcher.Search(cmd.Context(), filter))
		},
	}
	search.Flags().BoolVar(&searchWithLLM, "llm", false, "extract with the LLM (falls back to the rules on failure)")

	get := &cobra.Command{
		Use:   "get <patient-id>",
		Short: "Print one patient by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.records.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return a.printResult(cmd.OutOrStdout(), res)
		},
	}

	root.AddCommand(chat, ask, extract, search, get)
	return root
}

func (a *app) filterFor(ctx context.Context, text string, useLLM bool) patients.SearchFilter {
	if useLLM {
		return a.extractor.ExtractWithLLM(ctx, text)
	}
	return a.extractor.ExtractManual(text)
}

func (a *app) printResult(w io.Writer, res patients.SearchResult) error {
	if !res.Success {
		return fmt.Errorf("search failed: %s", res.Message)
	}
	_, err := fmt.Fprintln(w, a.renderer.Render(res))
	return err
}

// runChat reads one question per line and answers it before reading the
// next. Blank lines are skipped; exit, quit or bye end the session.
func runChat(ctx context.Context, assistant asker, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Patient search assistant. Type 'exit' to quit.")
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, ok := exitWords[strings.ToLower(line)]; ok {
			fmt.Fprintln(out, "Goodbye!")
			return nil
		}
		printBox(out, assistant.ProcessQuery(ctx, line))
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

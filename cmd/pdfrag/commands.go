package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/pdfrag/internal/tui"
	"github.com/kailas-cloud/pdfrag/internal/version"
)

func ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file.pdf>...",
		Short: "Replace the corpus with the given PDF files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(envName, "")
			if err != nil {
				return err
			}
			defer a.close()

			paths := absPaths(args)
			if !a.corpus.ProcessDocuments(cmd.Context(), paths) {
				return errors.New("no text could be indexed from the given files")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d chunk(s) from %d document(s)\n",
				a.corpus.Len(), len(a.corpus.Paths()))
			return nil
		},
	}
}

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <file.pdf>",
		Short: "Drop a document from the corpus",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(envName, "")
			if err != nil {
				return err
			}
			defer a.close()

			path := absPaths(args)[0]
			if !a.corpus.RemoveFile(cmd.Context(), path) {
				return fmt.Errorf("failed to remove %s", path)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s, %d chunk(s) left\n", path, a.corpus.Len())
			return nil
		},
	}
}

type chatFlags struct {
	files    []string
	endpoint string
	model    string
}

func (f *chatFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.files, "file", "f", nil, "restrict to these documents (default: all indexed)")
	cmd.Flags().StringVar(&f.endpoint, "endpoint", "", "chat completion URL (default: completion.default_endpoint)")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "model name (default: completion.default_model)")
}

// resolve fills unset flags from config and the corpus.
func (f *chatFlags) resolve(a *app) (endpoint, model string, selected []string) {
	endpoint, model = f.endpoint, f.model
	if endpoint == "" {
		endpoint = a.cfg.Completion.DefaultEndpoint
	}
	if model == "" {
		model = a.cfg.Completion.DefaultModel
	}
	selected = absPaths(f.files)
	if len(selected) == 0 {
		selected = a.corpus.Paths()
	}
	return endpoint, model, selected
}

func askCmd() *cobra.Command {
	var flags chatFlags

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the answer with its sources",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(envName, "")
			if err != nil {
				return err
			}
			defer a.close()

			endpoint, model, selected := flags.resolve(a)
			if len(selected) == 0 {
				return errors.New("no documents indexed, run ingest first")
			}

			answer := a.chat.Chat(cmd.Context(), strings.Join(args, " "), endpoint, model, selected)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, tui.PlainText(answer.Answer))
			if len(answer.Sources) > 0 {
				fmt.Fprintln(out)
				fmt.Fprintln(out, tui.RenderSources(answer.Sources))
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func chatCmd() *cobra.Command {
	var flags chatFlags

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive terminal chat over the indexed documents",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(envName, "pdfrag.log")
			if err != nil {
				return err
			}
			defer a.close()

			endpoint, model, selected := flags.resolve(a)
			if len(selected) == 0 {
				return errors.New("no documents indexed, run ingest first")
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			m := tui.New(ctx, a.chat, tui.Options{
				Endpoint: endpoint,
				Model:    model,
				Selected: selected,
				Summary:  fmt.Sprintf("%d chunk(s), model %s at %s", a.corpus.Len(), model, endpoint),
			})
			if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
				return fmt.Errorf("run chat ui: %w", err)
			}
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func pagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pages <file.pdf>...",
		Short: "Print the page count of each PDF",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(envName, "")
			if err != nil {
				return err
			}
			defer a.close()

			for _, p := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", a.pdf.PageCount(p), p)
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

func absPaths(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		out = append(out, p)
	}
	return out
}

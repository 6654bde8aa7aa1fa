package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"evolve/internal/domain"
	"evolve/internal/service"
	"evolve/internal/tui"
)

var (
	askLevel string
	askTopK  int
	askJSON  bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the knowledge base",
	Long: `Retrieves the closest chunks and answers in the voice of the chosen
program level. Without a question it opens the interactive browser.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askLevel, "level", "", "program level filter and persona")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of chunks to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full response as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if askLevel != "" && !domain.IsProgramLevel(askLevel) {
		return fmt.Errorf("invalid level %q: must be one of %v", askLevel, domain.ProgramLevels)
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.close()

	if len(args) == 0 {
		level := askLevel
		if level == "" {
			level = cfg.Retrieval.DefaultProgramLevel
		}
		m := tui.New(a.svc, level, secs(cfg.Server.TimeoutSecs))
		_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	}

	res, err := a.svc.Query(ctx, service.QueryRequest{
		Question:     strings.Join(args, " "),
		ProgramLevel: askLevel,
		TopK:         askTopK,
	})
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}
	out := cmd.OutOrStdout()
	if askJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	fmt.Fprintln(out, res.Answer)
	if len(res.Sources) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Sources:")
		for i, s := range res.Sources {
			fmt.Fprintf(out, "  [%d] %s (%s) score=%.3f\n", i+1, s.Title, s.Source, s.Score)
		}
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"codenav/internal/app"
	"codenav/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var (
	flagServer string
	flagConfig string
)

func loadConfig() (app.Config, error) {
	path := flagConfig
	if path == "" {
		path = app.DefaultConfigPath()
	}
	cfg, err := app.LoadConfig(path)
	if err != nil {
		return cfg, err
	}
	if flagServer != "" {
		cfg.ServerURL = flagServer
	} else if env := os.Getenv("CODENAV_SERVER_URL"); env != "" {
		cfg.ServerURL = env
	}
	return cfg, nil
}

func newClient(cfg app.Config) *app.Client {
	return app.NewClient(cfg.ServerURL, cfg.RequestTimeout())
}

// signalContext is cancelled on SIGINT/SIGTERM so a waiting poll loop can
// be abandoned cleanly.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()
	return ctx, cancel
}

func printSummary(sum app.IndexSummary) {
	fmt.Printf("Status: %s\n", sum.Status)
	if sum.Repo != "" {
		fmt.Printf("Repository: %s\n", sum.Repo)
	}
	if sum.Files != nil && sum.Chunks != nil {
		fmt.Printf("Indexed: %d files, %d chunks\n", *sum.Files, *sum.Chunks)
	}
	if sum.Detail != "" {
		fmt.Printf("Detail: %s\n", sum.Detail)
	}
}

func main() {
	root := &cobra.Command{
		Use:     "codenav",
		Short:   "Terminal client for a code-RAG index service",
		Long:    "codenav indexes a repository through a remote code-RAG service, answers natural-language questions about it, and tracks risk analytics over every snippet seen.\n\nRun without arguments for the TUI, or use the subcommands for one-shot operations.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			logger := app.NewFileLogger(cfg.LogFile)
			p := tea.NewProgram(tui.New(cfg, newClient(cfg), logger), tea.WithAltScreen())
			if _, err := p.Run(); err != nil {
				return err
			}
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&flagServer, "server", "s", "", "index service base URL (overrides config and CODENAV_SERVER_URL)")
	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to config file (default: ~/.config/codenav/config.yml)")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Print the service's current index status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			sum, err := newClient(cfg).Status(ctx)
			if err != nil {
				return err
			}
			printSummary(sum)
			return nil
		},
	}
	root.AddCommand(statusCmd)

	indexCmd := &cobra.Command{
		Use:   "index <path>",
		Short: "Index a repository and wait for completion",
		Long:  "Ask the service to index the repository at <path>, then poll the status until the job reaches a terminal state.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			client := newClient(cfg)
			session := app.NewSession()
			path, epoch, err := session.StartIndex(args[0])
			if err != nil {
				return err
			}

			sum, err := client.Index(ctx, path)
			if err != nil {
				session.ApplyStatusError(epoch, err)
				return err
			}
			session.ApplySummary(epoch, sum)
			fmt.Println("Indexing started.")

			if sum.Status == app.StatusIndexing {
				poller := app.NewPoller(client, cfg.PollInterval())
				err = poller.Run(ctx, func(next app.IndexSummary) bool {
					applied, _ := session.ApplySummary(epoch, next)
					if applied && next.Status == app.StatusIndexing {
						fmt.Println("Indexing…")
					}
					return applied
				})
				if err != nil && ctx.Err() == nil {
					return err
				}
			}

			printSummary(session.Summary)
			if session.Summary.Status == app.StatusError {
				return fmt.Errorf("indexing failed: %s", session.Summary.Detail)
			}
			return nil
		},
	}
	root.AddCommand(indexCmd)

	askCmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question against the indexed repository",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()

			client := newClient(cfg)
			session := app.NewSession()

			sum, err := client.Status(ctx)
			if err != nil {
				return err
			}
			session.ApplySummary(session.Epoch(), sum)

			session.Question = args[0]
			question, err := session.BeginQuestion()
			if err != nil {
				return err
			}

			resp, err := client.Ask(ctx, question)
			if err != nil {
				return err
			}
			entry := session.ApplyAnswer(question, resp)

			fmt.Println(entry.Answer)
			for i, sn := range entry.Results {
				fmt.Printf("\n%d. %s L%d-%d  risk %d (%s)\n", i+1, sn.File, sn.LineStart, sn.LineEnd, sn.Risk.Score, sn.Risk.Reason)
				fmt.Println(sn.Content)
			}

			risk := app.Aggregate(session.AllSnippets())
			fmt.Printf("\nRisk: %d low / %d medium / %d high (%d%%/%d%%/%d%%)\n",
				risk.Counts.Low, risk.Counts.Medium, risk.Counts.High,
				risk.LowPct, risk.MediumPct, risk.HighPct)
			return nil
		},
	}
	root.AddCommand(askCmd)

	filesCmd := &cobra.Command{
		Use:   "files",
		Short: "List the indexed repository's files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			files, err := newClient(cfg).Files(ctx)
			if err != nil {
				return err
			}
			for _, f := range files {
				fmt.Println(f)
			}
			return nil
		},
	}
	root.AddCommand(filesCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

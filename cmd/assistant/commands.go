// cmd/assistant/commands.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"resource-scheduling/internal/assistant"
	"resource-scheduling/internal/common/config"
	"resource-scheduling/internal/common/logger"
	"resource-scheduling/internal/common/observability"
	"resource-scheduling/internal/store"
	"resource-scheduling/internal/textgen"
)

type rootOptions struct {
	configPath string
	today      string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "assistant",
		Short:         "Answer questions about meeting data in plain language",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, opts)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config.yaml (default: search ./configs)")
	root.PersistentFlags().StringVar(&opts.today, "today", "", "reference date for relative expressions (YYYY-MM-DD)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		&cobra.Command{
			Use:   "chat",
			Short: "Start an interactive session (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runChat(cmd, opts)
			},
		},
		&cobra.Command{
			Use:   "ask [question]",
			Short: "Answer a single question and exit",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAsk(cmd, opts, strings.Join(args, " "))
			},
		},
		&cobra.Command{
			Use:   "resolve [question]",
			Short: "Print the intent, filters and query a question compiles to, without running it",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runResolve(cmd, opts, strings.Join(args, " "))
			},
		},
	)

	return root
}

func (o *rootOptions) load() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromFile(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	return cfg, nil
}

func (o *rootOptions) clock() (func() time.Time, error) {
	if o.today == "" {
		return time.Now, nil
	}
	day, err := time.ParseInLocation("2006-01-02", o.today, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --today %q: %w", o.today, err)
	}
	return func() time.Time { return day }, nil
}

// session bundles an assistant with the resources it owns.
type session struct {
	assistant *assistant.Assistant
	backend   *store.Backend
	obs       *observability.Observability
	zap       *zap.Logger
}

func (s *session) close(ctx context.Context) {
	if s.backend != nil {
		s.backend.Close()
	}
	if s.obs != nil {
		s.obs.Shutdown(ctx)
	}
	s.zap.Sync()
}

func openSession(opts *rootOptions) (*session, error) {
	cfg, err := opts.load()
	if err != nil {
		return nil, err
	}
	now, err := opts.clock()
	if err != nil {
		return nil, err
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.NewZapAdapter(zapLog)
	s := &session{zap: zapLog}

	s.obs, err = observability.New("assistant")
	if err != nil {
		s.close(context.Background())
		return nil, fmt.Errorf("observability init failed: %w", err)
	}

	s.backend, err = store.FromConfig(*cfg, log)
	if err != nil {
		s.close(context.Background())
		return nil, fmt.Errorf("open %s store: %w", cfg.Database.Backend, err)
	}

	s.assistant = assistant.New(
		assistant.ConfigFrom(cfg.Assistant),
		s.backend.Store,
		textgen.NewOllamaClient(cfg.TextGen, log),
		log,
		assistant.WithClock(now),
		assistant.WithRecorder(s.obs),
	)
	return s, nil
}

func runChat(cmd *cobra.Command, opts *rootOptions) error {
	s, err := openSession(opts)
	if err != nil {
		return err
	}
	defer s.close(context.Background())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return assistant.NewSession(s.assistant, cmd.InOrStdin(), cmd.OutOrStdout()).Run(ctx)
}

func runAsk(cmd *cobra.Command, opts *rootOptions, question string) error {
	s, err := openSession(opts)
	if err != nil {
		return err
	}
	defer s.close(context.Background())

	result, err := s.assistant.ProcessTurn(cmd.Context(), question)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Reply())
	return nil
}

// runResolve needs neither the store nor the text generator.
func runResolve(cmd *cobra.Command, opts *rootOptions, question string) error {
	cfg, err := opts.load()
	if err != nil {
		return err
	}
	now, err := opts.clock()
	if err != nil {
		return err
	}

	a := assistant.New(assistant.ConfigFrom(cfg.Assistant), nil, nil, logger.NewNoOpLogger(), assistant.WithClock(now))
	analysis, err := a.Analyze(question)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(analysis)
}

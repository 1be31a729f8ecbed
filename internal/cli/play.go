package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"history-quiz/internal/app"
	"history-quiz/internal/config"
	"history-quiz/internal/infra/memory"
	"history-quiz/internal/tui"
)

// NewPlayCmd plays the quiz in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play the quiz in this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), *configPath, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

func runPlay(ctx context.Context, configPath string, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	b, err := connectBackends(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	banks, err := b.bankRepository(cfg)
	if err != nil {
		return err
	}
	bank, err := loadBank(ctx, banks, cfg.Quiz.Bank)
	if err != nil {
		return err
	}

	service := app.NewQuizService(memory.NewSessionStore(), banks, app.WithCountdown(cfg.Quiz.Countdown))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tui.New(bank.Title, bank.ID, service, in, out).Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

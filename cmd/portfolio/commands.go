package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"portfolio-chat/internal/adapter/memory"
	"portfolio-chat/internal/adapter/openai"
	"portfolio-chat/internal/adapter/telegram"
	"portfolio-chat/internal/adapter/web"
	"portfolio-chat/internal/config"
	"portfolio-chat/internal/content"
	"portfolio-chat/internal/usecase/chat"
)

type app struct {
	envFile string

	cfg     config.Config
	log     *slog.Logger
	cleanup func() error
	chat    *chat.Service
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{}

	root := &cobra.Command{
		Use:           "portfolio",
		Short:         "Personal portfolio with a chat assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.envFile, "env", ".env", "path to a .env file")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Serve the portfolio over HTTP (and Telegram when configured)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "ask <question>",
		Short: "Ask the assistant one question and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.ask(cmd, strings.Join(args, " "))
		},
	})
	return root, a
}

// execute runs root and releases what init opened, whether or not the
// command failed.
func execute(root *cobra.Command, a *app) error {
	err := root.Execute()
	if cerr := a.close(); err == nil {
		err = cerr
	}
	return err
}

func (a *app) close() error {
	if a.cleanup == nil {
		return nil
	}
	err := a.cleanup()
	a.cleanup = nil
	return err
}

func (a *app) init() error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg
	a.log, a.cleanup = config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	for _, w := range cfg.Warnings {
		a.log.Warn(w)
	}
	if cfg.CredentialSource != "" {
		a.log.Info("openai credential loaded", "source", cfg.CredentialSource)
	}

	client := openai.NewClient(cfg.OpenAIKey, cfg.OpenAIBaseURL)
	store := memory.NewStore(cfg.Greeting)
	a.chat = chat.NewService(store, client, cfg, a.log)
	return nil
}

func (a *app) serve(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	portfolio, err := content.Load(a.cfg.ContentFile)
	if err != nil {
		return err
	}

	srv, err := web.NewServer(a.cfg, a.chat, portfolio, a.log)
	if err != nil {
		return err
	}

	errs := make(chan error, 2)
	go func() { errs <- srv.Listen(":" + a.cfg.Port) }()

	if a.cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(a.cfg, a.chat, portfolio, a.log)
		if err != nil {
			_ = srv.Shutdown()
			return err
		}
		go func() { errs <- bot.Run(ctx) }()
	}

	select {
	case <-ctx.Done():
		a.log.Info("shutting down")
		return srv.Shutdown()
	case err := <-errs:
		cancel()
		_ = srv.Shutdown()
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

func (a *app) ask(cmd *cobra.Command, question string) error {
	reply, err := a.chat.HandleMessage(cmd.Context(), uuid.NewString(), question)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}

package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/kmf-ai/server/assets"
	"github.com/kmf-ai/server/internal/agent"
	"github.com/kmf-ai/server/internal/functions"
	"github.com/kmf-ai/server/internal/handler"
	"github.com/kmf-ai/server/internal/llm"
	"github.com/kmf-ai/server/internal/logging"
	"github.com/kmf-ai/server/internal/repository"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the chat HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.shutdown(context.Background())

			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	var store repository.QuestionRepository = a.store
	if a.cfg.Redis.Enabled() {
		client, err := a.cfg.Redis.New(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		store = repository.Cached(store, repository.NewRedisCache(client), a.cfg.Redis.TTL, logging.Component(a.logger, "cache"))
		a.logger.Info().Dur("ttl", a.cfg.Redis.TTL).Msg("metadata cache enabled")
	}
	// FailSoft sits outside the cache: empty fallbacks must never be cached.
	store = repository.FailSoft(store, logging.Component(a.logger, "store"))

	registry, err := functions.NewExamRegistry(store, a.limits())
	if err != nil {
		return err
	}

	gateway, err := llm.New(ctx, a.gatewayConfig(), registry.Specs())
	if err != nil {
		return err
	}

	runner := agent.New(gateway, registry, agent.Config{
		SystemInstruction: assets.SystemInstruction,
		MaxRounds:         a.cfg.Chat.MaxRounds,
		ChunkDelay:        a.cfg.Chat.ChunkDelay,
	}, logging.Component(a.logger, "agent"))

	if a.cfg.Environment().IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr: ":" + a.cfg.HTTP.Port,
		Handler: handler.NewRouter(handler.Deps{
			Runner:   runner,
			Store:    store,
			APIToken: a.cfg.HTTP.APIToken,
			Logger:   logging.Component(a.logger, "http"),
		}),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", srv.Addr).Str("provider", a.cfg.Model.Provider).Int("tools", len(registry.Names())).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func (a *app) gatewayConfig() llm.Config {
	m := a.cfg.Model
	cfg := llm.Config{
		Provider:    m.Provider,
		Model:       m.Name,
		Temperature: m.Temperature,
		APIKey:      m.GeminiAPIKey,
	}
	if m.Provider == llm.ProviderOpenAI {
		cfg.APIKey = m.OpenAIAPIKey
		cfg.BaseURL = m.OpenAIBaseURL
	}
	return cfg
}

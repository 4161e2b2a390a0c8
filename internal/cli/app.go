package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kmf-ai/server/internal/config"
	"github.com/kmf-ai/server/internal/functions"
	"github.com/kmf-ai/server/internal/logging"
	"github.com/kmf-ai/server/internal/repository"
)

// app holds what every command needs: configuration, a logger and the
// question store.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	store  repository.QuestionRepository
	writer repository.QuestionWriter
	close  func(context.Context) error
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty || !cfg.Environment().IsProduction(),
		Output: os.Stderr,
	})

	a := &app{cfg: cfg, logger: logger, close: func(context.Context) error { return nil }}
	if err := a.openStore(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	log := logging.Component(a.logger, "store")

	switch a.cfg.Store.Driver {
	case config.StoreMemory:
		store := repository.NewMemoryQuestionRepository(a.cfg.Store.SearchPerSubject)
		if a.cfg.Store.Fixture != "" {
			loaded, err := repository.LoadMemoryQuestionRepository(a.cfg.Store.Fixture, a.cfg.Store.SearchPerSubject)
			if err != nil {
				return err
			}
			store = loaded
		}
		log.Info().Str("fixture", a.cfg.Store.Fixture).Msg("using in-memory question store")
		a.store, a.writer = store, store
		return nil

	case config.StoreMongo:
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(a.cfg.Store.URI))
		if err != nil {
			return fmt.Errorf("connect mongodb: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			_ = client.Disconnect(ctx)
			return fmt.Errorf("ping mongodb: %w", err)
		}

		log.Info().Str("database", a.cfg.Store.Database).Msg("connected to mongodb")
		store := repository.NewMongoQuestionRepository(client.Database(a.cfg.Store.Database), a.cfg.Store.SearchPerSubject)
		a.store, a.writer = store, store
		a.close = client.Disconnect
		return nil
	}

	return fmt.Errorf("unknown store driver %q", a.cfg.Store.Driver)
}

// limits maps the tool configuration onto the registry's limits.
func (a *app) limits() functions.Limits {
	t := a.cfg.Tools
	return functions.Limits{
		SubjectLimit:      t.SubjectLimit,
		TopicLimit:        t.TopicLimit,
		DifficultyLimit:   t.DifficultyLimit,
		FormLimit:         t.FormLimit,
		SearchLimit:       t.SearchLimit,
		SubjectTextLen:    t.SubjectTextLen,
		YearTextLen:       t.YearTextLen,
		PaperTextLen:      t.PaperTextLen,
		TopicTextLen:      t.TopicTextLen,
		DifficultyTextLen: t.DifficultyTextLen,
		FormTextLen:       t.FormTextLen,
		SearchTextLen:     t.SearchTextLen,
	}
}

func (a *app) shutdown(ctx context.Context) {
	if err := a.close(ctx); err != nil {
		a.logger.Warn().Err(err).Msg("closing question store")
	}
}

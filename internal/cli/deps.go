package cli

import (
	"context"
	"fmt"
	"log"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/postgenhq/postgen/internal/config"
	"github.com/postgenhq/postgen/llm"
	"github.com/postgenhq/postgen/observe"
	otelsink "github.com/postgenhq/postgen/observe/otel"
	"github.com/postgenhq/postgen/providers/openai"
	"github.com/postgenhq/postgen/state"
	redisstore "github.com/postgenhq/postgen/state/redis"
	sqlitestore "github.com/postgenhq/postgen/state/sqlite"
)

func buildProvider(opts cliOptions, cfg config.Config) (llm.Provider, error) {
	apiKey := opts.apiKey
	if apiKey == "" {
		apiKey = config.EnvOr("OPENAI_API_KEY", "")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("no API key: pass --api-key= or set OPENAI_API_KEY")
	}

	model := opts.model
	if model == "" {
		model = cfg.Model
	}
	clientOpts := []openai.Option{}
	if model != "" {
		clientOpts = append(clientOpts, openai.WithModel(model))
	}
	return openai.New(apiKey, clientOpts...)
}

func buildStore(cfg config.StoreConfig) (state.Store, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		return sqlitestore.New(cfg.Path)
	case "redis":
		return redisstore.New(cfg.Addr,
			redisstore.WithPassword(cfg.Password),
			redisstore.WithDB(cfg.DB),
		)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

func buildObserver() (observe.Sink, func()) {
	if !config.ParseBoolString(config.EnvOr("POSTGEN_OBSERVE_ENABLED", ""), true) {
		return observe.NoopSink{}, func() {}
	}

	tp := sdktrace.NewTracerProvider()
	async := observe.NewAsyncSink(otelsink.NewSink(tp), 256)
	return async, func() {
		async.Close()
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("tracer shutdown failed: %v", err)
		}
	}
}

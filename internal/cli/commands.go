package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/postgenhq/postgen/api"
	apppost "github.com/postgenhq/postgen/app/post"
	"github.com/postgenhq/postgen/graph"
	"github.com/postgenhq/postgen/internal/config"
	"github.com/postgenhq/postgen/state"
	"github.com/postgenhq/postgen/tools"

	graphspost "github.com/postgenhq/postgen/graphs/post"
)

func runGenerate(ctx context.Context, args []string) {
	opts, positional := parseArgs(args)
	title := normalizeInput(positional)
	if title == "" {
		log.Fatal("paper title cannot be empty")
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Fatal(err)
	}

	provider, err := buildProvider(opts, cfg)
	if err != nil {
		log.Fatal(err)
	}
	store, err := buildStore(cfg.Store)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore(store)
	observer, closeObserver := buildObserver()
	defer closeObserver()

	pattern := opts.pattern
	if pattern == "" {
		pattern = cfg.Pattern
	}
	var advisor graph.Advisor
	if pattern == graphspost.SupervisedName {
		advisor = &apppost.LLMAdvisor{Provider: provider, Model: opts.model}
	}

	service, err := apppost.NewService(apppost.Config{
		Pattern:       pattern,
		Provider:      provider,
		Model:         opts.model,
		Advisor:       advisor,
		Observer:      observer,
		Store:         store,
		SessionID:     opts.sessionID,
		MaxIterations: cfg.MaxIterations,
	})
	if err != nil {
		log.Fatalf("failed to create service: %v", err)
	}

	record := service.Generate(ctx, title)
	if opts.asJSON {
		printJSON(record)
	} else {
		printRecord(record)
	}
	if record.Failed() {
		os.Exit(1)
	}
}

func runServe(ctx context.Context, args []string) {
	opts, _ := parseArgs(args)

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Fatal(err)
	}
	addr := opts.addr
	if addr == "" {
		addr = cfg.Addr
	}
	pattern := opts.pattern
	if pattern == "" {
		pattern = cfg.Pattern
	}
	model := opts.model
	if model == "" {
		model = cfg.Model
	}

	store, err := buildStore(cfg.Store)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore(store)
	observer, closeObserver := buildObserver()
	defer closeObserver()

	server := api.NewServer(api.Config{
		Addr:           addr,
		DefaultPattern: pattern,
		Model:          model,
		Store:          store,
		Observer:       observer,
		MaxIterations:  cfg.MaxIterations,
		FallbackAPIKey: config.EnvOr("OPENAI_API_KEY", ""),
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server failed: %v", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown failed: %v", err)
		}
	}
}

func listRuns(ctx context.Context, args []string) {
	opts, positional := parseArgs(args)
	sessionID := opts.sessionID
	if sessionID == "" && len(positional) > 0 {
		sessionID = strings.TrimSpace(positional[0])
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		log.Fatal(err)
	}
	store, err := buildStore(cfg.Store)
	if err != nil {
		log.Fatal(err)
	}
	if store == nil {
		log.Fatal("no store configured; set store.driver in the config file")
	}
	defer closeStore(store)

	runs, err := store.ListRuns(ctx, state.ListRunsQuery{
		SessionID: sessionID,
		Pattern:   opts.pattern,
		Limit:     100,
	})
	if err != nil {
		log.Fatalf("list runs failed: %v", err)
	}
	if opts.asJSON {
		printJSON(runs)
		return
	}
	for _, run := range runs {
		completed := "-"
		if run.CompletedAt != nil {
			completed = run.CompletedAt.UTC().Format(time.RFC3339)
		}
		fmt.Printf("%s\t%s\t%s\t%s\t%s\n", run.RunID, run.Pattern, run.Status, completed, run.Title)
	}
}

func listPatterns() {
	fmt.Println("available workflow patterns:")
	fmt.Printf("  %-12s fixed research -> summarize -> draft -> verify pipeline\n", graphspost.LinearName)
	fmt.Printf("  %-12s adaptive routing with deterministic fallback (default)\n", graphspost.SupervisedName)
}

func listTools() {
	fmt.Println("registered tools:")
	for _, name := range tools.Names() {
		fmt.Printf("  %-16s %s\n", name, tools.Describe(name))
	}
}

func printRecord(record apppost.RunRecord) {
	if record.Failed() {
		fmt.Printf("generation failed: %s\n", record.Diagnostics.ErrorMessage)
		for _, s := range record.Diagnostics.RecoverySuggestions {
			fmt.Printf("  - %s\n", s)
		}
		return
	}
	fmt.Printf("run:       %s (%s)\n", record.RunID, record.WorkflowPattern)
	fmt.Printf("title:     %s\n", record.Title)
	fmt.Printf("revisions: %d, verify: %s, quality: %.2f\n",
		record.RevisionCount, record.VerifyResult, record.Quality.OverallQuality)
	fmt.Println()
	fmt.Println(record.Post)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("failed to encode output: %v", err)
	}
	fmt.Println(string(data))
}

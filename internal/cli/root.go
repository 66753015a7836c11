// Package cli implements the postgen command line: one-shot generation,
// the HTTP server, and run auditing.
package cli

import (
	"context"
	"strings"

	"github.com/joho/godotenv"
)

func Run(ctx context.Context, args []string) {
	// Local development convenience; missing .env files are fine.
	_ = godotenv.Load()

	if len(args) < 1 {
		printUsage()
		return
	}

	switch strings.TrimSpace(args[0]) {
	case "generate":
		runGenerate(ctx, args[1:])
	case "serve":
		runServe(ctx, args[1:])
	case "runs":
		listRuns(ctx, args[1:])
	case "patterns":
		listPatterns()
	case "tools":
		listTools()
	case "help", "-h", "--help":
		printUsage()
	default:
		// Bare invocation treats the arguments as a paper title.
		runGenerate(ctx, args)
	}
}

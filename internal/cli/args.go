package cli

import (
	"log"
	"strings"

	"github.com/postgenhq/postgen/state"
)

type cliOptions struct {
	configPath string
	pattern    string
	model      string
	sessionID  string
	apiKey     string
	addr       string
	asJSON     bool
}

func parseArgs(args []string) (cliOptions, []string) {
	opts := cliOptions{}
	positional := make([]string, 0, len(args))
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--config="):
			opts.configPath = strings.TrimSpace(strings.TrimPrefix(arg, "--config="))
		case strings.HasPrefix(arg, "--pattern="):
			opts.pattern = strings.TrimSpace(strings.TrimPrefix(arg, "--pattern="))
		case strings.HasPrefix(arg, "--model="):
			opts.model = strings.TrimSpace(strings.TrimPrefix(arg, "--model="))
		case strings.HasPrefix(arg, "--session="):
			opts.sessionID = strings.TrimSpace(strings.TrimPrefix(arg, "--session="))
		case strings.HasPrefix(arg, "--api-key="):
			opts.apiKey = strings.TrimSpace(strings.TrimPrefix(arg, "--api-key="))
		case strings.HasPrefix(arg, "--addr="):
			opts.addr = strings.TrimSpace(strings.TrimPrefix(arg, "--addr="))
		case arg == "--json":
			opts.asJSON = true
		default:
			positional = append(positional, arg)
		}
	}
	return opts, positional
}

func normalizeInput(args []string) string {
	if len(args) > 0 && strings.TrimSpace(args[0]) == "--" {
		args = args[1:]
	}
	return strings.TrimSpace(strings.Join(args, " "))
}

func closeStore(store state.Store) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		log.Printf("state store close failed: %v", err)
	}
}

package cli

import (
	"fmt"
	"strings"

	"github.com/postgenhq/postgen/workflow"
)

func printUsage() {
	fmt.Println("postgen - turn a paper title into a vetted social post")
	fmt.Println("Usage:")
	fmt.Println("  postgen generate [--pattern=supervised] [--model=gpt-4o] [--json] -- \"paper title\"")
	fmt.Println("  postgen serve [--addr=127.0.0.1:8000] [--config=postgen.yaml]")
	fmt.Println("  postgen runs [--session=ID] [--pattern=NAME] [--json]")
	fmt.Println("  postgen patterns")
	fmt.Println("  postgen tools")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config=PATH      YAML config file (addr, pattern, model, store)")
	fmt.Println("  --pattern=NAME     Workflow pattern")
	fmt.Println("  --model=NAME       OpenAI model override")
	fmt.Println("  --session=ID       Session identifier for run grouping")
	fmt.Println("  --api-key=KEY      OpenAI API key (overrides OPENAI_API_KEY)")
	fmt.Println("  --json             Emit JSON instead of formatted text")
	fmt.Println()
	fmt.Printf("  available patterns: %s\n", strings.Join(workflow.Names(), ", "))
	fmt.Println()
	fmt.Println("Environment Variables:")
	fmt.Println("  OPENAI_API_KEY            API key used when --api-key is not given")
	fmt.Println("  POSTGEN_OBSERVE_ENABLED   Set to false to disable tracing")
	fmt.Println("  POSTGEN_MAX_ITERATIONS    Iteration ceiling override")
}

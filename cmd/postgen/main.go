package main

import (
	"context"
	"os"

	"github.com/postgenhq/postgen/internal/cli"
)

func main() {
	cli.Run(context.Background(), os.Args[1:])
}

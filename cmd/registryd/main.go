// Command registryd runs the service registry and discovery API.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/kestrel-dev/serviceatlas/engine"
)

func main() {
	ctx := context.Background()

	e, err := engine.New(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize: %v\n", err)
		os.Exit(1)
	}

	if err := e.Init(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to start modules: %v\n", err)
		os.Exit(1)
	}

	if err := e.Run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

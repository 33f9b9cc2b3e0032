package main

import (
	"context"
	"fmt"
	"os"

	commands "github.com/lewisedginton/ai_assistant_api/internal/cli"
	"github.com/lewisedginton/ai_assistant_api/internal/monitoring"
)

func main() {
	app := commands.NewApp(monitoring.Version)
	if err := app.RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

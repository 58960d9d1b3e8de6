// Package main is the entry point for the Vigil alert engine.
package main

import (
	"context"
	"fmt"
	"os"

	"vigil/bootstrap"
	"vigil/cmd"
)

// run initializes and starts the alert engine server.
func run() error {
	ctx := context.Background()

	app, err := bootstrap.NewApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.Start(); err != nil {
		app.Shutdown()
		return fmt.Errorf("failed to start application: %w", err)
	}

	err = app.WaitForShutdown()
	app.Shutdown()
	return err
}

// main dispatches to CLI subcommands or runs the server.
func main() {
	if len(os.Args) > 1 {
		var sub func() error
		switch os.Args[1] {
		case "notify":
			sub = func() error {
				os.Args = append([]string{os.Args[0]}, os.Args[2:]...)
				return cmd.NewNotifyCmd().Execute()
			}
		case "rules":
			sub = func() error {
				os.Args = append([]string{os.Args[0]}, os.Args[2:]...)
				return cmd.NewRulesCmd().Execute()
			}
		}
		if sub != nil {
			if err := sub(); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

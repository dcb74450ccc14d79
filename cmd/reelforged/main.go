// Command reelforged runs the reelforge HTTP daemon.
//
// The configuration path comes from REELFORGE_CONFIG, falling back to the
// default search locations. A .env file in the working directory is loaded
// first when present.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"reelforge/internal/config"
	"reelforge/internal/daemonrun"
)

func main() {
	if err := run(context.Background()); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if err := loadEnvFile(".env"); err != nil {
		return err
	}
	cfg, _, _, err := config.Load(strings.TrimSpace(os.Getenv("REELFORGE_CONFIG")))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return daemonrun.Run(ctx, cfg, daemonrun.Options{
		LogLevel: os.Getenv("REELFORGE_LOG_LEVEL"),
	})
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

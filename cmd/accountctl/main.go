package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aussiebroadwan/eventpass/internal/accounts/app"
	"github.com/aussiebroadwan/eventpass/internal/accounts/cli"
	"github.com/aussiebroadwan/eventpass/internal/accounts/service"
	"github.com/aussiebroadwan/eventpass/pkg/slogx"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := app.LoadConfig()

	// Command output goes to stdout, logs stay on stderr.
	logger := slogx.New(slogx.Config{
		Service: "accountctl",
		Version: app.BuildVersion,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  "text",
		Output:  os.Stderr,
	})

	st, err := app.OpenStore(cfg, logger)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	hasher, err := app.NewPasswordHasher(cfg)
	if err != nil {
		log.Fatalf("failed to initialize password hasher: %v", err)
	}

	runner := &cli.Runner{
		Accounts: &service.AccountService{Store: st, Hasher: hasher},
		Out:      os.Stdout,
		Err:      os.Stderr,
	}

	if err := runner.Run(ctx, os.Args[1:]); err != nil {
		code := 1
		if errors.Is(err, cli.ErrUsage) {
			code = 2
		} else {
			log.Printf("accountctl: %v", err)
		}
		st.Close()
		stop()
		os.Exit(code)
	}
}

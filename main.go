/*
main.go

This file is part of InfraStack.
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TecnoSoul/InfraStack/cmd"
	"github.com/TecnoSoul/InfraStack/pkg/logger"
	"github.com/TecnoSoul/InfraStack/pkg/shared"
	"github.com/TecnoSoul/InfraStack/pkg/telemetry"
	"go.uber.org/zap"
)

func main() {
	log := logger.Initialize(logger.Options{})
	if err := telemetry.Init(shared.BinaryName); err != nil {
		fmt.Fprintln(os.Stderr, "warning: telemetry disabled:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cmd.Execute(ctx)
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		log.Debug("Telemetry shutdown failed", zap.Error(err))
	}
	cancel()
	_ = logger.Sync()

	os.Exit(code)
}

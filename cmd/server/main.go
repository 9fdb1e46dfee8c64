package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qrquad/internal/api"
	"qrquad/internal/app"
	"qrquad/internal/config"
	"qrquad/internal/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	env, err := config.ParseEnv()
	if err != nil {
		return err
	}
	logger, err := utils.NewLogger(env.LogPath, env.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Close()

	rt, err := app.New(env, logger.Logger)
	if err != nil {
		return err
	}
	srv := api.NewServer(api.Deps{
		Settings:    rt.Settings,
		Dispatcher:  rt.Dispatcher,
		Journal:     rt.Journal,
		Metrics:     rt.Metrics,
		Logger:      logger.Logger,
		IntakeToken: env.IntakeToken,
		IdleTimeout: env.SessionIdle,
	})
	httpServer := &http.Server{
		Addr:              env.HTTPAddr,
		Handler:           api.NewRouter(srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server running", "addr", env.HTTPAddr, "settings", rt.Settings.Path())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	srv.CancelAll()
	rt.Dispatcher.Wait()
	return nil
}

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

	"civicreport/config"
	"civicreport/controllers"
	"civicreport/issues"
	"civicreport/routes"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := config.NewLogger(cfg.Environment)

	policy, err := issues.ParseTransitionPolicy(cfg.StatusPolicy)
	if err != nil {
		return err
	}

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	b, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer b.Close(context.Background())

	router := routes.NewRouter(routes.Options{
		Deps: controllers.Deps{
			Issues:       b.Store,
			Users:        b.Store,
			Sessions:     b.Sessions,
			Logger:       logger,
			Now:          time.Now,
			JWTSecret:    cfg.JWTSecret,
			Production:   cfg.Production(),
			Domain:       cfg.Domain,
			StatusPolicy: policy,
		},
		Counter:        b.Counter,
		LimitPrefix:    cfg.IssueQueueName,
		DailyLimit:     cfg.IssueDailyLimit,
		AllowedOrigins: cfg.AllowedOrigins(),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Infof("server starting http://localhost:%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutS)*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

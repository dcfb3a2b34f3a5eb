package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/sirupsen/logrus"

	"github.com/saulo-duarte/docquiz/internal/auth"
	"github.com/saulo-duarte/docquiz/internal/config"
	"github.com/saulo-duarte/docquiz/internal/container"
	"github.com/saulo-duarte/docquiz/internal/router"
)

func main() {
	config.Init()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	auth.Init(cfg.JWTSecret)

	ctx := context.Background()
	c, err := container.New(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("failed to build application")
	}

	handler := router.New(router.RouterConfig{
		DocumentHandler:  c.DocumentContainer.Handler,
		RetrievalHandler: c.RetrievalContainer.Handler,
		QuizHandler:      c.QuizContainer.Handler,
		CORSOrigins:      cfg.CORSOrigins,
	})

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(httpadapter.NewV2(handler).ProxyWithContext)
		return
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		logrus.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("shutdown was not clean")
	}
	logrus.Info("server stopped")
}

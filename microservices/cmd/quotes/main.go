package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"typerace/internal/adapters"
	"typerace/internal/bootstrap"
	"typerace/internal/repository/memory"
	quotesRPC "typerace/microservices/proto"
	"typerace/microservices/repository"
	"typerace/microservices/usecase"
)

func main() {
	logger := NewLogger()
	defer logger.Sync()

	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Errorw("failed to setup configuration", "error", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fallback := memory.NewQuoteProvider(memory.DefaultQuotes)
	mongoAdapter := adapters.NewAdapterMongo(cfg, logger)
	store := repository.NewQuoteRepository(nil, fallback, logger)
	if err := mongoAdapter.Init(ctx); err != nil {
		logger.Warnw("MongoDB unavailable, serving built-in quotes", "error", err)
	} else {
		defer mongoAdapter.Close(context.Background())
		store = repository.NewQuoteRepository(mongoAdapter.Database, fallback, logger)
	}

	lis, err := net.Listen("tcp", ":"+cfg.QuoteServicePort)
	if err != nil {
		logger.Errorw("cannot listen", "port", cfg.QuoteServicePort, "error", err)
		os.Exit(1)
	}

	server := grpc.NewServer()
	quotesRPC.RegisterQuoteServiceServer(server, usecase.NewQuoteUseCase(store, logger))

	go func() {
		<-ctx.Done()
		logger.Info("shutting down quote service")
		server.GracefulStop()
	}()

	logger.Infow("quote service listening", "port", cfg.QuoteServicePort)
	if err := server.Serve(lis); err != nil {
		logger.Errorw("quote service stopped", "error", err)
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	return logger.Sugar()
}

package adapters

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"typerace/internal/bootstrap"
	"typerace/internal/domain/game"
	errs "typerace/internal/errors"
	quotesRPC "typerace/microservices/proto"
)

// AdapterQuotes talks to the quote microservice over gRPC.
type AdapterQuotes struct {
	conn   *grpc.ClientConn
	client quotesRPC.QuoteServiceClient
	cfg    *bootstrap.Config
	log    *zap.SugaredLogger
}

func NewAdapterQuotes(cfg *bootstrap.Config, log *zap.SugaredLogger) *AdapterQuotes {
	return &AdapterQuotes{
		cfg: cfg,
		log: log,
	}
}

func (a *AdapterQuotes) Init(_ context.Context, opts ...grpc.DialOption) error {
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}
	conn, err := grpc.NewClient(a.cfg.QuoteServiceAddr, opts...)
	if err != nil {
		return fmt.Errorf("dial quote service: %w", err)
	}
	a.conn = conn
	a.client = quotesRPC.NewQuoteServiceClient(conn)
	a.log.Infow("quote service client ready", "addr", a.cfg.QuoteServiceAddr)
	return nil
}

func (a *AdapterQuotes) GetRandomQuote(ctx context.Context, minLength int) (game.Quote, error) {
	resp, err := a.client.GetRandomQuote(ctx, wrapperspb.Int32(int32(minLength)))
	if err != nil {
		a.log.Errorw("quote service call failed", "min_length", minLength, "error", err)
		return game.Quote{}, errs.Integration("quote service", err)
	}
	return game.Quote{Content: resp.GetValue()}, nil
}

func (a *AdapterQuotes) Close(_ context.Context) error {
	if a.conn != nil {
		return a.conn.Close()
	}
	return nil
}

package adapters

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"typerace/internal/bootstrap"
	errs "typerace/internal/errors"
	"typerace/internal/repository/memory"
	quotesRPC "typerace/microservices/proto"
	"typerace/microservices/repository"
	"typerace/microservices/usecase"
)

func startQuoteService(t *testing.T) *AdapterQuotes {
	t.Helper()
	log := zaptest.NewLogger(t).Sugar()
	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	store := repository.NewQuoteRepository(nil, memory.NewQuoteProvider(memory.DefaultQuotes), log)
	quotesRPC.RegisterQuoteServiceServer(server, usecase.NewQuoteUseCase(store, log))
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	adapter := NewAdapterQuotes(&bootstrap.Config{QuoteServiceAddr: "passthrough:///bufnet"}, log)
	require.NoError(t, adapter.Init(context.Background(),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	))
	t.Cleanup(func() { adapter.Close(context.Background()) })
	return adapter
}

func TestAdapterQuotes_GetRandomQuote(t *testing.T) {
	adapter := startQuoteService(t)

	quote, err := adapter.GetRandomQuote(context.Background(), 200)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len([]rune(quote.Content)), 200)
}

func TestAdapterQuotes_NothingLongEnough(t *testing.T) {
	adapter := startQuoteService(t)

	_, err := adapter.GetRandomQuote(context.Background(), 10000)
	assert.True(t, errors.Is(err, errs.ErrIntegration))
}

package usecase

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"typerace/internal/domain/game"
	quotesRPC "typerace/microservices/proto"
)

type stubStore struct {
	quote game.Quote
	err   error
	asked int
}

func (s *stubStore) RandomQuote(_ context.Context, minLength int) (game.Quote, error) {
	s.asked = minLength
	return s.quote, s.err
}

func dial(t *testing.T, store QuoteStore) quotesRPC.QuoteServiceClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	quotesRPC.RegisterQuoteServiceServer(server, NewQuoteUseCase(store, zaptest.NewLogger(t).Sugar()))
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return quotesRPC.NewQuoteServiceClient(conn)
}

func TestGetRandomQuote(t *testing.T) {
	store := &stubStore{quote: game.Quote{Content: "Make it work, make it right, make it fast."}}
	client := dial(t, store)

	resp, err := client.GetRandomQuote(context.Background(), wrapperspb.Int32(20))
	require.NoError(t, err)
	assert.Equal(t, store.quote.Content, resp.GetValue())
	assert.Equal(t, 20, store.asked)
}

func TestGetRandomQuote_NotFound(t *testing.T) {
	client := dial(t, &stubStore{err: errors.New("empty")})

	_, err := client.GetRandomQuote(context.Background(), wrapperspb.Int32(500))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestGetRandomQuote_NegativeLength(t *testing.T) {
	client := dial(t, &stubStore{})

	_, err := client.GetRandomQuote(context.Background(), wrapperspb.Int32(-1))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

package usecase

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"typerace/internal/domain/game"
	quotesRPC "typerace/microservices/proto"
)

type QuoteStore interface {
	RandomQuote(ctx context.Context, minLength int) (game.Quote, error)
}

type QuoteUseCase struct {
	store QuoteStore
	log   *zap.SugaredLogger
	quotesRPC.UnimplementedQuoteServiceServer
}

func NewQuoteUseCase(store QuoteStore, log *zap.SugaredLogger) *QuoteUseCase {
	return &QuoteUseCase{
		store: store,
		log:   log,
	}
}

func (q *QuoteUseCase) GetRandomQuote(ctx context.Context, in *wrapperspb.Int32Value) (*wrapperspb.StringValue, error) {
	minLength := int(in.GetValue())
	if minLength < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "negative minimum length %d", minLength)
	}

	quote, err := q.store.RandomQuote(ctx, minLength)
	if err != nil {
		q.log.Warnw("no quote served", "min_length", minLength, "error", err)
		return nil, status.Errorf(codes.NotFound, "no quote with at least %d characters", minLength)
	}
	return wrapperspb.String(quote.Content), nil
}

package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"typerace/internal/domain/game"
)

// Fallback serves quotes when the collection is empty or unreachable.
type Fallback interface {
	GetRandomQuote(ctx context.Context, minLength int) (game.Quote, error)
}

type QuoteRepository struct {
	quotes   *mongo.Collection
	fallback Fallback
	log      *zap.SugaredLogger
}

// NewQuoteRepository reads from the "quotes" collection of db. db may be nil,
// in which case only the fallback is used.
func NewQuoteRepository(db *mongo.Database, fallback Fallback, log *zap.SugaredLogger) *QuoteRepository {
	r := &QuoteRepository{fallback: fallback, log: log}
	if db != nil {
		r.quotes = db.Collection("quotes")
	}
	return r
}

var errNoQuote = errors.New("no stored quote long enough")

func samplePipeline(minLength int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"$expr": bson.M{"$gte": bson.A{bson.M{"$strLenCP": "$content"}, minLength}},
		}}},
		{{Key: "$sample", Value: bson.M{"size": 1}}},
	}
}

func (r *QuoteRepository) RandomQuote(ctx context.Context, minLength int) (game.Quote, error) {
	if r.quotes != nil {
		quote, err := r.sample(ctx, minLength)
		if err == nil {
			return quote, nil
		}
		r.log.Warnw("falling back to built-in quotes", "min_length", minLength, "error", err)
	}
	return r.fallback.GetRandomQuote(ctx, minLength)
}

func (r *QuoteRepository) sample(ctx context.Context, minLength int) (game.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	cursor, err := r.quotes.Aggregate(ctx, samplePipeline(minLength))
	if err != nil {
		return game.Quote{}, err
	}
	defer cursor.Close(ctx)

	var docs []game.Quote
	if err := cursor.All(ctx, &docs); err != nil {
		return game.Quote{}, err
	}
	if len(docs) == 0 {
		return game.Quote{}, errNoQuote
	}
	return docs[0], nil
}

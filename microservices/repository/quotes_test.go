package repository

import (
	"context"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap/zaptest"

	"typerace/internal/repository/memory"
)

func TestRandomQuote_FallbackWithoutDatabase(t *testing.T) {
	repo := NewQuoteRepository(nil, memory.NewQuoteProvider(memory.DefaultQuotes), zaptest.NewLogger(t).Sugar())

	quote, err := repo.RandomQuote(context.Background(), 200)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, utf8.RuneCountInString(quote.Content), 200)
}

func TestSamplePipeline(t *testing.T) {
	pipeline := samplePipeline(100)
	require.Len(t, pipeline, 2)

	assert.Equal(t, "$match", pipeline[0][0].Key)
	expr := pipeline[0][0].Value.(bson.M)["$expr"].(bson.M)["$gte"].(bson.A)
	assert.Equal(t, 100, expr[1])

	assert.Equal(t, "$sample", pipeline[1][0].Key)
	assert.Equal(t, bson.M{"size": 1}, pipeline[1][0].Value)
}

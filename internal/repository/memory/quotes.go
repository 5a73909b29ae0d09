package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
	"unicode/utf8"

	"typerace/internal/domain/game"
	errs "typerace/internal/errors"
)

var DefaultQuotes = []game.Quote{
	{Content: "The quick brown fox jumps over the lazy dog.", Author: "Traditional"},
	{Content: "Simplicity is prerequisite for reliability.", Author: "Edsger W. Dijkstra"},
	{Content: "Programs must be written for people to read, and only incidentally for machines to execute.", Author: "Harold Abelson"},
	{Content: "Clear is better than clever. Don't communicate by sharing memory, share memory by communicating. A little copying is better than a little dependency.", Author: "Go Proverbs"},
	{Content: "It is not enough for code to work. Any fool can write code that a computer can understand. Good programmers write code that humans can understand, and they keep doing so when the deadline is tomorrow and the coffee is cold.", Author: "Anonymous"},
}

// QuoteProvider picks random quotes from a fixed list.
type QuoteProvider struct {
	mu     sync.Mutex
	quotes []game.Quote
	rng    *rand.Rand
}

func NewQuoteProvider(quotes []game.Quote) *QuoteProvider {
	if len(quotes) == 0 {
		quotes = DefaultQuotes
	}
	return &QuoteProvider{
		quotes: quotes,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (q *QuoteProvider) GetRandomQuote(_ context.Context, minLength int) (game.Quote, error) {
	var candidates []game.Quote
	for _, quote := range q.quotes {
		if utf8.RuneCountInString(quote.Content) >= minLength {
			candidates = append(candidates, quote)
		}
	}
	if len(candidates) == 0 {
		return game.Quote{}, errs.Integration("static quotes", fmt.Errorf("no quote with at least %d characters", minLength))
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	return candidates[q.rng.Intn(len(candidates))], nil
}

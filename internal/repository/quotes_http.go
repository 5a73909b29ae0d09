package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"typerace/internal/domain/game"
	errs "typerace/internal/errors"
)

// HTTPQuoteProvider fetches race text from a quotable-style JSON endpoint
// that accepts a minLength query parameter.
type HTTPQuoteProvider struct {
	url    string
	log    *zap.SugaredLogger
	client *http.Client
}

func NewHTTPQuoteProvider(apiURL string, log *zap.SugaredLogger) *HTTPQuoteProvider {
	return &HTTPQuoteProvider{
		url:    apiURL,
		log:    log,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

type quoteResponse struct {
	Content string `json:"content"`
	Author  string `json:"author"`
}

func (h *HTTPQuoteProvider) GetRandomQuote(ctx context.Context, minLength int) (game.Quote, error) {
	u, err := url.Parse(h.url)
	if err != nil {
		return game.Quote{}, errs.Integration("quote api", err)
	}
	if minLength > 0 {
		q := u.Query()
		q.Set("minLength", strconv.Itoa(minLength))
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return game.Quote{}, errs.Integration("quote api", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		h.log.Errorw("quote request failed", "url", h.url, "error", err)
		return game.Quote{}, errs.Integration("quote api", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return game.Quote{}, errs.Integration("quote api", fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	var result quoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return game.Quote{}, errs.Integration("quote api", fmt.Errorf("decode response: %w", err))
	}
	if utf8.RuneCountInString(result.Content) < minLength {
		return game.Quote{}, errs.Integration("quote api", fmt.Errorf("quote shorter than %d characters", minLength))
	}
	return game.Quote{Content: result.Content, Author: result.Author}, nil
}

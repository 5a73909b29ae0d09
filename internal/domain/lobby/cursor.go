package lobby

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	errs "typerace/internal/errors"
)

// Cursor points just past the last lobby of a page. Listing is ordered by
// (CreatedAt desc, ID desc), so the next page holds lobbies strictly older
// than CreatedAt, or equally old with a smaller ID.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

func CursorAfter(l Lobby) *Cursor {
	return &Cursor{CreatedAt: l.CreatedAt, ID: l.ID}
}

// Before reports whether l sorts after the cursor position.
func (c Cursor) Before(l Lobby) bool {
	if l.CreatedAt.Equal(c.CreatedAt) {
		return l.ID < c.ID
	}
	return l.CreatedAt.Before(c.CreatedAt)
}

func (c Cursor) Encode() string {
	raw := strconv.FormatInt(c.CreatedAt.UnixNano(), 10) + "|" + c.ID
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func DecodeCursor(s string) (*Cursor, error) {
	if s == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.ErrInvalidCursor
	}
	nanos, id, ok := strings.Cut(string(raw), "|")
	if !ok || id == "" {
		return nil, errs.ErrInvalidCursor
	}
	n, err := strconv.ParseInt(nanos, 10, 64)
	if err != nil {
		return nil, errs.ErrInvalidCursor
	}
	return &Cursor{CreatedAt: time.Unix(0, n).UTC(), ID: id}, nil
}

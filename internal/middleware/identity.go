package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"typerace/internal/domain/player"
	"typerace/internal/httpresponse"
)

// Claims is the bearer token payload. Subject carries the user id.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Email    string `json:"email"`
}

type identityKey struct{}

var errMissingToken = errors.New("missing bearer token")

// Identity verifies an HS256 bearer token and stores the caller in the
// request context. Requests without a valid token are rejected with 401.
func Identity(secret []byte, log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := parseIdentity(r, secret)
			if err != nil {
				log.Debugw("unauthenticated request", "path", r.URL.Path, "error", err)
				httpresponse.WriteResponseWithStatus(w, http.StatusUnauthorized,
					httpresponse.ErrorResponse{ErrorDescription: "unauthorized"})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func parseIdentity(r *http.Request, secret []byte) (player.Identity, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return player.Identity{}, errMissingToken
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return player.Identity{}, err
	}
	if claims.Subject == "" || claims.Username == "" {
		return player.Identity{}, errors.New("token without subject or username")
	}
	return player.Identity{UserID: claims.Subject, Username: claims.Username, Email: claims.Email}, nil
}

func WithIdentity(ctx context.Context, id player.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) (player.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(player.Identity)
	return id, ok
}

// SignIdentity issues a token Identity accepts. Used by tests and local tooling.
func SignIdentity(secret []byte, id player.Identity, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = id.UserID
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: claims,
		Username:         id.Username,
		Email:            id.Email,
	})
	return token.SignedString(secret)
}

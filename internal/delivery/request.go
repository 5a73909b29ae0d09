package delivery

import (
	"net/http"

	"go.uber.org/zap"

	"typerace/internal/domain/player"
	"typerace/internal/httpresponse"
	"typerace/internal/middleware"
	"typerace/internal/utils"
)

// Caller returns the authenticated identity, answering 401 when the request
// did not pass through the identity middleware.
func Caller(w http.ResponseWriter, r *http.Request) (player.Identity, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		httpresponse.WriteResponseWithStatus(w, http.StatusUnauthorized,
			httpresponse.ErrorResponse{ErrorDescription: "unauthorized"})
		return player.Identity{}, false
	}
	return id, true
}

// DecodeBody decodes a JSON body into dst and answers 400 on failure.
func DecodeBody(w http.ResponseWriter, r *http.Request, log *zap.SugaredLogger, dst any, allowEmpty bool) bool {
	if err := utils.DecodeJSONRequest(r, dst, allowEmpty); err != nil {
		log.Debugw("malformed request body", "path", r.URL.Path, "error", err)
		httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
			httpresponse.ErrorResponse{ErrorDescription: httpresponse.MALFORMEDJSON_errorDesc})
		return false
	}
	return true
}

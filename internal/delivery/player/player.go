package player

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"typerace/internal/delivery"
	"typerace/internal/httpresponse"
	playeruc "typerace/internal/usecase/player"
)

type PlayerHandler struct {
	log      *zap.SugaredLogger
	playerUC *playeruc.PlayerUseCase
}

func NewPlayerHandler(log *zap.SugaredLogger, playerUC *playeruc.PlayerUseCase) *PlayerHandler {
	return &PlayerHandler{log: log, playerUC: playerUC}
}

func (h *PlayerHandler) Routes(r chi.Router) {
	r.Post("/players", h.Register)
	r.Post("/players/confirm", h.Confirm)
	r.Get("/players/{username}", h.Get)
}

func (h *PlayerHandler) Register(w http.ResponseWriter, r *http.Request) {
	id, ok := delivery.Caller(w, r)
	if !ok {
		return
	}
	p, err := h.playerUC.Register(r.Context(), id)
	if err != nil {
		httpresponse.WriteError(w, h.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, p)
}

func (h *PlayerHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := delivery.Caller(w, r)
	if !ok {
		return
	}
	p, err := h.playerUC.Confirm(r.Context(), id.Username)
	if err != nil {
		httpresponse.WriteError(w, h.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, p)
}

func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.playerUC.Get(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		httpresponse.WriteError(w, h.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, p)
}

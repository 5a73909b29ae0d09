package lobby

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"typerace/internal/delivery"
	"typerace/internal/httpresponse"
	lobbyuc "typerace/internal/usecase/lobby"
)

type LobbyHandler struct {
	log     *zap.SugaredLogger
	lobbyUC *lobbyuc.LobbyUseCase
}

func NewLobbyHandler(log *zap.SugaredLogger, lobbyUC *lobbyuc.LobbyUseCase) *LobbyHandler {
	return &LobbyHandler{log: log, lobbyUC: lobbyUC}
}

type CreateLobbyRequest struct {
	Name       string `json:"name"`
	MaxPlayers int    `json:"max_players"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

func (h *LobbyHandler) Routes(r chi.Router) {
	r.Get("/lobbies", h.List)
	r.Post("/lobbies", h.Create)
	r.Post("/lobbies/leave", h.Leave)
	r.Get("/lobbies/{lobbyID}", h.Details)
	r.Post("/lobbies/{lobbyID}/join", h.Join)
	r.Post("/lobbies/{lobbyID}/return", h.Return)
	r.Post("/lobbies/{lobbyID}/token", h.Token)
}

func (h *LobbyHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httpresponse.WriteResponseWithStatus(w, http.StatusBadRequest,
				httpresponse.ErrorResponse{ErrorDescription: "limit must be a number"})
			return
		}
		limit = n
	}

	page, err := h.lobbyUC.ListLobbies(r.Context(), q.Get("status"), limit, q.Get("cursor"))
	if err != nil {
		httpresponse.WriteError(w, h.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, page)
}

func (h *LobbyHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ok := delivery.Caller(w, r)
	if !ok {
		return
	}
	var req CreateLobbyRequest
	if !delivery.DecodeBody(w, r, h.log, &req, false) {
		return
	}

	l, err := h.lobbyUC.CreateLobby(r.Context(), req.Name, id.Username, req.MaxPlayers)
	if err != nil {
		httpresponse.WriteError(w, h.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusCreated, l)
}

func (h *LobbyHandler) Details(w http.ResponseWriter, r *http.Request) {
	details, err := h.lobbyUC.GetLobbyDetails(r.Context(), chi.URLParam(r, "lobbyID"))
	if err != nil {
		httpresponse.WriteError(w, h.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, details)
}

func (h *LobbyHandler) Join(w http.ResponseWriter, r *http.Request) {
	id, ok := delivery.Caller(w, r)
	if !ok {
		return
	}
	l, err := h.lobbyUC.JoinLobby(r.Context(), chi.URLParam(r, "lobbyID"), id.Username)
	if err != nil {
		httpresponse.WriteError(w, h.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, l)
}

func (h *LobbyHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id, ok := delivery.Caller(w, r)
	if !ok {
		return
	}
	if err := h.lobbyUC.LeaveLobby(r.Context(), id.Username); err != nil {
		httpresponse.WriteError(w, h.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, nil)
}

func (h *LobbyHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, ok := delivery.Caller(w, r)
	if !ok {
		return
	}
	l, err := h.lobbyUC.ReturnToLobby(r.Context(), chi.URLParam(r, "lobbyID"), id.Username)
	if err != nil {
		httpresponse.WriteError(w, h.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, l)
}

func (h *LobbyHandler) Token(w http.ResponseWriter, r *http.Request) {
	id, ok := delivery.Caller(w, r)
	if !ok {
		return
	}
	token, err := h.lobbyUC.IssueRealtimeToken(r.Context(), chi.URLParam(r, "lobbyID"), id.Username)
	if err != nil {
		httpresponse.WriteError(w, h.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, TokenResponse{Token: token})
}

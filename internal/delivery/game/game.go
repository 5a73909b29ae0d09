package game

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"typerace/internal/delivery"
	"typerace/internal/domain/game"
	"typerace/internal/httpresponse"
	gameuc "typerace/internal/usecase/game"
	"typerace/internal/usecase/listener"
)

type GameHandler struct {
	log      *zap.SugaredLogger
	gameUC   *gameuc.GameUseCase
	listener *listener.Listener
	// serverCtx bounds listener sessions; they outlive the start request.
	serverCtx context.Context
}

func NewGameHandler(serverCtx context.Context, log *zap.SugaredLogger, gameUC *gameuc.GameUseCase, l *listener.Listener) *GameHandler {
	return &GameHandler{
		log:       log,
		gameUC:    gameUC,
		listener:  l,
		serverCtx: serverCtx,
	}
}

type StartGameRequest struct {
	Difficulty game.Difficulty `json:"difficulty"`
}

type EndGameRequest struct {
	GameID  string              `json:"game_id,omitempty"`
	Players []game.PlayerResult `json:"players"`
}

func (h *GameHandler) Routes(r chi.Router) {
	r.Post("/lobbies/{lobbyID}/start", h.Start)
	r.Post("/lobbies/{lobbyID}/end", h.End)
	r.Get("/statistics", h.Statistics)
}

// Start subscribes a listener to the lobby topic before announcing the game,
// so the statistics pipeline sees its own GameStarted.
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, ok := delivery.Caller(w, r)
	if !ok {
		return
	}
	var req StartGameRequest
	if !delivery.DecodeBody(w, r, h.log, &req, true) {
		return
	}
	lobbyID := chi.URLParam(r, "lobbyID")

	session, err := h.listener.Start(h.serverCtx, lobbyID, h.gameUC.Dispatch)
	if err != nil {
		httpresponse.WriteError(w, h.log, err)
		return
	}

	started, err := h.gameUC.StartGame(r.Context(), lobbyID, id.UserID, req.Difficulty)
	if err != nil {
		session.Stop()
		httpresponse.WriteError(w, h.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, started)
}

func (h *GameHandler) End(w http.ResponseWriter, r *http.Request) {
	if _, ok := delivery.Caller(w, r); !ok {
		return
	}
	var req EndGameRequest
	if !delivery.DecodeBody(w, r, h.log, &req, false) {
		return
	}

	ended, err := h.gameUC.EndGame(r.Context(), gameuc.EndGameRequest{
		LobbyID: chi.URLParam(r, "lobbyID"),
		GameID:  req.GameID,
		Players: req.Players,
	})
	if err != nil {
		httpresponse.WriteError(w, h.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, ended)
}

func (h *GameHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	row, err := h.gameUC.GetStatistics(r.Context())
	if err != nil {
		httpresponse.WriteError(w, h.log, err)
		return
	}
	httpresponse.WriteResponseWithStatus(w, http.StatusOK, row)
}

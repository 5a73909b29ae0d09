package lobby

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"typerace/internal/domain/event"
	"typerace/internal/domain/lobby"
	"typerace/internal/domain/player"
	errs "typerace/internal/errors"
	"typerace/internal/usecase/optimistic"
)

type PlayerStore interface {
	GetByUsername(ctx context.Context, username string) (player.Player, error)
	ListByLobby(ctx context.Context, lobbyID string) ([]player.Player, error)
	Update(ctx context.Context, p player.Player) (player.Player, error)
}

type LobbyStore interface {
	Create(ctx context.Context, l lobby.Lobby) (lobby.Lobby, error)
	Get(ctx context.Context, id string) (lobby.Lobby, error)
	Update(ctx context.Context, l lobby.Lobby) (lobby.Lobby, error)
	Delete(ctx context.Context, id string, version int64) error
	List(ctx context.Context, q lobby.ListQuery) (lobby.Page, error)
}

type TokenIssuer interface {
	Issue(ctx context.Context, grant event.Grant, ttl time.Duration) (string, error)
}

type Options struct {
	Retry     optimistic.Policy
	TokenTTL  time.Duration
	PageLimit int
}

type LobbyUseCase struct {
	players PlayerStore
	lobbies LobbyStore
	tokens  TokenIssuer
	log     *zap.SugaredLogger
	opts    Options
	now     func() time.Time
}

func NewLobbyUseCase(players PlayerStore, lobbies LobbyStore, tokens TokenIssuer, log *zap.SugaredLogger, opts Options) *LobbyUseCase {
	if opts.PageLimit <= 0 {
		opts.PageLimit = 20
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = time.Minute
	}
	return &LobbyUseCase{
		players: players,
		lobbies: lobbies,
		tokens:  tokens,
		log:     log,
		opts:    opts,
		now:     func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// Details is a lobby with its members resolved from the membership list.
type Details struct {
	Lobby   lobby.Lobby      `json:"lobby"`
	Members []player.Summary `json:"members"`
}

func (uc *LobbyUseCase) CreateLobby(ctx context.Context, name, hostUsername string, maxPlayers int) (lobby.Lobby, error) {
	name = strings.TrimSpace(name)
	if name == "" || maxPlayers < lobby.MinPlayers {
		return lobby.Lobby{}, errs.ErrInvalidLobby
	}

	host, err := uc.players.GetByUsername(ctx, hostUsername)
	if err != nil {
		return lobby.Lobby{}, err
	}
	busy, err := uc.holdsMembership(ctx, host)
	if err != nil {
		return lobby.Lobby{}, err
	}
	if busy {
		return lobby.Lobby{}, errs.ErrAlreadyInLobby
	}

	now := uc.now()
	created := lobby.Lobby{
		ID:         uuid.NewString(),
		Name:       name,
		HostID:     host.ID,
		MaxPlayers: maxPlayers,
		Status:     lobby.StatusOpen,
		Usernames:  []string{host.Username},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	created, err = uc.lobbies.Create(ctx, created)
	if err != nil {
		return lobby.Lobby{}, err
	}

	// The lobby is already persisted; if the host write fails the lobby stays
	// orphaned, and details are always recomputed from the lobby row.
	_, err = optimistic.Do(ctx, uc.opts.Retry, func() (player.Player, error) {
		p, err := uc.players.GetByUsername(ctx, hostUsername)
		if err != nil {
			return p, err
		}
		if p.CurrentLobbyID != "" && p.CurrentLobbyID != created.ID {
			return p, errs.ErrAlreadyInLobby
		}
		p.CurrentLobbyID = created.ID
		p.UpdatedAt = now
		return uc.players.Update(ctx, p)
	})
	if err != nil {
		uc.log.Errorw("lobby created but host membership not recorded", "lobby_id", created.ID, "host", hostUsername, "error", err)
		return lobby.Lobby{}, err
	}

	uc.log.Infow("lobby created", "lobby_id", created.ID, "host", hostUsername, "max_players", maxPlayers)
	return created, nil
}

func (uc *LobbyUseCase) JoinLobby(ctx context.Context, lobbyID, username string) (lobby.Lobby, error) {
	return optimistic.Do(ctx, uc.opts.Retry, func() (lobby.Lobby, error) {
		l, err := uc.lobbies.Get(ctx, lobbyID)
		if err != nil {
			return lobby.Lobby{}, err
		}
		p, err := uc.players.GetByUsername(ctx, username)
		if err != nil {
			return lobby.Lobby{}, err
		}
		if l.Status != lobby.StatusOpen {
			return lobby.Lobby{}, errs.ErrLobbyNotOpen
		}
		if p.CurrentLobbyID != "" && p.CurrentLobbyID != lobbyID {
			busy, err := uc.holdsMembership(ctx, p)
			if err != nil {
				return lobby.Lobby{}, err
			}
			if busy {
				return lobby.Lobby{}, errs.ErrAlreadyInLobby
			}
		}

		if !l.HasMember(username) {
			if l.IsFull() {
				return lobby.Lobby{}, errs.ErrLobbyFull
			}
			l.AddMember(username)
			l.UpdatedAt = uc.now()
			if l, err = uc.lobbies.Update(ctx, l); err != nil {
				return lobby.Lobby{}, err
			}
		}

		if p.CurrentLobbyID != lobbyID {
			p.CurrentLobbyID = lobbyID
			p.UpdatedAt = uc.now()
			if _, err := uc.players.Update(ctx, p); err != nil {
				return lobby.Lobby{}, err
			}
			uc.log.Infow("player joined lobby", "lobby_id", lobbyID, "username", username)
		}
		return l, nil
	})
}

// LeaveLobby removes the player from their lobby. A host leaving, or the last
// member leaving, disbands the lobby for everyone; host rights are never
// handed over.
func (uc *LobbyUseCase) LeaveLobby(ctx context.Context, username string) error {
	var disbanded *lobby.Lobby
	_, err := optimistic.Do(ctx, uc.opts.Retry, func() (struct{}, error) {
		disbanded = nil
		p, err := uc.players.GetByUsername(ctx, username)
		if err != nil {
			return struct{}{}, err
		}
		if !p.InLobby() {
			return struct{}{}, nil
		}

		l, err := uc.lobbies.Get(ctx, p.CurrentLobbyID)
		if errs.Is(err, errs.ErrLobbyNotFound) {
			return struct{}{}, uc.detach(ctx, p)
		}
		if err != nil {
			return struct{}{}, err
		}

		l.RemoveMember(username)
		if l.HostID == p.ID || l.IsEmpty() {
			if err := uc.lobbies.Delete(ctx, l.ID, l.Version); err != nil {
				return struct{}{}, err
			}
			disbanded = &l
			return struct{}{}, nil
		}

		l.UpdatedAt = uc.now()
		if _, err := uc.lobbies.Update(ctx, l); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, uc.detach(ctx, p)
	})
	if err != nil {
		return err
	}

	if disbanded != nil {
		uc.log.Infow("lobby disbanded", "lobby_id", disbanded.ID, "left_by", username, "remaining", len(disbanded.Usernames))
		for _, member := range uc.referencing(ctx, *disbanded) {
			if member == username {
				continue
			}
			if err := uc.clearMembership(ctx, member, disbanded.ID); err != nil {
				uc.log.Warnw("failed to clear member of disbanded lobby", "lobby_id", disbanded.ID, "username", member, "error", err)
			}
		}
		return uc.clearMembership(ctx, username, disbanded.ID)
	}
	uc.log.Infow("player left lobby", "username", username)
	return nil
}

// ReturnToLobby brings a player back to a lobby after a game. A membership
// in another lobby is dropped without disbanding that lobby.
func (uc *LobbyUseCase) ReturnToLobby(ctx context.Context, lobbyID, username string) (lobby.Lobby, error) {
	return optimistic.Do(ctx, uc.opts.Retry, func() (lobby.Lobby, error) {
		l, err := uc.lobbies.Get(ctx, lobbyID)
		if err != nil {
			return lobby.Lobby{}, err
		}
		p, err := uc.players.GetByUsername(ctx, username)
		if err != nil {
			return lobby.Lobby{}, err
		}

		if l.HasMember(username) {
			if l.Status == lobby.StatusInGame {
				l.Status = lobby.StatusOpen
				l.UpdatedAt = uc.now()
				if l, err = uc.lobbies.Update(ctx, l); err != nil {
					return lobby.Lobby{}, err
				}
			}
			if p.CurrentLobbyID != lobbyID {
				p.CurrentLobbyID = lobbyID
				p.UpdatedAt = uc.now()
				if _, err := uc.players.Update(ctx, p); err != nil {
					return lobby.Lobby{}, err
				}
			}
			return l, nil
		}

		if p.CurrentLobbyID != "" && p.CurrentLobbyID != lobbyID {
			if err := uc.dropFrom(ctx, p.CurrentLobbyID, username); err != nil {
				return lobby.Lobby{}, err
			}
		}

		if l.IsFull() {
			return lobby.Lobby{}, errs.ErrLobbyFull
		}
		l.AddMember(username)
		l.Status = lobby.StatusOpen
		l.UpdatedAt = uc.now()
		if l, err = uc.lobbies.Update(ctx, l); err != nil {
			return lobby.Lobby{}, err
		}

		p.CurrentLobbyID = lobbyID
		p.UpdatedAt = uc.now()
		if _, err := uc.players.Update(ctx, p); err != nil {
			return lobby.Lobby{}, err
		}
		uc.log.Infow("player returned to lobby", "lobby_id", lobbyID, "username", username)
		return l, nil
	})
}

func (uc *LobbyUseCase) ListLobbies(ctx context.Context, status string, limit int, cursor string) (lobby.Page, error) {
	st := lobby.Status(strings.ToUpper(status))
	if st == "" {
		st = lobby.StatusOpen
	}
	if !st.Valid() {
		return lobby.Page{}, fmt.Errorf("%w: unknown lobby status %q", errs.ErrBadRequest, status)
	}
	if limit <= 0 || limit > uc.opts.PageLimit {
		limit = uc.opts.PageLimit
	}
	c, err := lobby.DecodeCursor(cursor)
	if err != nil {
		return lobby.Page{}, err
	}
	return uc.lobbies.List(ctx, lobby.ListQuery{Status: st, Limit: limit, Cursor: c})
}

func (uc *LobbyUseCase) GetLobbyDetails(ctx context.Context, lobbyID string) (Details, error) {
	l, err := uc.lobbies.Get(ctx, lobbyID)
	if err != nil {
		return Details{}, err
	}
	details := Details{Lobby: l, Members: make([]player.Summary, 0, len(l.Usernames))}
	for _, username := range l.Usernames {
		p, err := uc.players.GetByUsername(ctx, username)
		if err != nil {
			if !errs.Is(err, errs.ErrPlayerNotFound) {
				return Details{}, err
			}
			details.Members = append(details.Members, player.Summary{Username: username})
			continue
		}
		details.Members = append(details.Members, p.Summary())
	}
	return details, nil
}

// IssueRealtimeToken hands a lobby member a disposable token for the realtime channel.
func (uc *LobbyUseCase) IssueRealtimeToken(ctx context.Context, lobbyID, username string) (string, error) {
	l, err := uc.lobbies.Get(ctx, lobbyID)
	if err != nil {
		return "", err
	}
	if !l.HasMember(username) {
		return "", errs.ErrNotMember
	}
	return uc.tokens.Issue(ctx, event.Grant{LobbyID: lobbyID, Username: username}, uc.opts.TokenTTL)
}

// holdsMembership reports whether p's lobby reference is live: the lobby
// exists and still lists the player. Dangling references left by a partial
// disband do not block new memberships.
func (uc *LobbyUseCase) holdsMembership(ctx context.Context, p player.Player) (bool, error) {
	if !p.InLobby() {
		return false, nil
	}
	l, err := uc.lobbies.Get(ctx, p.CurrentLobbyID)
	if errs.Is(err, errs.ErrLobbyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return l.HasMember(p.Username), nil
}

func (uc *LobbyUseCase) detach(ctx context.Context, p player.Player) error {
	p.CurrentLobbyID = ""
	p.UpdatedAt = uc.now()
	_, err := uc.players.Update(ctx, p)
	return err
}

// referencing lists everyone who may still point at a deleted lobby: its last
// known members plus any player whose stored reference names it, which covers
// a join that landed while the lobby was being disbanded.
func (uc *LobbyUseCase) referencing(ctx context.Context, l lobby.Lobby) []string {
	names := append([]string(nil), l.Usernames...)
	stragglers, err := uc.players.ListByLobby(ctx, l.ID)
	if err != nil {
		uc.log.Warnw("failed to list players of disbanded lobby", "lobby_id", l.ID, "error", err)
		return names
	}
	for _, p := range stragglers {
		if !slices.Contains(names, p.Username) {
			names = append(names, p.Username)
		}
	}
	return names
}

// clearMembership clears username's lobby reference if it still points at lobbyID.
func (uc *LobbyUseCase) clearMembership(ctx context.Context, username, lobbyID string) error {
	_, err := optimistic.Do(ctx, uc.opts.Retry, func() (struct{}, error) {
		p, err := uc.players.GetByUsername(ctx, username)
		if err != nil {
			return struct{}{}, err
		}
		if p.CurrentLobbyID != lobbyID {
			return struct{}{}, nil
		}
		return struct{}{}, uc.detach(ctx, p)
	})
	return err
}

// dropFrom removes username from another lobby's membership. The lobby is
// deleted only if that leaves it empty.
func (uc *LobbyUseCase) dropFrom(ctx context.Context, lobbyID, username string) error {
	old, err := uc.lobbies.Get(ctx, lobbyID)
	if errs.Is(err, errs.ErrLobbyNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !old.RemoveMember(username) {
		return nil
	}
	if old.IsEmpty() {
		return uc.lobbies.Delete(ctx, old.ID, old.Version)
	}
	old.UpdatedAt = uc.now()
	_, err = uc.lobbies.Update(ctx, old)
	return err
}

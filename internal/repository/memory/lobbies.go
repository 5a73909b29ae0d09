package memory

import (
	"context"
	"slices"
	"sort"
	"sync"

	"typerace/internal/domain/lobby"
	errs "typerace/internal/errors"
)

type LobbyStore struct {
	mu      sync.RWMutex
	lobbies map[string]lobby.Lobby
}

func NewLobbyStore() *LobbyStore {
	return &LobbyStore{lobbies: make(map[string]lobby.Lobby)}
}

func cloneLobby(l lobby.Lobby) lobby.Lobby {
	l.Usernames = slices.Clone(l.Usernames)
	return l
}

func (s *LobbyStore) Create(_ context.Context, l lobby.Lobby) (lobby.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lobbies[l.ID]; ok {
		return lobby.Lobby{}, errs.ErrStaleWrite
	}
	l.Version = 1
	s.lobbies[l.ID] = cloneLobby(l)
	return cloneLobby(l), nil
}

func (s *LobbyStore) Get(_ context.Context, id string) (lobby.Lobby, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lobbies[id]
	if !ok {
		return lobby.Lobby{}, errs.ErrLobbyNotFound
	}
	return cloneLobby(l), nil
}

func (s *LobbyStore) Update(_ context.Context, l lobby.Lobby) (lobby.Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.lobbies[l.ID]
	if !ok {
		return lobby.Lobby{}, errs.ErrLobbyNotFound
	}
	if current.Version != l.Version {
		return lobby.Lobby{}, errs.ErrStaleWrite
	}
	l.Version++
	s.lobbies[l.ID] = cloneLobby(l)
	return cloneLobby(l), nil
}

func (s *LobbyStore) Delete(_ context.Context, id string, version int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.lobbies[id]
	if !ok {
		return errs.ErrLobbyNotFound
	}
	if current.Version != version {
		return errs.ErrStaleWrite
	}
	delete(s.lobbies, id)
	return nil
}

func (s *LobbyStore) List(_ context.Context, q lobby.ListQuery) (lobby.Page, error) {
	s.mu.RLock()
	var matched []lobby.Lobby
	for _, l := range s.lobbies {
		if l.Status != q.Status {
			continue
		}
		if q.Cursor != nil && !q.Cursor.Before(l) {
			continue
		}
		matched = append(matched, cloneLobby(l))
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	page := lobby.Page{Lobbies: matched}
	if q.Limit > 0 && len(matched) > q.Limit {
		page.Lobbies = matched[:q.Limit]
		page.NextCursor = lobby.CursorAfter(page.Lobbies[q.Limit-1]).Encode()
	}
	if page.Lobbies == nil {
		page.Lobbies = []lobby.Lobby{}
	}
	return page, nil
}

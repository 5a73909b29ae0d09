// Package memory holds in-process implementations of every store and port.
// They back STORE_DRIVER=memory and the use-case tests, and follow the same
// versioning and atomicity rules as the Mongo and Redis implementations.
package memory

import (
	"context"
	"sort"
	"sync"

	"typerace/internal/domain/player"
	errs "typerace/internal/errors"
)

type PlayerStore struct {
	mu      sync.RWMutex
	players map[string]player.Player
}

func NewPlayerStore() *PlayerStore {
	return &PlayerStore{players: make(map[string]player.Player)}
}

func (s *PlayerStore) Create(_ context.Context, p player.Player) (player.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.players {
		if existing.ID == p.ID || existing.Username == p.Username || existing.Email == p.Email {
			return player.Player{}, errs.ErrUserExists
		}
	}
	p.Version = 1
	s.players[p.ID] = p
	return p, nil
}

func (s *PlayerStore) GetByID(_ context.Context, id string) (player.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players[id]
	if !ok {
		return player.Player{}, errs.ErrPlayerNotFound
	}
	return p, nil
}

func (s *PlayerStore) GetByUsername(_ context.Context, username string) (player.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.players {
		if p.Username == username {
			return p, nil
		}
	}
	return player.Player{}, errs.ErrPlayerNotFound
}

func (s *PlayerStore) GetByEmail(_ context.Context, email string) (player.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.players {
		if p.Email == email {
			return p, nil
		}
	}
	return player.Player{}, errs.ErrPlayerNotFound
}

func (s *PlayerStore) ListByLobby(_ context.Context, lobbyID string) ([]player.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []player.Player
	for _, p := range s.players {
		if p.CurrentLobbyID == lobbyID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// Update overwrites the row if its stored version still equals p.Version.
func (s *PlayerStore) Update(_ context.Context, p player.Player) (player.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.players[p.ID]
	if !ok {
		return player.Player{}, errs.ErrPlayerNotFound
	}
	if current.Version != p.Version {
		return player.Player{}, errs.ErrStaleWrite
	}
	p.Version++
	s.players[p.ID] = p
	return p, nil
}

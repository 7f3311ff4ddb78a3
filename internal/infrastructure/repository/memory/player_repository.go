package memory

import (
	"context"
	"sync"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/player"
)

type PlayerRepository struct {
	mu            sync.RWMutex
	playersByRoom map[string][]player.Player
	indexByRoom   map[string]map[string]player.Player
}

func NewPlayerRepository(players []player.Player) *PlayerRepository {
	playersByRoom := make(map[string][]player.Player)
	indexByRoom := make(map[string]map[string]player.Player)

	for _, p := range players {
		playersByRoom[p.RoomID] = append(playersByRoom[p.RoomID], p)
		if _, ok := indexByRoom[p.RoomID]; !ok {
			indexByRoom[p.RoomID] = make(map[string]player.Player)
		}
		indexByRoom[p.RoomID][p.ID] = p
	}

	return &PlayerRepository{
		playersByRoom: playersByRoom,
		indexByRoom:   indexByRoom,
	}
}

func (r *PlayerRepository) ListByRoom(_ context.Context, roomID string) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := r.playersByRoom[roomID]
	out := make([]player.Player, 0, len(players))
	out = append(out, players...)

	return out, nil
}

func (r *PlayerRepository) GetByIDs(_ context.Context, roomID string, playerIDs []string) ([]player.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	index := r.indexByRoom[roomID]
	out := make([]player.Player, 0, len(playerIDs))
	for _, id := range playerIDs {
		p, ok := index[id]
		if !ok {
			continue
		}
		out = append(out, p)
	}

	return out, nil
}

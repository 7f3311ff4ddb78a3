package memory

import (
	"fmt"
	"time"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/engine"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/market"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/player"
	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/room"
)

// RoomIDDemo is the room dev mode boots with.
const RoomIDDemo = "room-demo-001"

var seedTeams = []string{
	"Persija Jakarta",
	"Persib Bandung",
	"Persebaya Surabaya",
	"Bali United",
}

// SeedRoom returns a four-manager room with a scheduled draft and a
// scheduled market window, ready for dev-mode play.
func SeedRoom(now time.Time) engine.State {
	scheduledStart := now.Add(5 * time.Minute)
	marketOpens := now.Add(24 * time.Hour)

	return engine.State{
		Room: room.Room{
			ID:            RoomIDDemo,
			Name:          "Demo League",
			HostManagerID: "mgr-ayu",
			Members: []room.Member{
				{ManagerID: "mgr-ayu", DisplayName: "Ayu"},
				{ManagerID: "mgr-bima", DisplayName: "Bima"},
				{ManagerID: "mgr-citra", DisplayName: "Citra"},
				{ManagerID: "mgr-dewi", DisplayName: "Dewi"},
			},
			TotalRounds:      15,
			ScheduledStartAt: &scheduledStart,
			TurnDuration:     120 * time.Second,
			CreatedAt:        now,
			UpdatedAt:        now,
		},
		Market: &market.Market{
			RoomID:    RoomIDDemo,
			Status:    market.StatusScheduled,
			OpensAt:   &marketOpens,
			Duration:  48 * time.Hour,
			UpdatedAt: now,
		},
	}
}

// SeedPlayers returns a pool large enough for a full fifteen-round draft by
// four managers: 8 goalkeepers, 20 defenders, 20 midfielders and 12
// attackers per room.
func SeedPlayers(roomID string) []player.Player {
	pool := make([]player.Player, 0, 60)
	add := func(prefix string, pos player.Position, names []string) {
		for i, name := range names {
			pool = append(pool, player.Player{
				ID:       fmt.Sprintf("%s-%02d", prefix, i+1),
				RoomID:   roomID,
				Name:     name,
				Position: pos,
				TeamName: seedTeams[i%len(seedTeams)],
			})
		}
	}

	add("gk", player.PositionGoalkeeper, generatedNames("Keeper", 8))
	add("def", player.PositionDefender, generatedNames("Defender", 20))
	add("mid", player.PositionMidfielder, generatedNames("Midfielder", 20))
	add("att", player.PositionAttacker, generatedNames("Attacker", 12))

	return pool
}

func generatedNames(role string, count int) []string {
	names := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		names = append(names, fmt.Sprintf("%s %02d", role, i))
	}
	return names
}

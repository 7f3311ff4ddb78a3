package postgres

import (
	"testing"
	"time"

	"github.com/mando246-ah/football-fantasy-sub000/internal/domain/room"
)

func TestRoomRowMapping(t *testing.T) {
	deadline := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	item := room.Room{
		ID:            "room-1",
		Name:          "Demo League",
		HostManagerID: "mgr-a",
		Members: []room.Member{
			{ManagerID: "mgr-a", DisplayName: "A"},
			{ManagerID: "mgr-b", DisplayName: "B"},
		},
		DraftOrder:   []string{"mgr-b", "mgr-a"},
		TurnIndex:    3,
		TurnDeadline: &deadline,
		TotalRounds:  15,
		Started:      true,
		TurnDuration: 120 * time.Second,
		Version:      7,
	}

	row, err := roomToRow(item)
	if err != nil {
		t.Fatalf("roomToRow: %v", err)
	}
	if row.TurnDurationSecs != 120 {
		t.Fatalf("expected turn duration 120s, got %d", row.TurnDurationSecs)
	}

	back, err := roomFromRow(row)
	if err != nil {
		t.Fatalf("roomFromRow: %v", err)
	}
	if len(back.Members) != 2 || back.Members[0].ManagerID != "mgr-a" {
		t.Fatalf("unexpected members after round trip: %+v", back.Members)
	}
	if back.TurnDuration != 120*time.Second {
		t.Fatalf("unexpected turn duration: %s", back.TurnDuration)
	}
	if back.Version != 7 || back.TurnIndex != 3 {
		t.Fatalf("unexpected room scalars: %+v", back)
	}
	if back.TurnDeadline == nil || !back.TurnDeadline.Equal(deadline) {
		t.Fatalf("unexpected turn deadline: %v", back.TurnDeadline)
	}
}

func TestRoomFromRow_EmptyMembersDocument(t *testing.T) {
	back, err := roomFromRow(roomTableModel{ID: "room-1", Members: ""})
	if err != nil {
		t.Fatalf("roomFromRow: %v", err)
	}
	if len(back.Members) != 0 {
		t.Fatalf("expected no members, got %+v", back.Members)
	}
}

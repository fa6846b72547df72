// Package types contains the read-side views shared by the API, the state
// stream and the control client.
package types

import (
	"github.com/google/uuid"

	"github.com/okian/sideline/internal/domain/roster"
)

// PlayerView is a player as the rendering surface draws it.
type PlayerView struct {
	ID       uuid.UUID    `json:"id"`
	Name     string       `json:"name"`
	Label    roster.Label `json:"label"`
	Position roster.Point `json:"position"`
	OnField  bool         `json:"on_field"`
	Selected bool         `json:"selected"`
}

// ClockView is the match clock as displayed.
type ClockView struct {
	Elapsed int    `json:"elapsed"`
	Display string `json:"display"`
	Running bool   `json:"running"`
}

// Snapshot is the whole session at one instant. Version increases with
// every applied command.
type Snapshot struct {
	Version  uint64       `json:"version"`
	Players  []PlayerView `json:"players"`
	Clock    ClockView    `json:"clock"`
	Boundary float64      `json:"boundary"`
	Log      []string     `json:"log"`
}

// Player returns the view for id.
func (s *Snapshot) Player(id uuid.UUID) (PlayerView, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerView{}, false
}

// PlayerByName returns the first view with the given name.
func (s *Snapshot) PlayerByName(name string) (PlayerView, bool) {
	for _, p := range s.Players {
		if p.Name == name {
			return p, true
		}
	}
	return PlayerView{}, false
}

// Package roster holds the players, their formation labels and positions,
// and the pairwise selection that drives swaps.
//
// A Roster is not safe for concurrent use; the session controller applies
// every operation from a single dispatch goroutine.
package roster

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// selectionSize is the number of taps that completes a swap.
const selectionSize = 2

// Roster is the ordered player list plus the pending selection.
type Roster struct {
	players   []Player
	index     map[uuid.UUID]int
	selection []uuid.UUID
}

// New builds a roster from seeds, assigning each player a fresh id.
func New(seeds []Seed) (*Roster, error) {
	if len(seeds) == 0 {
		return nil, ErrEmptyRoster
	}
	r := &Roster{
		players:   make([]Player, 0, len(seeds)),
		index:     make(map[uuid.UUID]int, len(seeds)),
		selection: make([]uuid.UUID, 0, selectionSize),
	}
	for _, s := range seeds {
		id := uuid.New()
		r.index[id] = len(r.players)
		r.players = append(r.players, Player{ID: id, Name: s.Name, Position: s.Position})
	}
	return r, nil
}

// Players returns a copy of the roster in seed order.
func (r *Roster) Players() []Player {
	return slices.Clone(r.players)
}

// Player returns the player with the given id.
func (r *Roster) Player(id uuid.UUID) (Player, error) {
	i, ok := r.index[id]
	if !ok {
		return Player{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	return r.players[i], nil
}

// Selection returns the pending selection in tap order.
func (r *Roster) Selection() []uuid.UUID {
	return slices.Clone(r.selection)
}

// IsSelected reports whether id is part of the pending selection.
func (r *Roster) IsSelected(id uuid.UUID) bool {
	return slices.Contains(r.selection, id)
}

// DragEnd moves the player by the drag translation. Positions are not
// clamped to the surface.
func (r *Roster) DragEnd(id uuid.UUID, t Translation) error {
	i, ok := r.index[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	r.players[i].Position.X += t.DX
	r.players[i].Position.Y += t.DY
	return nil
}

// Tap toggles id in the selection. When the selection reaches two players
// they are swapped and the selection is cleared, whether or not the swap
// produced any changes.
func (r *Roster) Tap(id uuid.UUID, boundaryY float64) ([]Change, error) {
	if _, ok := r.index[id]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	if i := slices.Index(r.selection, id); i >= 0 {
		r.selection = slices.Delete(r.selection, i, i+1)
		return nil, nil
	}
	r.selection = append(r.selection, id)
	if len(r.selection) < selectionSize {
		return nil, nil
	}
	changes := r.swap(r.selection[0], r.selection[1], boundaryY)
	r.selection = r.selection[:0]
	return changes, nil
}

// swap exchanges label and position between a and b, then classifies the
// move from the pre-swap state.
func (r *Roster) swap(a, b uuid.UUID, boundaryY float64) []Change {
	ai, bi := r.index[a], r.index[b]
	before, other := r.players[ai], r.players[bi]
	aOn, bOn := OnField(before, boundaryY), OnField(other, boundaryY)

	r.players[ai].Label, r.players[bi].Label = other.Label, before.Label
	r.players[ai].Position, r.players[bi].Position = other.Position, before.Position

	switch {
	case aOn && !bOn:
		if !before.Label.IsSet() {
			return nil
		}
		return []Change{{Kind: Substitution, Player: other.Name, Other: before.Name, To: before.Label}}
	case !aOn && bOn:
		if !other.Label.IsSet() {
			return nil
		}
		return []Change{{Kind: Substitution, Player: before.Name, Other: other.Name, To: other.Label}}
	case aOn && bOn:
		if !before.Label.IsSet() || !other.Label.IsSet() {
			return nil
		}
		return []Change{
			{Kind: Move, Player: before.Name, From: before.Label, To: other.Label},
			{Kind: Move, Player: other.Name, From: other.Label, To: before.Label},
		}
	default:
		return nil
	}
}

// SetLabel assigns a formation label. Only players on the field produce a
// Change; bench label picks are silent.
func (r *Roster) SetLabel(id uuid.UUID, l Label, boundaryY float64) (*Change, error) {
	i, ok := r.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, id)
	}
	p := r.players[i]
	r.players[i].Label = l

	if !OnField(p, boundaryY) || !l.IsSet() || p.Label == l {
		return nil, nil
	}
	if !p.Label.IsSet() {
		return &Change{Kind: Assignment, Player: p.Name, To: l}, nil
	}
	return &Change{Kind: Move, Player: p.Name, From: p.Label, To: l}, nil
}

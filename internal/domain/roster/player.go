package roster

import "github.com/google/uuid"

// Point is a location on the playing surface. Y grows downwards, so smaller
// values are closer to the field half.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Translation is the offset reported at the end of a drag gesture.
type Translation struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

// Player is one roster entry. ID and Name never change; Label and Position
// move with drags, label picks and swaps.
type Player struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Label    Label     `json:"label"`
	Position Point     `json:"position"`
}

// OnField reports whether p sits in the field half of a surface whose
// midline is boundaryY. Membership is always derived from the current
// position and is never stored.
func OnField(p Player, boundaryY float64) bool {
	return p.Position.Y < boundaryY
}

// Seed describes a player created when the roster is built.
type Seed struct {
	Name     string
	Position Point
}

// Seed layout: five players spaced along the bench row.
const (
	seedStartX  = 100
	seedSpacing = 60
	seedBenchY  = 500
)

// DefaultNames are the names used when no roster is configured.
var DefaultNames = []string{"Player A", "Player B", "Player C", "Player D", "Player E"}

// SeedsFor lays out names along the bench row.
func SeedsFor(names []string) []Seed {
	seeds := make([]Seed, len(names))
	for i, name := range names {
		seeds[i] = Seed{
			Name:     name,
			Position: Point{X: float64(seedStartX + i*seedSpacing), Y: seedBenchY},
		}
	}
	return seeds
}

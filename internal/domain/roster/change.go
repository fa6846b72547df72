package roster

// ChangeKind classifies a roster transition worth recording.
type ChangeKind uint8

const (
	// Substitution: Player comes on for Other and takes the To slot.
	Substitution ChangeKind = iota + 1
	// Move: an on-field Player goes from the From slot to the To slot.
	Move
	// Assignment: an on-field Player without a slot is given To.
	Assignment
)

func (k ChangeKind) String() string {
	switch k {
	case Substitution:
		return "substitution"
	case Move:
		return "move"
	case Assignment:
		return "assignment"
	default:
		return "unknown"
	}
}

// Change is a transition produced by a swap or a label pick. Names are
// captured at the moment of the transition.
type Change struct {
	Kind   ChangeKind
	Player string
	Other  string
	From   Label
	To     Label
}

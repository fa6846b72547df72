package roster

import (
	"fmt"
	"strings"
)

// Label is a formation slot. The zero value is Unset.
type Label uint8

// Formation labels offered by the picker.
const (
	Unset Label = iota
	GK
	CB
	LB
	RB
	CM
	CAM
	CDM
	LW
	RW
	ST
)

// noneText is how the picker and the wire format spell Unset.
const noneText = "None"

var labelNames = [...]string{
	Unset: noneText,
	GK:    "GK",
	CB:    "CB",
	LB:    "LB",
	RB:    "RB",
	CM:    "CM",
	CAM:   "CAM",
	CDM:   "CDM",
	LW:    "LW",
	RW:    "RW",
	ST:    "ST",
}

// Labels returns the picker entries in display order, Unset first.
func Labels() []Label {
	out := make([]Label, len(labelNames))
	for i := range labelNames {
		out[i] = Label(i)
	}
	return out
}

// IsSet reports whether l is a formation tag rather than Unset.
func (l Label) IsSet() bool { return l != Unset && int(l) < len(labelNames) }

func (l Label) String() string {
	if int(l) >= len(labelNames) {
		return fmt.Sprintf("Label(%d)", uint8(l))
	}
	return labelNames[l]
}

// ParseLabel maps picker text to a Label. "None" and the empty string are Unset.
// Tags are matched case-insensitively.
func ParseLabel(s string) (Label, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Unset, nil
	}
	for i, name := range labelNames {
		if strings.EqualFold(name, s) {
			return Label(i), nil
		}
	}
	return Unset, fmt.Errorf("%w: %q", ErrInvalidLabel, s)
}

// MarshalText implements encoding.TextMarshaler.
func (l Label) MarshalText() ([]byte, error) {
	if int(l) >= len(labelNames) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLabel, uint8(l))
	}
	return []byte(labelNames[l]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Label) UnmarshalText(b []byte) error {
	parsed, err := ParseLabel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

package roster_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/okian/sideline/internal/domain/roster"
	. "github.com/smartystreets/goconvey/convey"
)

const boundary = 400.0

// newRoster returns a default roster and its ids in seed order.
func newRoster() (*roster.Roster, []uuid.UUID) {
	r, err := roster.New(roster.SeedsFor(roster.DefaultNames))
	So(err, ShouldBeNil)
	ids := make([]uuid.UUID, 0, 5)
	for _, p := range r.Players() {
		ids = append(ids, p.ID)
	}
	return r, ids
}

// putOnField drags a bench player up into the field half.
func putOnField(r *roster.Roster, id uuid.UUID) {
	So(r.DragEnd(id, roster.Translation{DY: -300}), ShouldBeNil)
}

func mustPlayer(r *roster.Roster, id uuid.UUID) roster.Player {
	p, err := r.Player(id)
	So(err, ShouldBeNil)
	return p
}

func TestRoster_New(t *testing.T) {
	Convey("Given the default seeds", t, func() {
		r, ids := newRoster()

		Convey("Then five distinct players sit on the bench in order", func() {
			players := r.Players()
			So(players, ShouldHaveLength, 5)
			seen := map[uuid.UUID]bool{}
			for i, p := range players {
				So(p.Name, ShouldEqual, roster.DefaultNames[i])
				So(p.Label, ShouldEqual, roster.Unset)
				So(p.Position, ShouldResemble, roster.Point{X: float64(100 + 60*i), Y: 500})
				So(roster.OnField(p, boundary), ShouldBeFalse)
				So(seen[p.ID], ShouldBeFalse)
				seen[p.ID] = true
			}
			So(ids, ShouldHaveLength, 5)
		})
	})

	Convey("Given no seeds", t, func() {
		_, err := roster.New(nil)
		So(err, ShouldEqual, roster.ErrEmptyRoster)
	})
}

func TestRoster_DragEnd(t *testing.T) {
	Convey("Given a roster", t, func() {
		r, ids := newRoster()

		Convey("When a player is dragged", func() {
			So(r.DragEnd(ids[0], roster.Translation{DX: 15, DY: -450}), ShouldBeNil)

			Convey("Then the translation is added without clamping", func() {
				So(mustPlayer(r, ids[0]).Position, ShouldResemble, roster.Point{X: 115, Y: 50})
			})

			Convey("And dragging past the surface edge is allowed", func() {
				So(r.DragEnd(ids[0], roster.Translation{DY: -1000}), ShouldBeNil)
				So(mustPlayer(r, ids[0]).Position.Y, ShouldEqual, -950.0)
			})

			Convey("And the selection is untouched", func() {
				So(r.Selection(), ShouldBeEmpty)
			})
		})

		Convey("When an unknown player is dragged", func() {
			err := r.DragEnd(uuid.New(), roster.Translation{DX: 1})
			So(errors.Is(err, roster.ErrPlayerNotFound), ShouldBeTrue)
		})
	})
}

func TestRoster_Tap(t *testing.T) {
	Convey("Given a roster", t, func() {
		r, ids := newRoster()

		Convey("When one player is tapped", func() {
			changes, err := r.Tap(ids[0], boundary)
			So(err, ShouldBeNil)
			So(changes, ShouldBeEmpty)

			Convey("Then it is selected", func() {
				So(r.IsSelected(ids[0]), ShouldBeTrue)
				So(r.Selection(), ShouldResemble, []uuid.UUID{ids[0]})
			})

			Convey("And tapping it again deselects without a swap", func() {
				before := r.Players()
				_, err := r.Tap(ids[0], boundary)
				So(err, ShouldBeNil)
				So(r.Selection(), ShouldBeEmpty)
				So(r.Players(), ShouldResemble, before)
			})
		})

		Convey("When two bench players are tapped", func() {
			_, err := r.SetLabel(ids[1], roster.CM, boundary)
			So(err, ShouldBeNil)
			a, b := mustPlayer(r, ids[1]), mustPlayer(r, ids[3])
			_, _ = r.Tap(ids[1], boundary)
			changes, err := r.Tap(ids[3], boundary)
			So(err, ShouldBeNil)

			Convey("Then they swap label and position silently", func() {
				So(changes, ShouldBeEmpty)
				na, nb := mustPlayer(r, ids[1]), mustPlayer(r, ids[3])
				So(na.Position, ShouldResemble, b.Position)
				So(nb.Position, ShouldResemble, a.Position)
				So(na.Label, ShouldEqual, roster.Unset)
				So(nb.Label, ShouldEqual, roster.CM)
				So(na.Name, ShouldEqual, a.Name)
				So(nb.Name, ShouldEqual, b.Name)
			})

			Convey("And the selection is cleared", func() {
				So(r.Selection(), ShouldBeEmpty)
			})
		})

		Convey("When an unknown id is tapped", func() {
			_, _ = r.Tap(ids[0], boundary)
			_, err := r.Tap(uuid.New(), boundary)

			Convey("Then it fails and the selection is unchanged", func() {
				So(errors.Is(err, roster.ErrPlayerNotFound), ShouldBeTrue)
				So(r.Selection(), ShouldResemble, []uuid.UUID{ids[0]})
			})
		})
	})
}

func TestRoster_Swap(t *testing.T) {
	Convey("Given a labelled player on the field and an unlabelled one on the bench", t, func() {
		r, ids := newRoster()
		a, b := ids[0], ids[1]
		putOnField(r, a)
		_, err := r.SetLabel(a, roster.ST, boundary)
		So(err, ShouldBeNil)
		aPos, bPos := mustPlayer(r, a).Position, mustPlayer(r, b).Position

		Convey("When the field player is tapped first", func() {
			_, _ = r.Tap(a, boundary)
			changes, err := r.Tap(b, boundary)
			So(err, ShouldBeNil)

			Convey("Then one substitution brings the bench player on in ST", func() {
				So(changes, ShouldResemble, []roster.Change{
					{Kind: roster.Substitution, Player: "Player B", Other: "Player A", To: roster.ST},
				})
			})

			Convey("And the two players exchanged label and position", func() {
				pa, pb := mustPlayer(r, a), mustPlayer(r, b)
				So(pa.Label, ShouldEqual, roster.Unset)
				So(pa.Position, ShouldResemble, bPos)
				So(roster.OnField(pa, boundary), ShouldBeFalse)
				So(pb.Label, ShouldEqual, roster.ST)
				So(pb.Position, ShouldResemble, aPos)
				So(roster.OnField(pb, boundary), ShouldBeTrue)
			})
		})

		Convey("When the bench player is tapped first", func() {
			_, _ = r.Tap(b, boundary)
			changes, _ := r.Tap(a, boundary)

			Convey("Then the substitution still names the bench player as coming on", func() {
				So(changes, ShouldResemble, []roster.Change{
					{Kind: roster.Substitution, Player: "Player B", Other: "Player A", To: roster.ST},
				})
			})
		})
	})

	Convey("Given an unlabelled player on the field", t, func() {
		r, ids := newRoster()
		putOnField(r, ids[0])
		aPos := mustPlayer(r, ids[0]).Position

		Convey("When swapped with a bench player", func() {
			_, _ = r.Tap(ids[0], boundary)
			changes, _ := r.Tap(ids[1], boundary)

			Convey("Then the swap happens but nothing is recorded", func() {
				So(changes, ShouldBeEmpty)
				So(mustPlayer(r, ids[1]).Position, ShouldResemble, aPos)
				So(r.Selection(), ShouldBeEmpty)
			})
		})
	})

	Convey("Given two labelled players on the field", t, func() {
		r, ids := newRoster()
		a, b := ids[2], ids[4]
		putOnField(r, a)
		putOnField(r, b)
		_, _ = r.SetLabel(a, roster.CM, boundary)
		_, _ = r.SetLabel(b, roster.ST, boundary)

		Convey("When they are swapped", func() {
			_, _ = r.Tap(a, boundary)
			changes, _ := r.Tap(b, boundary)

			Convey("Then two moves are produced, first-tapped player first", func() {
				So(changes, ShouldResemble, []roster.Change{
					{Kind: roster.Move, Player: "Player C", From: roster.CM, To: roster.ST},
					{Kind: roster.Move, Player: "Player E", From: roster.ST, To: roster.CM},
				})
				So(mustPlayer(r, a).Label, ShouldEqual, roster.ST)
				So(mustPlayer(r, b).Label, ShouldEqual, roster.CM)
			})
		})

		Convey("When one of them has no label", func() {
			_, _ = r.SetLabel(b, roster.Unset, boundary)
			_, _ = r.Tap(a, boundary)
			changes, _ := r.Tap(b, boundary)

			Convey("Then nothing is recorded", func() {
				So(changes, ShouldBeEmpty)
			})
		})
	})
}

func TestRoster_SetLabel(t *testing.T) {
	Convey("Given an unlabelled player on the field", t, func() {
		r, ids := newRoster()
		putOnField(r, ids[0])

		Convey("When it is given GK", func() {
			c, err := r.SetLabel(ids[0], roster.GK, boundary)
			So(err, ShouldBeNil)

			Convey("Then an assignment is produced", func() {
				So(c, ShouldResemble, &roster.Change{Kind: roster.Assignment, Player: "Player A", To: roster.GK})
				So(mustPlayer(r, ids[0]).Label, ShouldEqual, roster.GK)
			})

			Convey("And picking GK again produces nothing", func() {
				again, err := r.SetLabel(ids[0], roster.GK, boundary)
				So(err, ShouldBeNil)
				So(again, ShouldBeNil)
			})

			Convey("And moving to CB produces a move", func() {
				mv, _ := r.SetLabel(ids[0], roster.CB, boundary)
				So(mv, ShouldResemble, &roster.Change{Kind: roster.Move, Player: "Player A", From: roster.GK, To: roster.CB})
			})

			Convey("And clearing the label is silent", func() {
				cleared, _ := r.SetLabel(ids[0], roster.Unset, boundary)
				So(cleared, ShouldBeNil)
				So(mustPlayer(r, ids[0]).Label, ShouldEqual, roster.Unset)
			})
		})
	})

	Convey("Given a bench player", t, func() {
		r, ids := newRoster()

		Convey("When it is labelled", func() {
			c, err := r.SetLabel(ids[3], roster.LW, boundary)

			Convey("Then the label is stored without a change", func() {
				So(err, ShouldBeNil)
				So(c, ShouldBeNil)
				So(mustPlayer(r, ids[3]).Label, ShouldEqual, roster.LW)
			})
		})
	})
}

func TestLabel(t *testing.T) {
	Convey("Given the picker labels", t, func() {
		labels := roster.Labels()

		Convey("Then None comes first followed by the ten tags", func() {
			So(labels, ShouldHaveLength, 11)
			So(labels[0], ShouldEqual, roster.Unset)
			So(labels[0].String(), ShouldEqual, "None")
			So(labels[10].String(), ShouldEqual, "ST")
		})

		Convey("Then parsing accepts tags and the None spelling", func() {
			l, err := roster.ParseLabel("cam")
			So(err, ShouldBeNil)
			So(l, ShouldEqual, roster.CAM)

			l, err = roster.ParseLabel("None")
			So(err, ShouldBeNil)
			So(l.IsSet(), ShouldBeFalse)

			_, err = roster.ParseLabel("SW")
			So(errors.Is(err, roster.ErrInvalidLabel), ShouldBeTrue)
		})

		Convey("Then labels round-trip through JSON as text", func() {
			b, err := json.Marshal(roster.CDM)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `"CDM"`)

			var l roster.Label
			So(json.Unmarshal([]byte(`"RB"`), &l), ShouldBeNil)
			So(l, ShouldEqual, roster.RB)
		})
	})
}

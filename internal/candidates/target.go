package candidates

import (
	"fmt"

	"github.com/roach88/talentflow/internal/domain"
)

// Target is where a dragged candidate card was dropped. It is either a
// Column or a Card; no other type satisfies it.
type Target interface {
	fmt.Stringer
	isTarget()
}

// Column is a drop directly onto a stage column.
type Column struct {
	Stage domain.Stage
}

func (c Column) String() string { return "column:" + string(c.Stage) }
func (Column) isTarget()        {}

// Card is a drop onto another candidate's card. The destination stage is
// that card's current stage, not the column it is rendered in.
type Card struct {
	ID string
}

func (c Card) String() string { return "card:" + c.ID }
func (Card) isTarget()        {}

// MoveKind classifies the outcome of a Move.
type MoveKind int

const (
	// NoOp: dropped onto its own column or its own card.
	NoOp MoveKind = iota
	// Reposition: same stage, new position in the column. Never persisted.
	Reposition
	// StageChange: the candidate's stage changed and must be persisted.
	StageChange
)

var moveKindNames = [...]string{"noop", "reposition", "stage_change"}

func (k MoveKind) String() string {
	if int(k) < len(moveKindNames) {
		return moveKindNames[k]
	}
	return fmt.Sprintf("MoveKind(%d)", int(k))
}

// Move is the result of Store.Move.
type Move struct {
	Kind        MoveKind
	CandidateID string
	From        domain.Stage
	To          domain.Stage
}

// Package review implements the guided extraction review: a strictly linear
// walk over the eight record categories, accumulating per-step approvals
// until a final commit. There is no branching, no skipping, and no way back.
package review

import (
	"github.com/mediview/mediview/internal/domain/dashboard"
)

// Step pairs a category with its review screen label.
type Step struct {
	Category dashboard.Category `json:"category"`
	Label    string             `json:"label"`
}

// Steps is the fixed review order.
var Steps = []Step{
	{dashboard.CategoryProblems, "Active Problem List"},
	{dashboard.CategoryHealthMaintenance, "Health Maintenance"},
	{dashboard.CategoryNotes, "Clinical Documentation"},
	{dashboard.CategoryOrders, "Orders & Referrals"},
	{dashboard.CategoryProcedures, "Procedures"},
	{dashboard.CategoryImaging, "Imaging & Pathology"},
	{dashboard.CategoryLabs, "Lab Trends"},
	{dashboard.CategoryCommunications, "Communications & Tasks"},
}

// Sequencer is the review state: a cursor over Steps, the pending snapshot
// being corrected, and the accumulator of categories confirmed so far. It is
// serializable so a session store can round-trip it.
type Sequencer struct {
	Cursor   int                         `json:"cursor"`
	Pending  *dashboard.Data             `json:"pending"`
	Reviewed *dashboard.Data             `json:"reviewed"`
	Approved map[dashboard.Category]bool `json:"approved"`
}

// NewSequencer starts a review over the given pending snapshot at step 0
// with an empty accumulator.
func NewSequencer(pending *dashboard.Data) *Sequencer {
	if pending == nil {
		pending = dashboard.NewData()
	}
	return &Sequencer{
		Pending:  pending,
		Reviewed: dashboard.NewData(),
		Approved: map[dashboard.Category]bool{},
	}
}

// Step returns the active step.
func (s *Sequencer) Step() Step {
	if s.Cursor < 0 || s.Cursor >= len(Steps) {
		return Steps[len(Steps)-1]
	}
	return Steps[s.Cursor]
}

// AtLastStep reports whether the cursor sits on the terminal step.
func (s *Sequencer) AtLastStep() bool {
	return s.Cursor >= len(Steps)-1
}

// Approve confirms the active step: the pending snapshot's sequence for the
// step's category is copied into the accumulator. Before the last step the
// cursor advances and Approve returns (nil, false). On the last step it
// returns the full merged snapshot — pending overlaid with every accumulated
// category, accumulator winning — and true. The cursor stays on the terminal
// step so a failed commit can be retried with the same call.
func (s *Sequencer) Approve() (*dashboard.Data, bool) {
	step := s.Step()
	s.Pending.CopyCategory(s.Reviewed, step.Category)
	s.Approved[step.Category] = true

	if !s.AtLastStep() {
		s.Cursor++
		return nil, false
	}

	final := s.Pending.Clone()
	for _, c := range dashboard.Categories {
		if s.Approved[c] {
			s.Reviewed.CopyCategory(final, c)
		}
	}
	return final, true
}

// ResetStep empties the active step's category in the pending snapshot. The
// accumulator and every other category are untouched.
func (s *Sequencer) ResetStep() {
	s.Pending.Reset(s.Step().Category)
}

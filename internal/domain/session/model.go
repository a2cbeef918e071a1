// Package session owns the dashboard controller: one Session per signed-in
// review screen, advanced by named transitions and persisted in a Store
// between requests. The backend remains the sole source of truth for
// clinical data; sessions hold only in-flight review state and expire.
package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/mediview/mediview/internal/domain/dashboard"
	"github.com/mediview/mediview/internal/domain/review"
	"github.com/mediview/mediview/internal/upstream/patients"
)

// Removal stages an item deletion until the user confirms it.
type Removal struct {
	Category dashboard.Category `json:"category"`
	ItemID   string             `json:"item_id"`
}

// Session is the serializable screen state. Exactly one of Data (approved
// record, live dashboard) and Review (unapproved record being walked) is set
// when a record exists; both are nil for the empty state.
type Session struct {
	ID        uuid.UUID         `json:"id"`
	PatientID string            `json:"patient_id"`
	Patient   *patients.Patient `json:"patient,omitempty"`

	Data      *dashboard.Data   `json:"data,omitempty"`
	Review    *review.Sequencer `json:"review,omitempty"`
	Reviewing bool              `json:"reviewing"`

	PendingRemoval *Removal `json:"pending_removal,omitempty"`

	// Message holds the last user-facing notice, e.g. a save confirmation.
	Message string `json:"message,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ActiveData returns the snapshot item mutations target: the pending review
// snapshot while reviewing, else the live dashboard. Nil in the empty state.
func (s *Session) ActiveData() *dashboard.Data {
	if s.Reviewing && s.Review != nil {
		return s.Review.Pending
	}
	return s.Data
}

// View is the response shape handlers return: the session plus the review
// step metadata clients render.
type View struct {
	*Session
	ReviewStep  *review.Step `json:"review_step,omitempty"`
	StepCurrent int          `json:"step_current,omitempty"`
	StepTotal   int          `json:"step_total,omitempty"`
}

// NewView decorates a session with its review progress.
func NewView(s *Session) *View {
	v := &View{Session: s}
	if s.Reviewing && s.Review != nil {
		step := s.Review.Step()
		v.ReviewStep = &step
		v.StepCurrent = s.Review.Cursor + 1
		v.StepTotal = len(review.Steps)
	}
	return v
}

// Package audit records the review trail: which session performed which
// transition on which patient record, and with what outcome. The trail is
// optional; without a database the service degrades to structured logging.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Actions recorded by the session service.
const (
	ActionLookup     = "lookup"
	ActionLoad       = "load"
	ActionInitialize = "initialize"
	ActionUpload     = "upload"
	ActionApprove    = "approve_step"
	ActionCommit     = "commit"
	ActionSave       = "save"
	ActionAddItem    = "add_item"
	ActionEditItem   = "edit_item"
	ActionRemoveItem = "remove_item"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Event is one review-trail entry.
type Event struct {
	ID        uuid.UUID `db:"id" json:"id"`
	SessionID uuid.UUID `db:"session_id" json:"session_id"`
	PatientID string    `db:"patient_id" json:"patient_id"`
	Actor     string    `db:"actor" json:"actor,omitempty"`
	Action    string    `db:"action" json:"action"`
	Category  string    `db:"category" json:"category,omitempty"`
	ItemID    string    `db:"item_id" json:"item_id,omitempty"`
	Outcome   string    `db:"outcome" json:"outcome"`
	Detail    string    `db:"detail" json:"detail,omitempty"`
	Recorded  time.Time `db:"recorded" json:"recorded"`
}

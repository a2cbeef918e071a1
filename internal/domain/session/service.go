package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mediview/mediview/internal/domain/audit"
	"github.com/mediview/mediview/internal/domain/dashboard"
	"github.com/mediview/mediview/internal/domain/review"
	"github.com/mediview/mediview/internal/platform/events"
	"github.com/mediview/mediview/internal/upstream/extraction"
	"github.com/mediview/mediview/internal/upstream/patients"
)

// Static notices surfaced to the user when an upstream call fails. The
// wording is fixed; diagnostic detail goes to the log, never the screen.
const (
	MsgPatientLookupFailed = "Patient ID not found or server connection failed."
	MsgPatientListFailed   = "Failed to load patient list."
	MsgPatientSelectFailed = "Failed to load clinical details for selected patient."
	MsgUploadFailed        = "Failed to process documents."
	MsgSaveFailed          = "Global save failed."
	MsgApproveFailed       = "Approval/Save failed."
	MsgSaved               = "All changes saved successfully."
)

// UserError pairs the static notice shown to the user with the underlying
// cause kept for logs.
type UserError struct {
	Notice string
	Err    error
}

func (e *UserError) Error() string { return e.Notice }
func (e *UserError) Unwrap() error { return e.Err }

// Domain errors handlers map to 4xx responses.
var (
	ErrNoRecord     = errors.New("no record loaded")
	ErrNotReviewing = errors.New("session is not in review")
	ErrReviewing    = errors.New("operation unavailable during review")
	ErrItemNotFound = errors.New("item not found")
	ErrNoRemoval    = errors.New("no removal staged")
)

// PatientDirectory is the slice of the patient service the controller needs.
type PatientDirectory interface {
	ListPatients(ctx context.Context) ([]patients.Patient, error)
	GetPatient(ctx context.Context, id string) (*patients.Patient, error)
}

// ExtractionAPI is the slice of the extraction service the controller needs.
type ExtractionAPI interface {
	GetExtraction(ctx context.Context, patientID string) (*extraction.Record, error)
	SaveExtraction(ctx context.Context, patientID string, payload *extraction.Extracted) error
	Upload(ctx context.Context, patientID, uploaderID string, files []extraction.UploadFile) (*extraction.AnalysisResponse, error)
}

// Service drives the review screen: every transition is one upstream
// round-trip at most, applied to the stored session and persisted before the
// response. Concurrent requests against one session race last-write-wins;
// the backend stays the source of truth either way.
type Service struct {
	store      Store
	patients   PatientDirectory
	extraction ExtractionAPI
	audit      *audit.Service
	events     *events.Publisher
	ids        *dashboard.IDGenerator
	uploaderID string
	logger     zerolog.Logger
	now        func() time.Time
}

func NewService(store Store, dir PatientDirectory, ext ExtractionAPI, trail *audit.Service, pub *events.Publisher, uploaderID string, logger zerolog.Logger) *Service {
	return &Service{
		store:      store,
		patients:   dir,
		extraction: ext,
		audit:      trail,
		events:     pub,
		ids:        dashboard.NewIDGenerator(),
		uploaderID: uploaderID,
		logger:     logger,
		now:        time.Now,
	}
}

// ListPatients is the directory passthrough backing the selection list.
func (s *Service) ListPatients(ctx context.Context) ([]patients.Patient, error) {
	list, err := s.patients.ListPatients(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("patient list failed")
		return nil, &UserError{Notice: MsgPatientListFailed, Err: err}
	}
	return list, nil
}

// GetPatient is the directory drill-down for a single patient.
func (s *Service) GetPatient(ctx context.Context, id string) (*patients.Patient, error) {
	p, err := s.patients.GetPatient(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("patient_id", id).Msg("patient fetch failed")
		return nil, &UserError{Notice: MsgPatientSelectFailed, Err: err}
	}
	return p, nil
}

// Start opens a session by direct patient-id lookup.
func (s *Service) Start(ctx context.Context, patientID, actor string) (*View, error) {
	return s.start(ctx, patientID, actor, MsgPatientLookupFailed)
}

// Select opens a session for a patient chosen from the list. Same flow as
// Start with the drill-down failure notice.
func (s *Service) Select(ctx context.Context, patientID, actor string) (*View, error) {
	return s.start(ctx, patientID, actor, MsgPatientSelectFailed)
}

func (s *Service) start(ctx context.Context, patientID, actor, notice string) (*View, error) {
	patient, err := s.patients.GetPatient(ctx, patientID)
	if err != nil {
		s.logger.Error().Err(err).Str("patient_id", patientID).Msg("patient lookup failed")
		s.audit.Record(ctx, audit.Event{
			PatientID: patientID,
			Actor:     actor,
			Action:    audit.ActionLookup,
			Outcome:   audit.OutcomeFailure,
			Detail:    err.Error(),
		})
		return nil, &UserError{Notice: notice, Err: err}
	}

	now := s.now()
	sess := &Session{
		ID:        uuid.New(),
		PatientID: patient.Key(),
		Patient:   patient,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.load(ctx, sess)

	if err := s.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Event{
		SessionID: sess.ID,
		PatientID: sess.PatientID,
		Actor:     actor,
		Action:    audit.ActionLookup,
	})
	return NewView(sess), nil
}

// load pulls the patient's extraction and sets the session mode from its
// approval flag. Any fetch failure or absent record lands in the empty
// state, where manual initialization remains available.
func (s *Service) load(ctx context.Context, sess *Session) {
	sess.Data = nil
	sess.Review = nil
	sess.Reviewing = false
	sess.PendingRemoval = nil

	rec, err := s.extraction.GetExtraction(ctx, sess.PatientID)
	if err != nil {
		s.logger.Warn().Err(err).Str("patient_id", sess.PatientID).Msg("no extraction loaded")
		return
	}
	if rec == nil || rec.ExtractedJSON == nil {
		return
	}

	data := dashboard.FromExtraction(rec.ExtractedJSON, s.now())
	if rec.ApprovalStatus == extraction.StatusApproved {
		sess.Data = data
		return
	}
	sess.Review = review.NewSequencer(data)
	sess.Reviewing = true
}

// Get returns the stored session.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*View, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewView(sess), nil
}

// Reload refetches the extraction, discarding in-flight edits.
func (s *Service) Reload(ctx context.Context, id uuid.UUID, actor string) (*View, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.load(ctx, sess)
	sess.Message = ""
	if err := s.put(ctx, sess); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Event{
		SessionID: sess.ID, PatientID: sess.PatientID, Actor: actor,
		Action: audit.ActionLoad,
	})
	return NewView(sess), nil
}

// Initialize starts a review over an empty record for patients with no
// extraction on file.
func (s *Service) Initialize(ctx context.Context, id uuid.UUID, actor string) (*View, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Data = nil
	sess.Review = review.NewSequencer(dashboard.NewData())
	sess.Reviewing = true
	sess.PendingRemoval = nil
	sess.Message = ""
	if err := s.put(ctx, sess); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Event{
		SessionID: sess.ID, PatientID: sess.PatientID, Actor: actor,
		Action: audit.ActionInitialize,
	})
	return NewView(sess), nil
}

// Upload forwards documents to the extraction service and reloads on
// success. The session is untouched when the upload fails.
func (s *Service) Upload(ctx context.Context, id uuid.UUID, actor string, files []extraction.UploadFile) (*View, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.extraction.Upload(ctx, sess.PatientID, s.uploaderID, files); err != nil {
		s.logger.Error().Err(err).Str("patient_id", sess.PatientID).Msg("upload failed")
		s.audit.Record(ctx, audit.Event{
			SessionID: sess.ID, PatientID: sess.PatientID, Actor: actor,
			Action: audit.ActionUpload, Outcome: audit.OutcomeFailure, Detail: err.Error(),
		})
		return nil, &UserError{Notice: MsgUploadFailed, Err: err}
	}

	s.load(ctx, sess)
	sess.Message = ""
	if err := s.put(ctx, sess); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Event{
		SessionID: sess.ID, PatientID: sess.PatientID, Actor: actor,
		Action: audit.ActionUpload, Detail: s.fileNames(files),
	})
	return NewView(sess), nil
}

// Save persists the live dashboard and reloads. On failure nothing changes.
func (s *Service) Save(ctx context.Context, id uuid.UUID, actor string) (*View, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Reviewing {
		return nil, ErrReviewing
	}
	if sess.Data == nil {
		return nil, ErrNoRecord
	}

	payload := dashboard.ToExtraction(sess.Data)
	if err := s.extraction.SaveExtraction(ctx, sess.PatientID, payload); err != nil {
		s.logger.Error().Err(err).Str("patient_id", sess.PatientID).Msg("save failed")
		s.audit.Record(ctx, audit.Event{
			SessionID: sess.ID, PatientID: sess.PatientID, Actor: actor,
			Action: audit.ActionSave, Outcome: audit.OutcomeFailure, Detail: err.Error(),
		})
		return nil, &UserError{Notice: MsgSaveFailed, Err: err}
	}

	s.load(ctx, sess)
	sess.Message = MsgSaved
	if err := s.put(ctx, sess); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Event{
		SessionID: sess.ID, PatientID: sess.PatientID, Actor: actor,
		Action: audit.ActionSave,
	})
	s.events.Publish(ctx, events.RecordSaved, sess.PatientID, sess.ID.String())
	return NewView(sess), nil
}

// ApproveStep confirms the current review step. Before the last step it
// advances the cursor. On the last step it persists the merged record and
// reloads; a failed persist keeps the sequencer on the terminal step with
// the accumulator intact so the same call can be retried.
func (s *Service) ApproveStep(ctx context.Context, id uuid.UUID, actor string) (*View, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.Reviewing || sess.Review == nil {
		return nil, ErrNotReviewing
	}

	category := string(sess.Review.Step().Category)
	final, done := sess.Review.Approve()
	if !done {
		if err := s.put(ctx, sess); err != nil {
			return nil, err
		}
		s.audit.Record(ctx, audit.Event{
			SessionID: sess.ID, PatientID: sess.PatientID, Actor: actor,
			Action: audit.ActionApprove, Category: category,
		})
		return NewView(sess), nil
	}

	payload := dashboard.ToExtraction(final)
	if err := s.extraction.SaveExtraction(ctx, sess.PatientID, payload); err != nil {
		s.logger.Error().Err(err).Str("patient_id", sess.PatientID).Msg("review commit failed")
		// Keep the terminal-step sequencer so the commit can be retried.
		if putErr := s.put(ctx, sess); putErr != nil {
			return nil, putErr
		}
		s.audit.Record(ctx, audit.Event{
			SessionID: sess.ID, PatientID: sess.PatientID, Actor: actor,
			Action: audit.ActionCommit, Outcome: audit.OutcomeFailure, Detail: err.Error(),
		})
		return nil, &UserError{Notice: MsgApproveFailed, Err: err}
	}

	s.load(ctx, sess)
	sess.Message = MsgSaved
	if err := s.put(ctx, sess); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Event{
		SessionID: sess.ID, PatientID: sess.PatientID, Actor: actor,
		Action: audit.ActionCommit,
	})
	s.events.Publish(ctx, events.RecordApproved, sess.PatientID, sess.ID.String())
	return NewView(sess), nil
}

// ResetStep empties the current review category.
func (s *Service) ResetStep(ctx context.Context, id uuid.UUID, actor string) (*View, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.Reviewing || sess.Review == nil {
		return nil, ErrNotReviewing
	}
	sess.Review.ResetStep()
	if err := s.put(ctx, sess); err != nil {
		return nil, err
	}
	return NewView(sess), nil
}

// AddItem prepends a manually entered record with category defaults.
func (s *Service) AddItem(ctx context.Context, id uuid.UUID, actor string, c dashboard.Category, raw json.RawMessage) (*View, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	data := sess.ActiveData()
	if data == nil {
		return nil, ErrNoRecord
	}

	itemID := s.ids.Manual()
	today := s.now().Format("2006-01-02")
	if err := data.AddManual(c, itemID, today, raw); err != nil {
		return nil, err
	}
	if err := s.put(ctx, sess); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Event{
		SessionID: sess.ID, PatientID: sess.PatientID, Actor: actor,
		Action: audit.ActionAddItem, Category: string(c), ItemID: itemID,
	})
	return NewView(sess), nil
}

// EditItem decodes the submitted fields over the existing record. The id is
// never overwritten.
func (s *Service) EditItem(ctx context.Context, id uuid.UUID, actor string, c dashboard.Category, itemID string, raw json.RawMessage) (*View, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	data := sess.ActiveData()
	if data == nil {
		return nil, ErrNoRecord
	}

	found, err := data.UpdateItem(c, itemID, raw)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrItemNotFound
	}
	if err := s.put(ctx, sess); err != nil {
		return nil, err
	}
	s.audit.Record(ctx, audit.Event{
		SessionID: sess.ID, PatientID: sess.PatientID, Actor: actor,
		Action: audit.ActionEditItem, Category: string(c), ItemID: itemID,
	})
	return NewView(sess), nil
}

// StageRemove marks an item for deletion pending confirmation. Nothing is
// removed until ConfirmRemove.
func (s *Service) StageRemove(ctx context.Context, id uuid.UUID, c dashboard.Category, itemID string) (*View, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.ActiveData() == nil {
		return nil, ErrNoRecord
	}
	sess.PendingRemoval = &Removal{Category: c, ItemID: itemID}
	if err := s.put(ctx, sess); err != nil {
		return nil, err
	}
	return NewView(sess), nil
}

// ConfirmRemove applies the staged removal. Removing an id that no longer
// exists is a silent no-op, matching a stale confirmation dialog.
func (s *Service) ConfirmRemove(ctx context.Context, id uuid.UUID, actor string) (*View, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.PendingRemoval == nil {
		return nil, ErrNoRemoval
	}

	removal := *sess.PendingRemoval
	sess.PendingRemoval = nil
	if data := sess.ActiveData(); data != nil {
		if data.RemoveItem(removal.Category, removal.ItemID) {
			s.audit.Record(ctx, audit.Event{
				SessionID: sess.ID, PatientID: sess.PatientID, Actor: actor,
				Action: audit.ActionRemoveItem, Category: string(removal.Category), ItemID: removal.ItemID,
			})
		}
	}
	if err := s.put(ctx, sess); err != nil {
		return nil, err
	}
	return NewView(sess), nil
}

// CancelRemove discards the staged removal.
func (s *Service) CancelRemove(ctx context.Context, id uuid.UUID) (*View, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.PendingRemoval = nil
	if err := s.put(ctx, sess); err != nil {
		return nil, err
	}
	return NewView(sess), nil
}

// End discards the session unconditionally, in-flight edits included.
func (s *Service) End(ctx context.Context, id uuid.UUID) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) put(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = s.now()
	return s.store.Put(ctx, sess)
}

func (s *Service) fileNames(files []extraction.UploadFile) string {
	names := make([]byte, 0, 64)
	for i, f := range files {
		if i > 0 {
			names = append(names, ',')
		}
		names = append(names, f.FileName...)
	}
	return string(names)
}

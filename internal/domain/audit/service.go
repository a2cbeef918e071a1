package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service records review-trail events. A nil *Service is valid and records
// nothing, so callers never have to guard the optional trail. Recording
// failures are logged, never propagated: the trail must not break a review.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Record(ctx context.Context, e Event) {
	if s == nil {
		return
	}
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Recorded.IsZero() {
		e.Recorded = time.Now()
	}
	if e.Outcome == "" {
		e.Outcome = OutcomeSuccess
	}
	if s.repo == nil {
		s.logger.Info().
			Str("patient_id", e.PatientID).
			Str("action", e.Action).
			Str("category", e.Category).
			Str("outcome", e.Outcome).
			Msg("review audit")
		return
	}
	if err := s.repo.Insert(ctx, &e); err != nil {
		s.logger.Error().Err(err).
			Str("patient_id", e.PatientID).
			Str("action", e.Action).
			Msg("failed to record audit event")
	}
}

func (s *Service) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Event, int, error) {
	if s == nil || s.repo == nil {
		return []*Event{}, 0, nil
	}
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

package service

import (
	"context"
	"strings"
	"time"

	obsmetrics "github.com/smallbiznis/warrantyhub/internal/observability/metrics"
	"github.com/smallbiznis/warrantyhub/internal/warranty/domain"
	"gorm.io/gorm"
)

func (s *Service) AddNote(ctx context.Context, actor domain.Actor, req domain.AddNoteRequest) (result domain.NoteResult, err error) {
	start := time.Now()
	defer func() { s.observe(obsmetrics.OperationNote, start, err) }()

	scope, err := s.scope(ctx, actor)
	if err != nil {
		return domain.NoteResult{}, err
	}
	claimID, err := parseClaimID(req.ClaimID)
	if err != nil {
		return domain.NoteResult{}, err
	}
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return domain.NoteResult{}, domain.ErrInvalidNoteContent
	}

	var note domain.Note
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		claim, err := s.lockVisibleClaim(ctx, tx, scope, claimID)
		if err != nil {
			return err
		}
		if req.IsInternal && !scope.CanSeeInternalNotes {
			return domain.ErrForbidden
		}

		note = domain.Note{
			ID:         s.genID.Generate(),
			ClaimID:    claim.ID,
			UserID:     actor.UserID,
			Content:    content,
			IsInternal: req.IsInternal,
			CreatedAt:  s.now(),
		}
		if err := s.repo.InsertNote(ctx, tx, &note); err != nil {
			return err
		}
		return s.audit(ctx, tx, actor, "add_note", claim, map[string]any{
			"note_id":     note.ID.String(),
			"is_internal": note.IsInternal,
		})
	})
	if err != nil {
		return domain.NoteResult{}, s.internal(ctx, "add_note", err)
	}

	return domain.NoteResult{NoteID: note.ID}, nil
}

func (s *Service) ListNotes(ctx context.Context, actor domain.Actor, claimID string) ([]domain.Note, error) {
	scope, err := s.scope(ctx, actor)
	if err != nil {
		return nil, err
	}
	id, err := parseClaimID(claimID)
	if err != nil {
		return nil, err
	}
	claim, err := s.loadVisibleClaim(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	notes, err := s.repo.ListNotes(ctx, s.db, claim.ID)
	if err != nil {
		return nil, s.internal(ctx, "list_notes", err)
	}
	return scope.VisibleNotes(notes), nil
}

func (s *Service) ListHistory(ctx context.Context, actor domain.Actor, claimID string) ([]domain.StatusHistory, error) {
	scope, err := s.scope(ctx, actor)
	if err != nil {
		return nil, err
	}
	id, err := parseClaimID(claimID)
	if err != nil {
		return nil, err
	}
	claim, err := s.loadVisibleClaim(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListHistory(ctx, s.db, claim.ID)
	if err != nil {
		return nil, s.internal(ctx, "list_history", err)
	}
	return history, nil
}

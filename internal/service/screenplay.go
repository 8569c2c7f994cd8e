package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tahmid/screenroom/internal/apperror"
	"github.com/tahmid/screenroom/internal/model"
	"github.com/tahmid/screenroom/internal/repository"
)

// Validation limits for screenplay fields. The short fields match the
// original column widths; Description is effectively free text.
const (
	MaxTitleLength       = 140
	MaxLoglineLength     = 255
	MaxShortFieldLength  = 140
	MaxDescriptionLength = 10000
)

// ScreenplayInput carries the editable fields of a screenplay. Handlers
// build it from the form body; everything here has already been sanitized
// at the boundary.
type ScreenplayInput struct {
	Title            string
	Logline          string
	DramaticQuestion string
	Genre1           string
	Genre2           string
	Genre3           string
	NarrativeType    string
	Description      string
}

// ScreenplayService handles business logic for screenplays. Every
// operation takes the acting user's ID and routes ownership through the
// Gate — there is no path to another user's screenplay.
type ScreenplayService struct {
	repo   repository.ScreenplayRepository
	gate   *Gate
	logger *slog.Logger
}

// NewScreenplayService creates a ScreenplayService.
func NewScreenplayService(repo repository.ScreenplayRepository, gate *Gate, logger *slog.Logger) *ScreenplayService {
	return &ScreenplayService{
		repo:   repo,
		gate:   gate,
		logger: logger,
	}
}

// validate checks the input against the field limits. Title is the only
// required field.
func (in *ScreenplayInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)

	if in.Title == "" {
		return apperror.ValidationFailed("title", "title is required")
	}
	if len(in.Title) > MaxTitleLength {
		return apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if len(in.Logline) > MaxLoglineLength {
		return apperror.ValidationFailed("logline",
			fmt.Sprintf("logline must be %d characters or less", MaxLoglineLength))
	}
	for field, v := range map[string]string{
		"dramatic_question": in.DramaticQuestion,
		"genre1":            in.Genre1,
		"genre2":            in.Genre2,
		"genre3":            in.Genre3,
		"narrative_type":    in.NarrativeType,
	} {
		if len(v) > MaxShortFieldLength {
			return apperror.ValidationFailed(field,
				fmt.Sprintf("%s must be %d characters or less", field, MaxShortFieldLength))
		}
	}
	if len(in.Description) > MaxDescriptionLength {
		return apperror.ValidationFailed("description",
			fmt.Sprintf("description must be %d characters or less", MaxDescriptionLength))
	}
	return nil
}

func (in *ScreenplayInput) apply(sp *model.Screenplay) {
	sp.Title = in.Title
	sp.Logline = strings.TrimSpace(in.Logline)
	sp.DramaticQuestion = strings.TrimSpace(in.DramaticQuestion)
	sp.Genre1 = strings.TrimSpace(in.Genre1)
	sp.Genre2 = strings.TrimSpace(in.Genre2)
	sp.Genre3 = strings.TrimSpace(in.Genre3)
	sp.NarrativeType = strings.TrimSpace(in.NarrativeType)
	sp.Description = strings.TrimSpace(in.Description)
}

// Create validates and saves a new screenplay owned by the actor.
func (s *ScreenplayService) Create(ctx context.Context, actorID string, in ScreenplayInput) (*model.Screenplay, error) {
	if actorID == "" {
		return nil, apperror.Unauthenticated()
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	sp := &model.Screenplay{UserID: actorID}
	in.apply(sp)

	if err := s.repo.Create(ctx, sp); err != nil {
		s.logger.Error("failed to create screenplay",
			slog.String("userID", actorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating screenplay: %w", err)
	}

	s.logger.Info("screenplay created",
		slog.String("id", sp.ID),
		slog.String("userID", actorID),
		slog.String("title", sp.Title),
	)

	return sp, nil
}

// Get returns a screenplay the actor owns.
func (s *ScreenplayService) Get(ctx context.Context, actorID, id string) (*model.Screenplay, error) {
	return s.gate.AuthorizeScreenplay(ctx, actorID, id)
}

// ListOwn returns the actor's screenplays, newest first. No gate call
// needed: the query is scoped to the actor's own user ID, so it cannot
// return anyone else's rows regardless of what the request asked for.
func (s *ScreenplayService) ListOwn(ctx context.Context, actorID string) ([]model.Screenplay, error) {
	if actorID == "" {
		return nil, apperror.Unauthenticated()
	}

	screenplays, err := s.repo.ListByOwner(ctx, actorID)
	if err != nil {
		s.logger.Error("failed to list screenplays",
			slog.String("userID", actorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing screenplays: %w", err)
	}

	return screenplays, nil
}

// Update overwrites the editable fields of a screenplay the actor owns.
func (s *ScreenplayService) Update(ctx context.Context, actorID, id string, in ScreenplayInput) (*model.Screenplay, error) {
	sp, err := s.gate.AuthorizeScreenplay(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	in.apply(sp)

	if err := s.repo.Update(ctx, sp); err != nil {
		s.logger.Error("failed to update screenplay",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating screenplay: %w", err)
	}

	s.logger.Info("screenplay updated", slog.String("id", sp.ID))
	return sp, nil
}

// Delete removes a screenplay the actor owns, and with it every scene it
// contains.
func (s *ScreenplayService) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.gate.AuthorizeScreenplay(ctx, actorID, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("screenplay deleted",
		slog.String("id", id),
		slog.String("userID", actorID),
	)
	return nil
}

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

// Validation limits for scene fields.
const (
	MaxSluglineLength    = 140
	MaxPlotSectionLength = 140
	MaxContentLength     = 200000 // ~200KB of screenplay text
)

// SceneInput carries the editable fields of a scene. Sequence is absent on
// purpose: position is assigned on create and changed only through Move.
type SceneInput struct {
	Slugline    string
	Content     string
	Description string
	PlotSection string
}

// SceneService handles business logic for scenes. Ownership is transitive
// through the parent screenplay, so every operation authorizes against the
// Gate before touching the scene repository.
type SceneService struct {
	scenes repository.SceneRepository
	gate   *Gate
	logger *slog.Logger
}

// NewSceneService creates a SceneService.
func NewSceneService(scenes repository.SceneRepository, gate *Gate, logger *slog.Logger) *SceneService {
	return &SceneService{
		scenes: scenes,
		gate:   gate,
		logger: logger,
	}
}

func (in *SceneInput) validate() error {
	in.Slugline = strings.TrimSpace(in.Slugline)

	if in.Slugline == "" {
		return apperror.ValidationFailed("slugline", "slugline is required")
	}
	if len(in.Slugline) > MaxSluglineLength {
		return apperror.ValidationFailed("slugline",
			fmt.Sprintf("slugline must be %d characters or less", MaxSluglineLength))
	}
	if len(in.Content) > MaxContentLength {
		return apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxContentLength))
	}
	if len(in.PlotSection) > MaxPlotSectionLength {
		return apperror.ValidationFailed("plot_section",
			fmt.Sprintf("plot_section must be %d characters or less", MaxPlotSectionLength))
	}
	return nil
}

func (in *SceneInput) apply(scene *model.Scene) {
	scene.Slugline = in.Slugline
	scene.Content = in.Content
	scene.Description = strings.TrimSpace(in.Description)
	scene.PlotSection = strings.TrimSpace(in.PlotSection)
}

// Create appends a new scene to a screenplay the actor owns. The repository
// assigns the sequence number; the caller has no say in it.
func (s *SceneService) Create(ctx context.Context, actorID, screenplayID string, in SceneInput) (*model.Scene, error) {
	if _, err := s.gate.AuthorizeScreenplay(ctx, actorID, screenplayID); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	scene := &model.Scene{ScreenplayID: screenplayID}
	in.apply(scene)

	if err := s.scenes.Create(ctx, scene); err != nil {
		s.logger.Error("failed to create scene",
			slog.String("screenplayID", screenplayID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating scene: %w", err)
	}

	s.logger.Info("scene created",
		slog.String("id", scene.ID),
		slog.String("screenplayID", screenplayID),
		slog.Int("sequence", scene.Sequence),
	)

	return scene, nil
}

// Get returns a scene whose parent screenplay the actor owns.
func (s *SceneService) Get(ctx context.Context, actorID, id string) (*model.Scene, error) {
	scene, err := s.scenes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.AuthorizeScene(ctx, actorID, scene); err != nil {
		return nil, err
	}
	return scene, nil
}

// List returns the scenes of a screenplay the actor owns, in playing order.
func (s *SceneService) List(ctx context.Context, actorID, screenplayID string) ([]model.Scene, error) {
	if _, err := s.gate.AuthorizeScreenplay(ctx, actorID, screenplayID); err != nil {
		return nil, err
	}

	scenes, err := s.scenes.ListByScreenplay(ctx, screenplayID)
	if err != nil {
		s.logger.Error("failed to list scenes",
			slog.String("screenplayID", screenplayID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing scenes: %w", err)
	}

	return scenes, nil
}

// Update rewrites a scene's content fields. The scene's position is
// untouched no matter what the request carried.
func (s *SceneService) Update(ctx context.Context, actorID, id string, in SceneInput) (*model.Scene, error) {
	scene, err := s.Get(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	in.apply(scene)

	if err := s.scenes.Update(ctx, scene); err != nil {
		s.logger.Error("failed to update scene",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating scene: %w", err)
	}

	s.logger.Info("scene updated", slog.String("id", scene.ID))
	return scene, nil
}

// Delete removes a scene and lets the repository close the sequence gap it
// leaves behind.
func (s *SceneService) Delete(ctx context.Context, actorID, id string) error {
	if _, err := s.Get(ctx, actorID, id); err != nil {
		return err
	}

	if err := s.scenes.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("scene deleted", slog.String("id", id))
	return nil
}

// Move places a scene at the given 1-based position within its screenplay.
func (s *SceneService) Move(ctx context.Context, actorID, id string, position int) (*model.Scene, error) {
	if _, err := s.Get(ctx, actorID, id); err != nil {
		return nil, err
	}
	if position < 1 {
		return nil, apperror.ValidationFailed("position", "position must be a positive integer")
	}

	if err := s.scenes.Move(ctx, id, position); err != nil {
		s.logger.Error("failed to move scene",
			slog.String("id", id),
			slog.Int("position", position),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("moving scene: %w", err)
	}

	scene, err := s.scenes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.logger.Info("scene moved",
		slog.String("id", id),
		slog.Int("sequence", scene.Sequence),
	)
	return scene, nil
}

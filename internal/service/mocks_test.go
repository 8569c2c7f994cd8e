package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/tahmid/screenroom/internal/apperror"
	"github.com/tahmid/screenroom/internal/auth"
	"github.com/tahmid/screenroom/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// Hand-written in-memory fakes of the repository interfaces. The services
// only see the interfaces, so these swap in for the sqlite implementation
// with no test database at all.

type mockUserRepo struct {
	users  map[string]*model.User
	nextID int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Username == user.Username {
			return apperror.DuplicateIdentity("username", user.Username)
		}
		if u.Email == user.Email {
			return apperror.DuplicateIdentity("email", user.Email)
		}
	}
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

type mockScreenplayRepo struct {
	screenplays map[string]*model.Screenplay
	nextID      int
}

func newMockScreenplayRepo() *mockScreenplayRepo {
	return &mockScreenplayRepo{screenplays: make(map[string]*model.Screenplay)}
}

func (m *mockScreenplayRepo) Create(_ context.Context, sp *model.Screenplay) error {
	m.nextID++
	sp.ID = fmt.Sprintf("sp-%d", m.nextID)
	sp.TotalScenes = 0
	sp.CreatedAt = time.Now()
	sp.UpdatedAt = sp.CreatedAt
	stored := *sp
	m.screenplays[sp.ID] = &stored
	return nil
}

func (m *mockScreenplayRepo) GetByID(_ context.Context, id string) (*model.Screenplay, error) {
	sp, ok := m.screenplays[id]
	if !ok {
		return nil, apperror.NotFound("screenplay", id)
	}
	result := *sp
	return &result, nil
}

func (m *mockScreenplayRepo) ListByOwner(_ context.Context, userID string) ([]model.Screenplay, error) {
	result := []model.Screenplay{}
	for _, sp := range m.screenplays {
		if sp.UserID == userID {
			result = append(result, *sp)
		}
	}
	// Newest first; mock IDs are sequential so sort by ID descending.
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

func (m *mockScreenplayRepo) Update(_ context.Context, sp *model.Screenplay) error {
	if _, ok := m.screenplays[sp.ID]; !ok {
		return apperror.NotFound("screenplay", sp.ID)
	}
	stored := *sp
	m.screenplays[sp.ID] = &stored
	return nil
}

func (m *mockScreenplayRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.screenplays[id]; !ok {
		return apperror.NotFound("screenplay", id)
	}
	delete(m.screenplays, id)
	return nil
}

type mockSceneRepo struct {
	scenes map[string]*model.Scene
	nextID int
}

func newMockSceneRepo() *mockSceneRepo {
	return &mockSceneRepo{scenes: make(map[string]*model.Scene)}
}

func (m *mockSceneRepo) byScreenplay(screenplayID string) []*model.Scene {
	var result []*model.Scene
	for _, s := range m.scenes {
		if s.ScreenplayID == screenplayID {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Sequence < result[j].Sequence })
	return result
}

func (m *mockSceneRepo) Create(_ context.Context, scene *model.Scene) error {
	next := 1
	for _, s := range m.scenes {
		if s.ScreenplayID == scene.ScreenplayID && s.Sequence >= next {
			next = s.Sequence + 1
		}
	}
	m.nextID++
	scene.ID = fmt.Sprintf("scene-%d", m.nextID)
	scene.Sequence = next
	scene.Index = next
	scene.CreatedAt = time.Now()
	scene.UpdatedAt = scene.CreatedAt
	stored := *scene
	m.scenes[scene.ID] = &stored
	return nil
}

func (m *mockSceneRepo) GetByID(_ context.Context, id string) (*model.Scene, error) {
	s, ok := m.scenes[id]
	if !ok {
		return nil, apperror.NotFound("scene", id)
	}
	result := *s
	return &result, nil
}

func (m *mockSceneRepo) ListByScreenplay(_ context.Context, screenplayID string) ([]model.Scene, error) {
	result := []model.Scene{}
	for _, s := range m.byScreenplay(screenplayID) {
		result = append(result, *s)
	}
	return result, nil
}

func (m *mockSceneRepo) Update(_ context.Context, scene *model.Scene) error {
	existing, ok := m.scenes[scene.ID]
	if !ok {
		return apperror.NotFound("scene", scene.ID)
	}
	stored := *scene
	// Sequence is immutable through Update, like the real repository.
	stored.Sequence = existing.Sequence
	stored.Index = existing.Index
	m.scenes[scene.ID] = &stored
	return nil
}

func (m *mockSceneRepo) Delete(_ context.Context, id string) error {
	victim, ok := m.scenes[id]
	if !ok {
		return apperror.NotFound("scene", id)
	}
	delete(m.scenes, id)
	for _, s := range m.scenes {
		if s.ScreenplayID == victim.ScreenplayID && s.Sequence > victim.Sequence {
			s.Sequence--
			s.Index--
		}
	}
	return nil
}

func (m *mockSceneRepo) Move(_ context.Context, id string, position int) error {
	moving, ok := m.scenes[id]
	if !ok {
		return apperror.NotFound("scene", id)
	}
	siblings := m.byScreenplay(moving.ScreenplayID)
	if position > len(siblings) {
		position = len(siblings)
	}
	if position < 1 {
		position = 1
	}
	from := moving.Sequence
	for _, s := range siblings {
		switch {
		case s.ID == id:
			s.Sequence = position
			s.Index = position
		case from < position && s.Sequence > from && s.Sequence <= position:
			s.Sequence--
			s.Index--
		case from > position && s.Sequence >= position && s.Sequence < from:
			s.Sequence++
			s.Index++
		}
	}
	return nil
}

// testLogger discards everything below error level so test output stays
// readable.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestAuthService wires an AuthService over mocks with fast bcrypt.
func newTestAuthService(t *testing.T) (*AuthService, *mockUserRepo) {
	t.Helper()
	users := newMockUserRepo()
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	passwords := auth.NewPasswordService(bcrypt.MinCost)
	return NewAuthService(users, tokens, passwords, testLogger()), users
}

// newTestScreenplayService wires a ScreenplayService plus the gate.
func newTestScreenplayService(t *testing.T) (*ScreenplayService, *mockScreenplayRepo) {
	t.Helper()
	repo := newMockScreenplayRepo()
	return NewScreenplayService(repo, NewGate(repo), testLogger()), repo
}

// newTestSceneService wires a SceneService over both mocks.
func newTestSceneService(t *testing.T) (*SceneService, *mockScreenplayRepo, *mockSceneRepo) {
	t.Helper()
	screenplays := newMockScreenplayRepo()
	scenes := newMockSceneRepo()
	return NewSceneService(scenes, NewGate(screenplays), testLogger()), screenplays, scenes
}

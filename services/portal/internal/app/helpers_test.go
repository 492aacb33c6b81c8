package app

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"campusportal/pkg/domain"
	"campusportal/pkg/storage"
	"campusportal/pkg/store"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.Notification
	err    error
}

func (p *fakePublisher) PublishNotification(_ context.Context, n domain.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, n)
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

type fakeObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeObjects) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[key]; !ok {
		return "", storage.ErrObjectNotFound
	}
	return "https://objects.test/" + key + "?sig=1", nil
}

func (f *fakeObjects) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

// tickingClock returns strictly increasing times so ordering is deterministic.
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	now := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

type fixture struct {
	app       *App
	store     *store.MemoryStore
	publisher *fakePublisher
	objects   *fakeObjects
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	st := store.NewMemoryStore(nil)
	pub := &fakePublisher{}
	objs := newFakeObjects()
	a, err := New(Config{
		Store:     st,
		Objects:   objs,
		Publisher: pub,
		Clock:     tickingClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return fixture{app: a, store: st, publisher: pub, objects: objs}
}

func (f fixture) signUp(t *testing.T, name, email string, role domain.UserRole) domain.User {
	t.Helper()
	u, err := f.app.SignUp(context.Background(), SignUpInput{Name: name, Email: email, Password: "password", Role: role})
	if err != nil {
		t.Fatalf("sign up %s: %v", email, err)
	}
	return u
}

func (f fixture) student(t *testing.T, email string, skills ...string) domain.User {
	t.Helper()
	u := f.signUp(t, "Student "+email, email, domain.RoleStudent)
	_, err := f.app.UpdateStudentProfile(context.Background(), u.ID, StudentProfileInput{
		Major:  "Computer Science",
		Skills: skills,
		Education: &domain.EducationRecord{
			Secondary:       domain.Education{Percentage: ptr(90.0)},
			HigherSecondary: domain.Education{Percentage: ptr(90.0)},
			College:         domain.Education{GPA: ptr(8.5)},
		},
	})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	return u
}

func (f fixture) post(t *testing.T, clientID string, in PostInput) domain.Post {
	t.Helper()
	p, err := f.app.CreatePost(context.Background(), clientID, in)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func (f fixture) notifications(t *testing.T, userID string) []domain.Notification {
	t.Helper()
	ns, err := f.app.ListNotifications(context.Background(), userID)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	return ns
}

func mustErr(t *testing.T, err, want error) {
	t.Helper()
	if !errors.Is(err, want) {
		t.Fatalf("expected %v, got %v", want, err)
	}
}


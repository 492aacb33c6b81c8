package store

import (
	"strings"

	"campusportal/pkg/domain"
)

type graph struct {
	users            *table[domain.User]
	emails           map[string]string // normalized email -> user ID
	students         *table[domain.StudentProfile]
	clients          *table[domain.ClientProfile]
	posts            *table[domain.Post]
	applications     *table[domain.Application]
	applicationPairs map[string]string // student|post -> application ID
	notifications    *table[domain.Notification]
	meetings         *table[domain.Meeting]
	tests            *table[domain.AptitudeTest]
	attempts         *table[domain.TestAttempt]
}

func newGraph() *graph {
	return &graph{
		users:            newTable[domain.User](),
		emails:           make(map[string]string),
		students:         newTable[domain.StudentProfile](),
		clients:          newTable[domain.ClientProfile](),
		posts:            newTable[domain.Post](),
		applications:     newTable[domain.Application](),
		applicationPairs: make(map[string]string),
		notifications:    newTable[domain.Notification](),
		meetings:         newTable[domain.Meeting](),
		tests:            newTable[domain.AptitudeTest](),
		attempts:         newTable[domain.TestAttempt](),
	}
}

func (g *graph) snapshot() Snapshot {
	users := g.users.all()
	creds := make(map[string]string, len(users))
	for _, u := range users {
		if u.PasswordHash != "" {
			creds[u.ID] = u.PasswordHash
		}
	}
	return Snapshot{
		Users:           users,
		Credentials:     creds,
		StudentProfiles: g.students.all(),
		ClientProfiles:  g.clients.all(),
		Posts:           g.posts.all(),
		Applications:    g.applications.all(),
		Notifications:   g.notifications.all(),
		Meetings:        g.meetings.all(),
		AptitudeTests:   g.tests.all(),
		TestAttempts:    g.attempts.all(),
	}
}

func graphFromSnapshot(snap Snapshot) *graph {
	g := newGraph()
	for _, u := range snap.Users {
		if hash, ok := snap.Credentials[u.ID]; ok {
			u.PasswordHash = hash
		}
		g.users.put(u.ID, u)
		g.emails[normalizeEmail(u.Email)] = u.ID
	}
	for _, p := range snap.StudentProfiles {
		g.students.put(p.UserID, p)
	}
	for _, p := range snap.ClientProfiles {
		g.clients.put(p.UserID, p)
	}
	for _, p := range snap.Posts {
		g.posts.put(p.ID, p)
	}
	for _, a := range snap.Applications {
		g.applications.put(a.ID, a)
		g.applicationPairs[pairKey(a.StudentID, a.PostID)] = a.ID
	}
	for _, n := range snap.Notifications {
		g.notifications.put(n.ID, n)
	}
	for _, m := range snap.Meetings {
		g.meetings.put(m.ID, m)
	}
	for _, t := range snap.AptitudeTests {
		g.tests.put(t.ID, t)
	}
	for _, a := range snap.TestAttempts {
		g.attempts.put(a.ID, a)
	}
	return g
}

func pairKey(studentID, postID string) string {
	return studentID + "|" + postID
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

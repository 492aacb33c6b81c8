package store

import (
	"errors"

	"campusportal/pkg/domain"
)

// ErrNotFound is returned when replacing a record that does not exist.
var ErrNotFound = errors.New("record not found")

// Tx is a view of the graph handed to Update and View callbacks.
// Getters return copies by value; callers replace records wholesale through
// the Put/Insert methods and never modify returned slices or maps in place.
type Tx struct {
	g        *graph
	writable bool
	undo     []func()
}

func (tx *Tx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
}

func (tx *Tx) mutable() error {
	if !tx.writable {
		return ErrReadOnly
	}
	return nil
}

func insertRow[T any](tx *Tx, t *table[T], id string, v T) error {
	if err := tx.mutable(); err != nil {
		return err
	}
	if _, exists := t.get(id); exists {
		return ErrDuplicate
	}
	tx.undo = append(tx.undo, t.put(id, v))
	return nil
}

func replaceRow[T any](tx *Tx, t *table[T], id string, v T) error {
	if err := tx.mutable(); err != nil {
		return err
	}
	if _, exists := t.get(id); !exists {
		return ErrNotFound
	}
	tx.undo = append(tx.undo, t.put(id, v))
	return nil
}

func upsertRow[T any](tx *Tx, t *table[T], id string, v T) error {
	if err := tx.mutable(); err != nil {
		return err
	}
	tx.undo = append(tx.undo, t.put(id, v))
	return nil
}

func filterRows[T any](t *table[T], keep func(T) bool) []T {
	res := []T{}
	t.each(func(v T) bool {
		if keep(v) {
			res = append(res, v)
		}
		return true
	})
	return res
}

func firstRow[T any](t *table[T], match func(T) bool) (T, bool) {
	var found T
	ok := false
	t.each(func(v T) bool {
		if match(v) {
			found, ok = v, true
			return false
		}
		return true
	})
	return found, ok
}

// users

func (tx *Tx) User(id string) (domain.User, bool) {
	return tx.g.users.get(id)
}

func (tx *Tx) UserByEmail(email string) (domain.User, bool) {
	id, ok := tx.g.emails[normalizeEmail(email)]
	if !ok {
		return domain.User{}, false
	}
	return tx.g.users.get(id)
}

func (tx *Tx) UserCount() int {
	return tx.g.users.len()
}

// InsertUser adds a user; email addresses are unique case-insensitively.
func (tx *Tx) InsertUser(u domain.User) error {
	key := normalizeEmail(u.Email)
	if _, taken := tx.g.emails[key]; taken {
		return ErrDuplicate
	}
	if err := insertRow(tx, tx.g.users, u.ID, u); err != nil {
		return err
	}
	tx.g.emails[key] = u.ID
	tx.undo = append(tx.undo, func() { delete(tx.g.emails, key) })
	return nil
}

// profiles

func (tx *Tx) StudentProfile(userID string) (domain.StudentProfile, bool) {
	return tx.g.students.get(userID)
}

func (tx *Tx) StudentProfiles() []domain.StudentProfile {
	return tx.g.students.all()
}

func (tx *Tx) PutStudentProfile(p domain.StudentProfile) error {
	return upsertRow(tx, tx.g.students, p.UserID, p)
}

func (tx *Tx) ClientProfile(userID string) (domain.ClientProfile, bool) {
	return tx.g.clients.get(userID)
}

func (tx *Tx) PutClientProfile(p domain.ClientProfile) error {
	return upsertRow(tx, tx.g.clients, p.UserID, p)
}

// posts

func (tx *Tx) Post(id string) (domain.Post, bool) {
	return tx.g.posts.get(id)
}

func (tx *Tx) Posts() []domain.Post {
	return tx.g.posts.all()
}

func (tx *Tx) PostsByClient(clientID string) []domain.Post {
	return filterRows(tx.g.posts, func(p domain.Post) bool { return p.ClientID == clientID })
}

func (tx *Tx) InsertPost(p domain.Post) error {
	return insertRow(tx, tx.g.posts, p.ID, p)
}

// applications

func (tx *Tx) Application(id string) (domain.Application, bool) {
	return tx.g.applications.get(id)
}

// ApplicationFor returns the single application a student holds for a post.
func (tx *Tx) ApplicationFor(studentID, postID string) (domain.Application, bool) {
	id, ok := tx.g.applicationPairs[pairKey(studentID, postID)]
	if !ok {
		return domain.Application{}, false
	}
	return tx.g.applications.get(id)
}

func (tx *Tx) ApplicationsByPost(postID string) []domain.Application {
	return filterRows(tx.g.applications, func(a domain.Application) bool { return a.PostID == postID })
}

func (tx *Tx) ApplicationsByStudent(studentID string) []domain.Application {
	return filterRows(tx.g.applications, func(a domain.Application) bool { return a.StudentID == studentID })
}

// InsertApplication enforces at most one application per (student, post).
func (tx *Tx) InsertApplication(a domain.Application) error {
	key := pairKey(a.StudentID, a.PostID)
	if _, taken := tx.g.applicationPairs[key]; taken {
		return ErrDuplicate
	}
	if err := insertRow(tx, tx.g.applications, a.ID, a); err != nil {
		return err
	}
	tx.g.applicationPairs[key] = a.ID
	tx.undo = append(tx.undo, func() { delete(tx.g.applicationPairs, key) })
	return nil
}

// PutApplication replaces an existing application. Student and post are immutable.
func (tx *Tx) PutApplication(a domain.Application) error {
	current, ok := tx.g.applications.get(a.ID)
	if !ok {
		return ErrNotFound
	}
	if current.StudentID != a.StudentID || current.PostID != a.PostID {
		return errors.New("application student and post cannot change")
	}
	return replaceRow(tx, tx.g.applications, a.ID, a)
}

// aptitude tests

func (tx *Tx) Test(id string) (domain.AptitudeTest, bool) {
	return tx.g.tests.get(id)
}

// TestForPost returns the first test authored for a post.
func (tx *Tx) TestForPost(postID string) (domain.AptitudeTest, bool) {
	return firstRow(tx.g.tests, func(t domain.AptitudeTest) bool { return t.PostID == postID })
}

func (tx *Tx) InsertTest(t domain.AptitudeTest) error {
	return insertRow(tx, tx.g.tests, t.ID, t)
}

func (tx *Tx) Attempt(id string) (domain.TestAttempt, bool) {
	return tx.g.attempts.get(id)
}

func (tx *Tx) InsertAttempt(a domain.TestAttempt) error {
	return insertRow(tx, tx.g.attempts, a.ID, a)
}

func (tx *Tx) PutAttempt(a domain.TestAttempt) error {
	return replaceRow(tx, tx.g.attempts, a.ID, a)
}

// meetings

func (tx *Tx) Meeting(id string) (domain.Meeting, bool) {
	return tx.g.meetings.get(id)
}

// MeetingForApplication returns the earliest meeting scheduled for an application.
func (tx *Tx) MeetingForApplication(applicationID string) (domain.Meeting, bool) {
	return firstRow(tx.g.meetings, func(m domain.Meeting) bool { return m.ApplicationID == applicationID })
}

func (tx *Tx) InsertMeeting(m domain.Meeting) error {
	return insertRow(tx, tx.g.meetings, m.ID, m)
}

func (tx *Tx) PutMeeting(m domain.Meeting) error {
	return replaceRow(tx, tx.g.meetings, m.ID, m)
}

// notifications

func (tx *Tx) Notification(id string) (domain.Notification, bool) {
	return tx.g.notifications.get(id)
}

// NotificationsForUser returns a user's inbox in insertion order.
func (tx *Tx) NotificationsForUser(userID string) []domain.Notification {
	return filterRows(tx.g.notifications, func(n domain.Notification) bool { return n.UserID == userID })
}

func (tx *Tx) InsertNotification(n domain.Notification) error {
	return insertRow(tx, tx.g.notifications, n.ID, n)
}

func (tx *Tx) PutNotification(n domain.Notification) error {
	return replaceRow(tx, tx.g.notifications, n.ID, n)
}

package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"campusportal/internal/util"
	"campusportal/pkg/domain"
	"campusportal/pkg/store"
)

const (
	defaultTestTitle    = "General Aptitude Test"
	defaultTestDuration = 30
)

type QuestionInput struct {
	Text               string   `json:"text"`
	Category           string   `json:"category"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
}

type TestInput struct {
	Title                string          `json:"title"`
	DurationMinutes      int             `json:"durationMinutes"`
	Questions            []QuestionInput `json:"questions"`
	ShortlistingCriteria *int            `json:"shortlistingCriteria,omitempty"`
}

// DefaultTestInput is the test assigned when a client has not authored one.
func DefaultTestInput() TestInput {
	return TestInput{
		Title:           defaultTestTitle,
		DurationMinutes: defaultTestDuration,
		Questions: []QuestionInput{
			{
				Text:               "What comes next in the sequence: 2, 4, 8, 16...?",
				Category:           "Logic",
				Options:            []string{"18", "24", "32", "64"},
				CorrectAnswerIndex: 2,
			},
			{
				Text:               "Which is the largest planet?",
				Category:           "GK",
				Options:            []string{"Earth", "Mars", "Jupiter", "Saturn"},
				CorrectAnswerIndex: 2,
			},
		},
	}
}

func (in TestInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return invalidf("test title required")
	}
	if in.DurationMinutes <= 0 {
		return invalidf("durationMinutes must be positive")
	}
	if len(in.Questions) == 0 {
		return ErrEmptyTest
	}
	for i, q := range in.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return invalidf("question %d: text required", i+1)
		}
		if len(q.Options) < 2 {
			return invalidf("question %d: at least two options required", i+1)
		}
		if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(q.Options) {
			return invalidf("question %d: correctAnswerIndex %d out of range", i+1, q.CorrectAnswerIndex)
		}
	}
	if c := in.ShortlistingCriteria; c != nil && (*c < 0 || *c > 100) {
		return invalidf("shortlistingCriteria must be between 0 and 100")
	}
	return nil
}

func (a *App) buildTest(postID, clientID string, in TestInput) domain.AptitudeTest {
	test := domain.AptitudeTest{
		ID:                   util.NewID(),
		PostID:               postID,
		ClientID:             clientID,
		Title:                strings.TrimSpace(in.Title),
		DurationMinutes:      in.DurationMinutes,
		ShortlistingCriteria: in.ShortlistingCriteria,
		CreatedAt:            a.now(),
	}
	test.Questions = make([]domain.Question, 0, len(in.Questions))
	for _, q := range in.Questions {
		category := strings.TrimSpace(q.Category)
		if category == "" {
			category = "General"
		}
		test.Questions = append(test.Questions, domain.Question{
			ID:                 util.NewID(),
			TestID:             test.ID,
			Text:               strings.TrimSpace(q.Text),
			Category:           category,
			Options:            append([]string(nil), q.Options...),
			CorrectAnswerIndex: q.CorrectAnswerIndex,
		})
	}
	return test
}

// CreateTest stores a client-authored test. A post holds at most one test.
func (a *App) CreateTest(ctx context.Context, postID, clientID string, in TestInput) (domain.AptitudeTest, error) {
	if err := in.validate(); err != nil {
		return domain.AptitudeTest{}, err
	}
	var res domain.AptitudeTest
	err := a.store.Update(ctx, func(tx *store.Tx) error {
		post, ok := tx.Post(postID)
		if !ok {
			return ErrPostNotFound
		}
		if clientID == "" {
			clientID = post.ClientID
		}
		if clientID != post.ClientID {
			return invalidf("post %s belongs to another client", postID)
		}
		if _, exists := tx.TestForPost(postID); exists {
			return ErrTestExists
		}
		test := a.buildTest(postID, clientID, in)
		if err := tx.InsertTest(test); err != nil {
			return fmt.Errorf("insert test: %w", err)
		}
		res = test
		return nil
	})
	return res, err
}

// GetTestForPost returns the post's test, if one exists.
func (a *App) GetTestForPost(ctx context.Context, postID string) (domain.AptitudeTest, bool, error) {
	var (
		res domain.AptitudeTest
		ok  bool
	)
	err := a.store.View(ctx, func(tx *store.Tx) error {
		res, ok = tx.TestForPost(postID)
		return nil
	})
	return res, ok, err
}

// ensureTest returns the post's test, creating the default one if needed.
func (a *App) ensureTest(tx *store.Tx, post domain.Post) (domain.AptitudeTest, bool, error) {
	if test, ok := tx.TestForPost(post.ID); ok {
		return test, false, nil
	}
	test := a.buildTest(post.ID, post.ClientID, DefaultTestInput())
	if err := tx.InsertTest(test); err != nil {
		return domain.AptitudeTest{}, false, fmt.Errorf("insert default test: %w", err)
	}
	return test, true, nil
}

// EnsureTestForPost is an atomic get-or-create of the post's test.
func (a *App) EnsureTestForPost(ctx context.Context, postID string) (domain.AptitudeTest, bool, error) {
	var (
		res     domain.AptitudeTest
		created bool
	)
	err := a.store.Update(ctx, func(tx *store.Tx) error {
		post, ok := tx.Post(postID)
		if !ok {
			return ErrPostNotFound
		}
		var err error
		res, created, err = a.ensureTest(tx, post)
		return err
	})
	return res, created, err
}

func (a *App) assign(tx *store.Tx, out *outbox, app domain.Application, test domain.AptitudeTest) (domain.TestAttempt, error) {
	if app.TestAttemptID != "" {
		return domain.TestAttempt{}, ErrTestAlreadyAssigned
	}
	attempt := domain.TestAttempt{
		ID:             util.NewID(),
		TestID:         test.ID,
		StudentID:      app.StudentID,
		ApplicationID:  app.ID,
		Status:         domain.AttemptAssigned,
		CategoryScores: map[string]domain.CategoryScore{},
		Answers:        map[string]int{},
	}
	if err := tx.InsertAttempt(attempt); err != nil {
		return domain.TestAttempt{}, fmt.Errorf("insert attempt: %w", err)
	}
	app.TestAttemptID = attempt.ID
	if err := tx.PutApplication(app); err != nil {
		return domain.TestAttempt{}, fmt.Errorf("link attempt: %w", err)
	}
	post, _ := tx.Post(app.PostID)
	msg := fmt.Sprintf("You have been invited to take an aptitude test for your application to \"%s\".", post.Title)
	meta := &domain.NotificationMetadata{TestAttemptID: attempt.ID}
	if err := a.push(tx, out, app.StudentID, msg, domain.NotificationInfo, meta); err != nil {
		return domain.TestAttempt{}, err
	}
	return attempt, nil
}

// AssignTest creates an Assigned attempt for the application and links it.
func (a *App) AssignTest(ctx context.Context, applicationID, testID string) (domain.TestAttempt, error) {
	var (
		res domain.TestAttempt
		out outbox
	)
	err := a.store.Update(ctx, func(tx *store.Tx) error {
		app, ok := tx.Application(applicationID)
		if !ok {
			return ErrApplicationNotFound
		}
		test, ok := tx.Test(testID)
		if !ok {
			return ErrTestNotFound
		}
		var err error
		res, err = a.assign(tx, &out, app, test)
		return err
	})
	if err != nil {
		return domain.TestAttempt{}, err
	}
	a.flush(ctx, &out)
	return res, nil
}

// AssignDefaultTest assigns the post's test, creating the default test first
// when the post has none.
func (a *App) AssignDefaultTest(ctx context.Context, applicationID string) (domain.TestAttempt, error) {
	var (
		res domain.TestAttempt
		out outbox
	)
	err := a.store.Update(ctx, func(tx *store.Tx) error {
		app, ok := tx.Application(applicationID)
		if !ok {
			return ErrApplicationNotFound
		}
		post, ok := tx.Post(app.PostID)
		if !ok {
			return ErrPostNotFound
		}
		test, _, err := a.ensureTest(tx, post)
		if err != nil {
			return err
		}
		res, err = a.assign(tx, &out, app, test)
		return err
	})
	if err != nil {
		return domain.TestAttempt{}, err
	}
	a.flush(ctx, &out)
	return res, nil
}

var errNotEligibleForBulk = errors.New("application no longer eligible for bulk assignment")

// BulkAssignTest assigns the post's test to every Shortlisted applicant
// without an attempt and returns how many were assigned. Each applicant is
// its own transaction and is re-checked inside it, so a retried batch never
// double-assigns and one failure does not stop the rest.
func (a *App) BulkAssignTest(ctx context.Context, postID string) (int, error) {
	var candidates []string
	err := a.store.View(ctx, func(tx *store.Tx) error {
		if _, ok := tx.Post(postID); !ok {
			return ErrPostNotFound
		}
		for _, app := range tx.ApplicationsByPost(postID) {
			if app.Status == domain.StatusShortlisted && app.TestAttemptID == "" {
				candidates = append(candidates, app.ID)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger := util.LoggerFromContext(ctx)
	assigned := 0
	for _, applicationID := range candidates {
		var out outbox
		err := a.store.Update(ctx, func(tx *store.Tx) error {
			app, ok := tx.Application(applicationID)
			if !ok {
				return ErrApplicationNotFound
			}
			if app.Status != domain.StatusShortlisted || app.TestAttemptID != "" {
				return errNotEligibleForBulk
			}
			post, ok := tx.Post(app.PostID)
			if !ok {
				return ErrPostNotFound
			}
			test, _, err := a.ensureTest(tx, post)
			if err != nil {
				return err
			}
			_, err = a.assign(tx, &out, app, test)
			return err
		})
		if err != nil {
			if !errors.Is(err, errNotEligibleForBulk) {
				logger.Warn("bulk test assignment failed", "post_id", postID, "application_id", applicationID, "err", err)
			}
			continue
		}
		a.flush(ctx, &out)
		assigned++
	}
	return assigned, nil
}

// StartTest moves an Assigned attempt to InProgress. Starting an attempt that
// is already running is a no-op.
func (a *App) StartTest(ctx context.Context, attemptID string) (domain.TestAttempt, error) {
	var res domain.TestAttempt
	err := a.store.Update(ctx, func(tx *store.Tx) error {
		attempt, ok := tx.Attempt(attemptID)
		if !ok {
			return ErrAttemptNotFound
		}
		switch attempt.Status {
		case domain.AttemptCompleted:
			return ErrAttemptCompleted
		case domain.AttemptInProgress:
			res = attempt
			return nil
		}
		now := a.now()
		attempt.Status = domain.AttemptInProgress
		attempt.StartedAt = &now
		res = attempt
		return tx.PutAttempt(attempt)
	})
	return res, err
}

// Result is the outcome of scoring one set of answers.
type Result struct {
	Score          int
	Correct        int
	CategoryScores map[string]domain.CategoryScore
}

// Grade scores answers against the test's questions. The overall score is the
// rounded percentage of correct answers; a test with no questions scores 0.
func Grade(questions []domain.Question, answers map[string]int) Result {
	res := Result{CategoryScores: make(map[string]domain.CategoryScore)}
	for _, q := range questions {
		cs := res.CategoryScores[q.Category]
		cs.Total++
		if chosen, ok := answers[q.ID]; ok && chosen == q.CorrectAnswerIndex {
			cs.Score++
			res.Correct++
		}
		res.CategoryScores[q.Category] = cs
	}
	if len(questions) > 0 {
		res.Score = int(math.Round(float64(res.Correct) / float64(len(questions)) * 100))
	}
	return res
}

// SubmitTest scores and completes an attempt. Answers are frozen afterwards;
// a second submission fails with ErrAttemptCompleted and changes nothing.
func (a *App) SubmitTest(ctx context.Context, attemptID string, answers map[string]int) (domain.TestAttempt, error) {
	var (
		res domain.TestAttempt
		out outbox
	)
	err := a.store.Update(ctx, func(tx *store.Tx) error {
		attempt, ok := tx.Attempt(attemptID)
		if !ok {
			return ErrAttemptNotFound
		}
		if attempt.Status == domain.AttemptCompleted {
			return ErrAttemptCompleted
		}
		test, ok := tx.Test(attempt.TestID)
		if !ok {
			return ErrTestNotFound
		}
		frozen := make(map[string]int, len(test.Questions))
		for _, q := range test.Questions {
			if chosen, ok := answers[q.ID]; ok {
				frozen[q.ID] = chosen
			}
		}
		graded := Grade(test.Questions, frozen)
		now := a.now()
		if attempt.StartedAt == nil {
			attempt.StartedAt = &now
		}
		attempt.CompletedAt = &now
		attempt.Status = domain.AttemptCompleted
		attempt.Answers = frozen
		attempt.Score = graded.Score
		attempt.CategoryScores = graded.CategoryScores
		if err := tx.PutAttempt(attempt); err != nil {
			return fmt.Errorf("update attempt: %w", err)
		}
		post, _ := tx.Post(test.PostID)
		msg := fmt.Sprintf("Your aptitude test for \"%s\" has been submitted. Your score is %d%%.", post.Title, graded.Score)
		meta := &domain.NotificationMetadata{TestAttemptID: attempt.ID}
		if err := a.push(tx, &out, attempt.StudentID, msg, domain.NotificationSuccess, meta); err != nil {
			return err
		}
		res = attempt
		return nil
	})
	if err != nil {
		return domain.TestAttempt{}, err
	}
	a.flush(ctx, &out)
	return res, nil
}

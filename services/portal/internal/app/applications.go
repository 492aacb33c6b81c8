package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"campusportal/internal/util"
	"campusportal/pkg/domain"
	"campusportal/pkg/eligibility"
	"campusportal/pkg/store"
)

// Opportunity is a post as seen by one student.
type Opportunity struct {
	domain.Post
	Applied   bool `json:"applied"`
	SeatsLeft *int `json:"seatsLeft,omitempty"`
}

// Applicant joins an application with everything a recruiter needs to review it.
type Applicant struct {
	Application domain.Application    `json:"application"`
	User        domain.User           `json:"user"`
	Profile     domain.StudentProfile `json:"profile"`
	Eligibility eligibility.Verdict   `json:"eligibility"`
	TestAttempt *domain.TestAttempt   `json:"testAttempt,omitempty"`
	Meeting     *domain.Meeting       `json:"meeting,omitempty"`
}

type PostApplicants struct {
	Post       domain.Post `json:"post"`
	SeatsLeft  *int        `json:"seatsLeft,omitempty"`
	Applicants []Applicant `json:"applicants"`
}

type AttemptWithTest struct {
	domain.TestAttempt
	Test domain.AptitudeTest `json:"test"`
}

// StudentApplication is one row of a student's application history.
type StudentApplication struct {
	domain.Application
	Post        domain.Post      `json:"post"`
	Meeting     *domain.Meeting  `json:"meeting,omitempty"`
	TestAttempt *AttemptWithTest `json:"testAttempt,omitempty"`
}

type ClientPost struct {
	domain.Post
	ApplicantCount int  `json:"applicantCount"`
	SeatsLeft      *int `json:"seatsLeft,omitempty"`
}

// Apply creates a Pending application. Eligibility is not enforced here;
// callers pre-check with CheckEligibility.
func (a *App) Apply(ctx context.Context, studentID, postID string) (domain.Application, error) {
	var res domain.Application
	err := a.store.Update(ctx, func(tx *store.Tx) error {
		if _, ok := tx.Post(postID); !ok {
			return ErrPostNotFound
		}
		if u, ok := tx.User(studentID); !ok || u.Role != domain.RoleStudent {
			return ErrStudentNotFound
		}
		app := domain.Application{
			ID:        util.NewID(),
			StudentID: studentID,
			PostID:    postID,
			Status:    domain.StatusPending,
			AppliedAt: a.now(),
		}
		if err := tx.InsertApplication(app); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrDuplicateApplication
			}
			return fmt.Errorf("insert application: %w", err)
		}
		res = app
		return nil
	})
	return res, err
}

// statusMessage returns the applicant-facing notification for a status change.
func statusMessage(title string, status domain.ApplicationStatus) (string, domain.NotificationType) {
	switch status {
	case domain.StatusAccepted:
		return fmt.Sprintf("Congratulations! Your application for \"%s\" has been accepted. The recruiter may contact you with next steps.", title), domain.NotificationSuccess
	case domain.StatusRejected:
		return fmt.Sprintf("Regarding your application for \"%s\", the company has decided to move forward with other candidates.", title), domain.NotificationInfo
	case domain.StatusShortlisted:
		return fmt.Sprintf("You've been shortlisted for \"%s\"! The recruiter may schedule an interview soon.", title), domain.NotificationSuccess
	case domain.StatusPending:
		return fmt.Sprintf("Your application status for \"%s\" has been reverted to Pending.", title), domain.NotificationInfo
	default:
		return fmt.Sprintf("Your application for \"%s\" has been updated to: %s.", title, status), domain.NotificationInfo
	}
}

// UpdateApplicationStatus overwrites the status with no transition checks and
// notifies the applicant exactly once.
func (a *App) UpdateApplicationStatus(ctx context.Context, applicationID string, status domain.ApplicationStatus) (domain.Application, error) {
	if strings.TrimSpace(string(status)) == "" {
		return domain.Application{}, invalidf("status required")
	}
	var (
		res domain.Application
		out outbox
	)
	err := a.store.Update(ctx, func(tx *store.Tx) error {
		app, ok := tx.Application(applicationID)
		if !ok {
			return ErrApplicationNotFound
		}
		app.Status = status
		if err := tx.PutApplication(app); err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		post, _ := tx.Post(app.PostID)
		msg, typ := statusMessage(post.Title, status)
		if err := a.push(tx, &out, app.StudentID, msg, typ, nil); err != nil {
			return err
		}
		res = app
		return nil
	})
	if err != nil {
		return domain.Application{}, err
	}
	a.flush(ctx, &out)
	return res, nil
}

// ListOpportunities returns every post annotated for the student.
func (a *App) ListOpportunities(ctx context.Context, studentID string) ([]Opportunity, error) {
	var res []Opportunity
	err := a.store.View(ctx, func(tx *store.Tx) error {
		posts := tx.Posts()
		res = make([]Opportunity, 0, len(posts))
		for _, p := range posts {
			_, applied := tx.ApplicationFor(studentID, p.ID)
			res = append(res, Opportunity{Post: p, Applied: applied, SeatsLeft: seatsLeft(tx, p)})
		}
		return nil
	})
	return res, err
}

// ListApplicantsForPost returns the post with its joined applicants, or
// false when the post does not exist. Applications whose student record is
// gone are left out.
func (a *App) ListApplicantsForPost(ctx context.Context, postID string) (PostApplicants, bool, error) {
	var (
		res   PostApplicants
		found bool
	)
	err := a.store.View(ctx, func(tx *store.Tx) error {
		post, ok := tx.Post(postID)
		if !ok {
			return nil
		}
		found = true
		res = PostApplicants{Post: post, SeatsLeft: seatsLeft(tx, post), Applicants: []Applicant{}}
		for _, app := range tx.ApplicationsByPost(postID) {
			user, ok := tx.User(app.StudentID)
			if !ok {
				continue
			}
			profile, ok := tx.StudentProfile(app.StudentID)
			if !ok {
				continue
			}
			applicant := Applicant{
				Application: app,
				User:        user,
				Profile:     profile,
				Eligibility: eligibility.Evaluate(&profile, post),
			}
			if app.TestAttemptID != "" {
				if attempt, ok := tx.Attempt(app.TestAttemptID); ok {
					applicant.TestAttempt = &attempt
				}
			}
			if m, ok := tx.MeetingForApplication(app.ID); ok {
				applicant.Meeting = &m
			}
			res.Applicants = append(res.Applicants, applicant)
		}
		return nil
	})
	if err != nil {
		return PostApplicants{}, false, err
	}
	return res, found, nil
}

// ListApplicationsForStudent returns the student's applications, most recent first.
func (a *App) ListApplicationsForStudent(ctx context.Context, studentID string) ([]StudentApplication, error) {
	var res []StudentApplication
	err := a.store.View(ctx, func(tx *store.Tx) error {
		apps := tx.ApplicationsByStudent(studentID)
		res = make([]StudentApplication, 0, len(apps))
		for i := len(apps) - 1; i >= 0; i-- {
			app := apps[i]
			post, ok := tx.Post(app.PostID)
			if !ok {
				continue
			}
			row := StudentApplication{Application: app, Post: post}
			if m, ok := tx.MeetingForApplication(app.ID); ok {
				row.Meeting = &m
			}
			if app.TestAttemptID != "" {
				if attempt, ok := tx.Attempt(app.TestAttemptID); ok {
					if test, ok := tx.Test(attempt.TestID); ok {
						row.TestAttempt = &AttemptWithTest{TestAttempt: attempt, Test: test}
					}
				}
			}
			res = append(res, row)
		}
		return nil
	})
	return res, err
}

// ListClientPosts returns the client's posts with applicant counts.
func (a *App) ListClientPosts(ctx context.Context, clientID string) ([]ClientPost, error) {
	var res []ClientPost
	err := a.store.View(ctx, func(tx *store.Tx) error {
		posts := tx.PostsByClient(clientID)
		res = make([]ClientPost, 0, len(posts))
		for _, p := range posts {
			res = append(res, ClientPost{
				Post:           p,
				ApplicantCount: len(tx.ApplicationsByPost(p.ID)),
				SeatsLeft:      seatsLeft(tx, p),
			})
		}
		return nil
	})
	return res, err
}

// CheckEligibility evaluates the student's stored profile against a post.
func (a *App) CheckEligibility(ctx context.Context, studentID, postID string) (eligibility.Verdict, error) {
	var res eligibility.Verdict
	err := a.store.View(ctx, func(tx *store.Tx) error {
		post, ok := tx.Post(postID)
		if !ok {
			return ErrPostNotFound
		}
		var profile *domain.StudentProfile
		if p, ok := tx.StudentProfile(studentID); ok {
			profile = &p
		}
		res = eligibility.Evaluate(profile, post)
		return nil
	})
	return res, err
}

package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"campusportal/internal/util"
	"campusportal/pkg/domain"
	"campusportal/pkg/store"
)

const meetingTimeLayout = "Jan 2, 2006, 3:04 PM"

// ScheduleMeeting books a meeting for an application. Overlapping meetings
// are not detected.
func (a *App) ScheduleMeeting(ctx context.Context, applicationID, title string, scheduledAt time.Time) (domain.Meeting, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Meeting{}, invalidf("meeting title required")
	}
	if scheduledAt.IsZero() {
		return domain.Meeting{}, invalidf("scheduledAt required")
	}
	var (
		res domain.Meeting
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
		m := domain.Meeting{
			ID:            util.NewID(),
			ApplicationID: app.ID,
			PostID:        post.ID,
			ClientID:      post.ClientID,
			StudentID:     app.StudentID,
			Title:         title,
			ScheduledAt:   scheduledAt.UTC(),
			Status:        domain.MeetingScheduled,
			CreatedAt:     a.now(),
		}
		if err := tx.InsertMeeting(m); err != nil {
			return fmt.Errorf("insert meeting: %w", err)
		}
		msg := fmt.Sprintf("New Meeting: \"%s\" for %s is scheduled for %s.",
			title, post.Title, scheduledAt.In(a.loc).Format(meetingTimeLayout))
		if err := a.push(tx, &out, app.StudentID, msg, domain.NotificationInfo, &domain.NotificationMetadata{MeetingID: m.ID}); err != nil {
			return err
		}
		res = m
		return nil
	})
	if err != nil {
		return domain.Meeting{}, err
	}
	a.flush(ctx, &out)
	return res, nil
}

// UpdateMeetingStatus sets a meeting's status. Time never advances it.
func (a *App) UpdateMeetingStatus(ctx context.Context, meetingID string, status domain.MeetingStatus) (domain.Meeting, error) {
	switch status {
	case domain.MeetingScheduled, domain.MeetingInProgress, domain.MeetingCompleted:
	default:
		return domain.Meeting{}, invalidf("unknown meeting status %q", status)
	}
	var res domain.Meeting
	err := a.store.Update(ctx, func(tx *store.Tx) error {
		m, ok := tx.Meeting(meetingID)
		if !ok {
			return ErrMeetingNotFound
		}
		m.Status = status
		res = m
		return tx.PutMeeting(m)
	})
	return res, err
}

package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/net/html"

	"campusportal/internal/util"
	"campusportal/pkg/domain"
	"campusportal/pkg/store"
)

const deadlineLayout = "2006-01-02"

type PostInput struct {
	Title               string                  `json:"title"`
	Type                domain.PostType         `json:"type"`
	Description         string                  `json:"description"`
	Requirements        []string                `json:"requirements"`
	ApplicationDeadline string                  `json:"applicationDeadline"`
	NumberOfSeats       *int                    `json:"numberOfSeats"`
	MinimumCriteria     *domain.MinimumCriteria `json:"minimumCriteria"`
}

func (in PostInput) validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return invalidf("title required")
	}
	switch in.Type {
	case "", domain.PostPlacement, domain.PostClub:
	default:
		return invalidf("type must be Placement or Club")
	}
	if d := strings.TrimSpace(in.ApplicationDeadline); d != "" {
		if _, err := time.Parse(deadlineLayout, d); err != nil {
			return invalidf("applicationDeadline must be YYYY-MM-DD")
		}
	}
	if in.NumberOfSeats != nil && *in.NumberOfSeats <= 0 {
		return invalidf("numberOfSeats must be positive")
	}
	if c := in.MinimumCriteria; c != nil {
		for name, v := range map[string]*float64{
			"gpa":                       c.GPA,
			"secondaryPercentage":       c.SecondaryPercentage,
			"higherSecondaryPercentage": c.HigherSecondaryPercentage,
		} {
			if v != nil && *v < 0 {
				return invalidf("minimumCriteria.%s must not be negative", name)
			}
		}
	}
	return nil
}

// plainText strips markup from rich-text descriptions, keeping block breaks.
func plainText(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return strings.TrimSpace(src)
			}
			return collapseLines(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				skip++
			case "br", "p", "div", "li", "ul", "ol", "h1", "h2", "h3", "h4", "tr":
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "script", "style":
				if skip > 0 {
					skip--
				}
			case "p", "div", "li", "h1", "h2", "h3", "h4", "tr":
				b.WriteByte('\n')
			}
		}
	}
}

func collapseLines(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func (a *App) buildPost(client domain.ClientProfile, in PostInput) domain.Post {
	typ := in.Type
	if typ == "" {
		typ = domain.PostPlacement
	}
	var seats *int
	if in.NumberOfSeats != nil {
		n := *in.NumberOfSeats
		seats = &n
	}
	var criteria *domain.MinimumCriteria
	if in.MinimumCriteria != nil {
		c := *in.MinimumCriteria
		criteria = &c
	}
	return domain.Post{
		ID:                  util.NewID(),
		ClientID:            client.UserID,
		Company:             client.Company,
		Title:               strings.TrimSpace(in.Title),
		Type:                typ,
		Description:         plainText(in.Description),
		Requirements:        cleanSkills(in.Requirements),
		ApplicationDeadline: strings.TrimSpace(in.ApplicationDeadline),
		NumberOfSeats:       seats,
		MinimumCriteria:     criteria,
		CreatedAt:           a.now(),
	}
}

// CreatePost publishes a post under the client's company and triggers job alerts.
func (a *App) CreatePost(ctx context.Context, clientID string, in PostInput) (domain.Post, error) {
	if err := in.validate(); err != nil {
		return domain.Post{}, err
	}
	var post domain.Post
	err := a.store.Update(ctx, func(tx *store.Tx) error {
		client, ok := tx.ClientProfile(clientID)
		if !ok {
			return ErrClientProfileNotFound
		}
		post = a.buildPost(client, in)
		if err := tx.InsertPost(post); err != nil {
			return fmt.Errorf("insert post: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Post{}, err
	}
	a.scheduleJobAlerts(ctx, post.ID)
	return post, nil
}

func (a *App) GetPost(ctx context.Context, postID string) (domain.Post, bool, error) {
	var (
		res domain.Post
		ok  bool
	)
	err := a.store.View(ctx, func(tx *store.Tx) error {
		res, ok = tx.Post(postID)
		return nil
	})
	return res, ok, err
}

func (a *App) scheduleJobAlerts(ctx context.Context, postID string) {
	logger := util.LoggerFromContext(ctx)
	if a.alerts != nil {
		job, err := a.alerts.Enqueue(ctx, postID)
		if err == nil {
			logger.Info("job alerts queued", "post_id", postID, "job_id", job.ID)
			return
		}
		logger.Warn("enqueue job alerts failed; delivering inline", "post_id", postID, "err", err)
	}
	if _, err := a.DispatchJobAlerts(ctx, postID); err != nil {
		logger.Warn("job alerts failed", "post_id", postID, "err", err)
	}
}

// matchesRequirements reports whether any skill contains any requirement,
// ignoring case.
func matchesRequirements(skills, requirements []string) bool {
	for _, req := range requirements {
		req = strings.ToLower(strings.TrimSpace(req))
		if req == "" {
			continue
		}
		for _, skill := range skills {
			if strings.Contains(strings.ToLower(skill), req) {
				return true
			}
		}
	}
	return false
}

func alreadyAlerted(tx *store.Tx, userID, postID string) bool {
	for _, n := range tx.NotificationsForUser(userID) {
		if n.Metadata != nil && n.Metadata.PostID == postID {
			return true
		}
	}
	return false
}

// DispatchJobAlerts notifies every opted-in student whose skills match the
// post and returns how many were notified. Students alerted earlier for the
// same post are skipped.
func (a *App) DispatchJobAlerts(ctx context.Context, postID string) (int, error) {
	var out outbox
	err := a.store.Update(ctx, func(tx *store.Tx) error {
		post, ok := tx.Post(postID)
		if !ok {
			return ErrPostNotFound
		}
		msg := fmt.Sprintf("New Opportunity Alert: \"%s\" at %s matches your profile!", post.Title, post.Company)
		for _, p := range tx.StudentProfiles() {
			if !p.JobAlertsEnabled || !matchesRequirements(p.Skills, post.Requirements) {
				continue
			}
			if alreadyAlerted(tx, p.UserID, post.ID) {
				continue
			}
			meta := &domain.NotificationMetadata{PostID: post.ID}
			if err := a.push(tx, &out, p.UserID, msg, domain.NotificationInfo, meta); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	sent := len(out.items)
	a.flush(ctx, &out)
	return sent, nil
}

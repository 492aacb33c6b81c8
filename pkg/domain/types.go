package domain

import (
	"strings"
	"time"
)

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleClient  UserRole = "client"
)

type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "Pending"
	StatusShortlisted ApplicationStatus = "Shortlisted"
	StatusAccepted    ApplicationStatus = "Accepted"
	StatusRejected    ApplicationStatus = "Rejected"
)

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationInfo    NotificationType = "info"
)

type PostType string

const (
	PostPlacement PostType = "Placement"
	PostClub      PostType = "Club"
)

type AttemptStatus string

const (
	AttemptAssigned   AttemptStatus = "Assigned"
	AttemptInProgress AttemptStatus = "InProgress"
	AttemptCompleted  AttemptStatus = "Completed"
)

type MeetingStatus string

const (
	MeetingScheduled  MeetingStatus = "Scheduled"
	MeetingInProgress MeetingStatus = "InProgress"
	MeetingCompleted  MeetingStatus = "Completed"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         UserRole  `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Education is one tier of a student's schooling. Secondary tiers carry a
// percentage, college carries a GPA; either may be unset.
type Education struct {
	Level      string   `json:"level"`
	Institute  string   `json:"institute"`
	Board      string   `json:"board,omitempty"`
	Percentage *float64 `json:"percentage,omitempty"`
	GPA        *float64 `json:"gpa,omitempty"`
	Year       int      `json:"year"`
}

type EducationRecord struct {
	Secondary       Education `json:"secondary"`
	HigherSecondary Education `json:"higherSecondary"`
	College         Education `json:"college"`
}

type Project struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type WorkExperience struct {
	Role     string `json:"role"`
	Company  string `json:"company"`
	Duration string `json:"duration"`
}

type StudentProfile struct {
	UserID           string           `json:"userId"`
	Major            string           `json:"major"`
	Education        *EducationRecord `json:"education,omitempty"`
	Skills           []string         `json:"skills"`
	Projects         []Project        `json:"projects"`
	WorkExperience   []WorkExperience `json:"workExperience"`
	Certifications   []string         `json:"certifications"`
	ResumeKey        string           `json:"resumeKey,omitempty"`
	PictureKey       string           `json:"pictureKey,omitempty"`
	JobAlertsEnabled bool             `json:"jobAlertsEnabled"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// Complete reports whether the profile has left the empty shell state
// created at sign-up. Major is the sentinel field.
func (p StudentProfile) Complete() bool {
	return strings.TrimSpace(p.Major) != ""
}

type ClientProfile struct {
	UserID    string    `json:"userId"`
	Company   string    `json:"company"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type MinimumCriteria struct {
	GPA                       *float64 `json:"gpa,omitempty"`
	SecondaryPercentage       *float64 `json:"secondaryPercentage,omitempty"`
	HigherSecondaryPercentage *float64 `json:"higherSecondaryPercentage,omitempty"`
}

type Post struct {
	ID                  string           `json:"id"`
	ClientID            string           `json:"clientId"`
	Company             string           `json:"company"`
	Title               string           `json:"title"`
	Type                PostType         `json:"type"`
	Description         string           `json:"description"`
	Requirements        []string         `json:"requirements"`
	ApplicationDeadline string           `json:"applicationDeadline,omitempty"`
	NumberOfSeats       *int             `json:"numberOfSeats,omitempty"`
	MinimumCriteria     *MinimumCriteria `json:"minimumCriteria,omitempty"`
	CreatedAt           time.Time        `json:"createdAt"`
}

type Application struct {
	ID            string            `json:"id"`
	StudentID     string            `json:"studentId"`
	PostID        string            `json:"postId"`
	Status        ApplicationStatus `json:"status"`
	AppliedAt     time.Time         `json:"appliedAt"`
	TestAttemptID string            `json:"testAttemptId,omitempty"`
}

type Question struct {
	ID                 string   `json:"id"`
	TestID             string   `json:"testId"`
	Text               string   `json:"text"`
	Category           string   `json:"category"`
	Options            []string `json:"options"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
}

type AptitudeTest struct {
	ID                   string     `json:"id"`
	PostID               string     `json:"postId"`
	ClientID             string     `json:"clientId"`
	Title                string     `json:"title"`
	DurationMinutes      int        `json:"durationMinutes"`
	Questions            []Question `json:"questions"`
	ShortlistingCriteria *int       `json:"shortlistingCriteria,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
}

type CategoryScore struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

type TestAttempt struct {
	ID             string                   `json:"id"`
	TestID         string                   `json:"testId"`
	StudentID      string                   `json:"studentId"`
	ApplicationID  string                   `json:"applicationId"`
	Status         AttemptStatus            `json:"status"`
	StartedAt      *time.Time               `json:"startedAt,omitempty"`
	CompletedAt    *time.Time               `json:"completedAt,omitempty"`
	Score          int                      `json:"score"`
	CategoryScores map[string]CategoryScore `json:"categoryScores"`
	Answers        map[string]int           `json:"answers"`
}

type Meeting struct {
	ID            string        `json:"id"`
	ApplicationID string        `json:"applicationId"`
	PostID        string        `json:"postId"`
	ClientID      string        `json:"clientId"`
	StudentID     string        `json:"studentId"`
	Title         string        `json:"title"`
	ScheduledAt   time.Time     `json:"scheduledAt"`
	Status        MeetingStatus `json:"status"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type NotificationMetadata struct {
	PostID        string `json:"postId,omitempty"`
	MeetingID     string `json:"meetingId,omitempty"`
	TestAttemptID string `json:"testAttemptId,omitempty"`
}

type Notification struct {
	ID        string                `json:"id"`
	UserID    string                `json:"userId"`
	Message   string                `json:"message"`
	Type      NotificationType      `json:"type"`
	Read      bool                  `json:"read"`
	CreatedAt time.Time             `json:"createdAt"`
	Metadata  *NotificationMetadata `json:"metadata,omitempty"`
}

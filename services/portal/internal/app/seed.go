package app

import (
	"context"
	"fmt"
	"time"

	"campusportal/internal/util"
	"campusportal/pkg/auth"
	"campusportal/pkg/domain"
	"campusportal/pkg/store"
)

const demoPassword = "password"

func ptr[T any](v T) *T { return &v }

func demoDate(s string) time.Time {
	t, _ := time.Parse(deadlineLayout, s)
	return t
}

// SeedDemo loads the demo accounts, posts and applications into an empty
// store. It reports false and changes nothing when any user already exists.
func (a *App) SeedDemo(ctx context.Context) (bool, error) {
	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return false, fmt.Errorf("hash demo password: %w", err)
	}
	now := a.now()
	seeded := false
	err = a.store.Update(ctx, func(tx *store.Tx) error {
		if tx.UserCount() > 0 {
			return nil
		}
		alex := domain.User{ID: util.NewID(), Email: "student@test.com", Name: "Alex Johnson", Role: domain.RoleStudent, PasswordHash: hash, CreatedAt: now}
		jane := domain.User{ID: util.NewID(), Email: "client@test.com", Name: "Jane Smith", Role: domain.RoleClient, PasswordHash: hash, CreatedAt: now}
		maria := domain.User{ID: util.NewID(), Email: "student2@test.com", Name: "Maria Garcia", Role: domain.RoleStudent, PasswordHash: hash, CreatedAt: now}
		for _, u := range []domain.User{alex, jane, maria} {
			if err := tx.InsertUser(u); err != nil {
				return fmt.Errorf("seed user %s: %w", u.Email, err)
			}
		}

		profiles := []domain.StudentProfile{
			{
				UserID: alex.ID,
				Major:  "Computer Science",
				Education: &domain.EducationRecord{
					Secondary:       domain.Education{Level: "Secondary (10th)", Institute: "City High School", Board: "CBSE", Percentage: ptr(92.0), Year: 2018},
					HigherSecondary: domain.Education{Level: "Higher Secondary (12th)", Institute: "City High School", Board: "CBSE", Percentage: ptr(88.0), Year: 2020},
					College:         domain.Education{Level: "B.Tech", Institute: "State University", GPA: ptr(8.5), Year: 2024},
				},
				Skills:           []string{"React", "Node.js", "TypeScript", "Python", "SQL"},
				Projects:         []domain.Project{{Name: "E-commerce Website", Description: "Built a full-stack e-commerce platform using the MERN stack."}},
				WorkExperience:   []domain.WorkExperience{{Role: "Intern", Company: "Tech Solutions Inc.", Duration: "3 months"}},
				Certifications:   []string{"Certified React Developer"},
				JobAlertsEnabled: true,
				UpdatedAt:        now,
			},
			{
				UserID: maria.ID,
				Major:  "Marketing",
				Education: &domain.EducationRecord{
					Secondary:       domain.Education{Level: "Secondary (10th)", Institute: "Marketing High", Board: "ICSE", Percentage: ptr(85.0), Year: 2018},
					HigherSecondary: domain.Education{Level: "Higher Secondary (12th)", Institute: "Marketing High", Board: "ICSE", Percentage: ptr(91.0), Year: 2020},
					College:         domain.Education{Level: "BBA", Institute: "Business College", GPA: ptr(9.1), Year: 2024},
				},
				Skills:           []string{"SEO", "Content Marketing", "Social Media", "Google Analytics"},
				Projects:         []domain.Project{{Name: "Brand Campaign", Description: "Developed a successful marketing campaign for a local startup."}},
				WorkExperience:   []domain.WorkExperience{},
				Certifications:   []string{},
				JobAlertsEnabled: true,
				UpdatedAt:        now,
			},
		}
		for _, p := range profiles {
			if err := tx.PutStudentProfile(p); err != nil {
				return err
			}
		}
		client := domain.ClientProfile{UserID: jane.ID, Company: "Innovate Corp", UpdatedAt: now}
		if err := tx.PutClientProfile(client); err != nil {
			return err
		}

		inputs := []PostInput{
			{
				Title:               "Frontend Developer",
				Type:                domain.PostPlacement,
				Description:         "Looking for a skilled React developer.",
				Requirements:        []string{"React", "TypeScript"},
				ApplicationDeadline: "2025-12-31",
				NumberOfSeats:       ptr(5),
				MinimumCriteria:     &domain.MinimumCriteria{GPA: ptr(8.0), SecondaryPercentage: ptr(80.0), HigherSecondaryPercentage: ptr(80.0)},
			},
			{
				Title:               "Marketing Intern",
				Type:                domain.PostPlacement,
				Description:         "Join our marketing team.",
				Requirements:        []string{"SEO", "Communication"},
				ApplicationDeadline: "2025-11-30",
				NumberOfSeats:       ptr(2),
				MinimumCriteria:     &domain.MinimumCriteria{GPA: ptr(8.5)},
			},
			{
				Title:        "Coding Club Lead",
				Type:         domain.PostClub,
				Description:  "Lead our college coding club.",
				Requirements: []string{"Leadership", "Node.js"},
			},
		}
		posts := make([]domain.Post, 0, len(inputs))
		for _, in := range inputs {
			p := a.buildPost(client, in)
			if err := tx.InsertPost(p); err != nil {
				return err
			}
			posts = append(posts, p)
		}

		apps := []domain.Application{
			{ID: util.NewID(), StudentID: alex.ID, PostID: posts[0].ID, Status: domain.StatusPending, AppliedAt: demoDate("2024-10-01")},
			{ID: util.NewID(), StudentID: maria.ID, PostID: posts[1].ID, Status: domain.StatusPending, AppliedAt: demoDate("2024-10-02")},
		}
		for _, app := range apps {
			if err := tx.InsertApplication(app); err != nil {
				return err
			}
		}
		seeded = true
		return nil
	})
	return seeded, err
}

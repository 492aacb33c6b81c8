package app

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"campusportal/internal/util"
	"campusportal/pkg/auth"
	"campusportal/pkg/domain"
	"campusportal/pkg/store"
)

const defaultCompany = "New Company"

type SignUpInput struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     domain.UserRole `json:"role"`
}

// StudentProfileInput replaces the editable parts of a student profile.
// Asset keys are managed by UploadProfileAsset. A nil JobAlertsEnabled keeps
// the current setting.
type StudentProfileInput struct {
	Major            string                  `json:"major"`
	Education        *domain.EducationRecord `json:"education"`
	Skills           []string                `json:"skills"`
	Projects         []domain.Project        `json:"projects"`
	WorkExperience   []domain.WorkExperience `json:"workExperience"`
	Certifications   []string                `json:"certifications"`
	JobAlertsEnabled *bool                   `json:"jobAlertsEnabled"`
}

func validRole(role domain.UserRole) bool {
	return role == domain.RoleStudent || role == domain.RoleClient
}

func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalidf("invalid email address")
	}
	return strings.ToLower(email), nil
}

func zero() *float64 {
	v := 0.0
	return &v
}

// shellStudentProfile is the incomplete profile created at sign-up.
func shellStudentProfile(userID string) domain.StudentProfile {
	return domain.StudentProfile{
		UserID: userID,
		Education: &domain.EducationRecord{
			Secondary:       domain.Education{Level: "Secondary (10th)", Percentage: zero()},
			HigherSecondary: domain.Education{Level: "Higher Secondary (12th)", Percentage: zero()},
			College:         domain.Education{Level: "College", GPA: zero()},
		},
		Skills:           []string{},
		Projects:         []domain.Project{},
		WorkExperience:   []domain.WorkExperience{},
		Certifications:   []string{},
		JobAlertsEnabled: true,
	}
}

// SignUp registers a user and creates the matching empty profile.
func (a *App) SignUp(ctx context.Context, in SignUpInput) (domain.User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.User{}, invalidf("name required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return domain.User{}, err
	}
	if !validRole(in.Role) {
		return domain.User{}, invalidf("role must be student or client")
	}
	if err := auth.ValidatePassword(in.Password); err != nil {
		return domain.User{}, validationError(err.Error())
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           util.NewID(),
		Email:        email,
		Name:         name,
		Role:         in.Role,
		PasswordHash: hash,
		CreatedAt:    a.now(),
	}
	err = a.store.Update(ctx, func(tx *store.Tx) error {
		if err := tx.InsertUser(user); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return ErrEmailExists
			}
			return fmt.Errorf("insert user: %w", err)
		}
		if user.Role == domain.RoleStudent {
			p := shellStudentProfile(user.ID)
			p.UpdatedAt = user.CreatedAt
			return tx.PutStudentProfile(p)
		}
		return tx.PutClientProfile(domain.ClientProfile{UserID: user.ID, Company: defaultCompany, UpdatedAt: user.CreatedAt})
	})
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Login checks email, password and role together. No session is issued.
func (a *App) Login(ctx context.Context, email, password string, role domain.UserRole) (domain.User, error) {
	var user domain.User
	err := a.store.View(ctx, func(tx *store.Tx) error {
		u, ok := tx.UserByEmail(email)
		if !ok {
			return ErrInvalidCredentials
		}
		user = u
		return nil
	})
	if err != nil {
		return domain.User{}, err
	}
	if user.Role != role || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// RecoverPassword confirms the address is registered. Delivery of a reset
// link is left to the notification consumers.
func (a *App) RecoverPassword(ctx context.Context, email string) error {
	return a.store.View(ctx, func(tx *store.Tx) error {
		if _, ok := tx.UserByEmail(email); !ok {
			return ErrUserNotFound
		}
		return nil
	})
}

func (a *App) GetUser(ctx context.Context, userID string) (domain.User, bool, error) {
	var (
		res domain.User
		ok  bool
	)
	err := a.store.View(ctx, func(tx *store.Tx) error {
		res, ok = tx.User(userID)
		return nil
	})
	return res, ok, err
}

func (a *App) GetStudentProfile(ctx context.Context, userID string) (domain.StudentProfile, bool, error) {
	var (
		res domain.StudentProfile
		ok  bool
	)
	err := a.store.View(ctx, func(tx *store.Tx) error {
		res, ok = tx.StudentProfile(userID)
		return nil
	})
	return res, ok, err
}

// cleanSkills trims skills and drops case-insensitive duplicates.
func cleanSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// UpdateStudentProfile replaces the editable profile fields.
func (a *App) UpdateStudentProfile(ctx context.Context, userID string, in StudentProfileInput) (domain.StudentProfile, error) {
	var res domain.StudentProfile
	err := a.store.Update(ctx, func(tx *store.Tx) error {
		p, ok := tx.StudentProfile(userID)
		if !ok {
			return ErrStudentNotFound
		}
		p.Major = strings.TrimSpace(in.Major)
		if in.Education != nil {
			edu := *in.Education
			p.Education = &edu
		}
		p.Skills = cleanSkills(in.Skills)
		p.Projects = append([]domain.Project{}, in.Projects...)
		p.WorkExperience = append([]domain.WorkExperience{}, in.WorkExperience...)
		p.Certifications = cleanSkills(in.Certifications)
		if in.JobAlertsEnabled != nil {
			p.JobAlertsEnabled = *in.JobAlertsEnabled
		}
		p.UpdatedAt = a.now()
		res = p
		return tx.PutStudentProfile(p)
	})
	return res, err
}

func (a *App) GetClientProfile(ctx context.Context, userID string) (domain.ClientProfile, bool, error) {
	var (
		res domain.ClientProfile
		ok  bool
	)
	err := a.store.View(ctx, func(tx *store.Tx) error {
		res, ok = tx.ClientProfile(userID)
		return nil
	})
	return res, ok, err
}

// UpdateClientProfile renames the client's company. Existing posts keep the
// company name they were published with.
func (a *App) UpdateClientProfile(ctx context.Context, userID, company string) (domain.ClientProfile, error) {
	company = strings.TrimSpace(company)
	if company == "" {
		return domain.ClientProfile{}, invalidf("company required")
	}
	var res domain.ClientProfile
	err := a.store.Update(ctx, func(tx *store.Tx) error {
		p, ok := tx.ClientProfile(userID)
		if !ok {
			return ErrClientProfileNotFound
		}
		p.Company = company
		p.UpdatedAt = a.now()
		res = p
		return tx.PutClientProfile(p)
	})
	return res, err
}

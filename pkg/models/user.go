package models

import "time"

// User is the profile of a signed-in user, keyed by email.
type User struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	ResumeURL    string    `json:"resume_url,omitempty"`
	GitHubURL    string    `json:"github_url,omitempty"`
	PortfolioURL string    `json:"portfolio_url,omitempty"`
	LinkedInURL  string    `json:"linkedin_url,omitempty"`
	HasOnboarded bool      `json:"has_onboarded"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserProfileUpdate is a partial profile update. Nil fields are left unchanged.
type UserProfileUpdate struct {
	Name         *string `json:"name,omitempty"`
	ResumeURL    *string `json:"resume_url,omitempty"`
	GitHubURL    *string `json:"github_url,omitempty"`
	PortfolioURL *string `json:"portfolio_url,omitempty"`
	LinkedInURL  *string `json:"linkedin_url,omitempty"`
	HasOnboarded *bool   `json:"has_onboarded,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u *UserProfileUpdate) IsEmpty() bool {
	return u.Name == nil && u.ResumeURL == nil && u.GitHubURL == nil &&
		u.PortfolioURL == nil && u.LinkedInURL == nil && u.HasOnboarded == nil
}

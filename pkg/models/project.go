package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultDomain is used when a project has no domain.
const DefaultDomain = "General"

// Project is a portfolio entry that can be matched against job descriptions.
type Project struct {
	ID          uuid.UUID `json:"id"`
	Owner       OwnerID   `json:"-"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Skills      []string  `json:"skills"`
	URL         string    `json:"url,omitempty"`
	Category    string    `json:"category,omitempty"`
	Domain      string    `json:"domain"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DomainOrDefault returns the project's domain, or DefaultDomain when empty.
func (p *Project) DomainOrDefault() string {
	if strings.TrimSpace(p.Domain) == "" {
		return DefaultDomain
	}
	return p.Domain
}

// ProjectFields holds caller-supplied values for a new project.
type ProjectFields struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Skills      []string `json:"skills"`
	URL         string   `json:"url,omitempty"`
	Category    string   `json:"category,omitempty"`
	Domain      string   `json:"domain,omitempty"`
}

// CleanSkills trims skill tags and drops empty ones, keeping order.
func CleanSkills(skills []string) []string {
	cleaned := make([]string, 0, len(skills))
	for _, s := range skills {
		if s = strings.TrimSpace(s); s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return cleaned
}

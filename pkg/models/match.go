package models

import "github.com/google/uuid"

// MatchResult is one project's aggregate relevance to a job description.
// It is computed per request and never persisted.
type MatchResult struct {
	ProjectID    uuid.UUID `json:"projectId"`
	ProjectName  string    `json:"projectName"`
	AverageScore float64   `json:"averageScore"`
}

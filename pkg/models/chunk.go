package models

import "github.com/google/uuid"

// ChunkSourceProject tags chunks derived from a project record.
const ChunkSourceProject = "project"

// ChunkMetadata is attached unchanged to every chunk of one project.
type ChunkMetadata struct {
	ProjectID   uuid.UUID `json:"projectId"`
	OwnerID     string    `json:"ownerId"`
	ProjectName string    `json:"projectName"`
	Category    string    `json:"category"`
	Domain      string    `json:"domain"`
	Source      string    `json:"source"`
}

// ProjectChunk is one embedded facet of a project. Chunks are write-once.
type ProjectChunk struct {
	Text     string        `json:"text"`
	Vector   []float32     `json:"-"`
	Metadata ChunkMetadata `json:"metadata"`
}

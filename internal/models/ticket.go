package models

import "time"

// TicketStatus tracks where a ticket is in the generation pipeline.
type TicketStatus string

const (
	TicketPending      TicketStatus = "pending"
	TicketGenerating   TicketStatus = "generating"
	TicketWritingFiles TicketStatus = "writing_files"
	TicketCommitting   TicketStatus = "committing"
	TicketCreatingPR   TicketStatus = "creating_pr"
	TicketComplete     TicketStatus = "complete"
	TicketFailed       TicketStatus = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s TicketStatus) Terminal() bool {
	return s == TicketComplete || s == TicketFailed
}

// Ticket is one feature-generation request. Rows are written once the run
// reaches a terminal state; in-flight state lives in the registry only.
type Ticket struct {
	ID          uint         `gorm:"primaryKey" json:"-"`
	TicketID    string       `gorm:"size:255;not null;index:idx_ticket_project" json:"ticket_id"`
	ProjectID   string       `gorm:"size:36;not null;index:idx_ticket_project" json:"project_id"`
	Description string       `gorm:"type:text;not null" json:"description"`
	Status      TicketStatus `gorm:"size:32;not null" json:"status"`
	PRURL       string       `gorm:"size:512" json:"pr_url,omitempty"`
	Branch      string       `gorm:"size:255" json:"branch,omitempty"`
	CommitHash  string       `gorm:"size:64" json:"commit_hash,omitempty"`
	Error       string       `gorm:"type:text" json:"error,omitempty"`
	FilesJSON   string       `gorm:"type:text" json:"-"` // JSON list of changed paths
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// GeneratedFile is one path/content pair produced by the code generator.
// Paths are relative to the workspace root.
type GeneratedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// GenerationResult is the structured output of one generation call.
type GenerationResult struct {
	Files   []GeneratedFile `json:"files"`
	Summary string          `json:"summary"`
}

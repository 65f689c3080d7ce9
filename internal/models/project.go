package models

import "time"

// Project groups tickets against one connected GitHub repository.
type Project struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	RepoName    string    `gorm:"size:255" json:"repo_name"` // owner/repo
	RepoURL     string    `gorm:"size:512" json:"repo_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasRepo reports whether a GitHub repository is connected.
func (p *Project) HasRepo() bool {
	return p != nil && p.RepoName != ""
}

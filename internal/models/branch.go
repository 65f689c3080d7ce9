package models

import "time"

// BranchInfo represents a git branch with its latest commit timestamp
type BranchInfo struct {
	Name           string    `json:"name"`
	LastCommitDate time.Time `json:"lastCommitDate"`
}

// RepoState is a snapshot of a repository's branches and HEAD commit.
type RepoState struct {
	Head     string       `json:"head"`
	Branches []BranchInfo `json:"branches"`
}

package models

// FileInfo describes one indexed file of a repository checkout.
type FileInfo struct {
	Path      string `json:"path"` // relative, slash-separated
	Size      int64  `json:"size"`
	Extension string `json:"extension"`
	IsCode    bool   `json:"is_code"`
	Lines     int    `json:"lines"`
}

// IndexSummary aggregates an indexed checkout.
type IndexSummary struct {
	TotalFiles int `json:"total_files"`
	CodeFiles  int `json:"code_files"`
	TotalLines int `json:"total_lines"`
}

// RelevantFile is an indexed file scored against a ticket description.
type RelevantFile struct {
	FileInfo FileInfo `json:"file_info"`
	Score    float64  `json:"score"`
	Reasons  []string `json:"reasons"`
}

package services

import (
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"devforge/internal/models"
	"devforge/internal/utils"
)

// FileChange describes what one generated file did to the checkout: a brand
// new file or an edit, with line-level add/remove counts.
type FileChange struct {
	Path    string `json:"path"`
	Created bool   `json:"created"`
	Added   int    `json:"added"`
	Removed int    `json:"removed"`
}

// snapshotFiles reads the current content of each target path in the
// workspace so the post-write summary can tell new files from edits. Paths
// that do not resolve inside the root are skipped here; WriteFiles rejects
// them properly.
func snapshotFiles(root string, files []models.GeneratedFile) map[string]string {
	before := make(map[string]string, len(files))
	for _, f := range files {
		abs, ok := utils.SafeJoinUnderBase(root, strings.TrimSpace(f.Path))
		if !ok {
			continue
		}
		if data, err := os.ReadFile(abs); err == nil {
			before[f.Path] = string(data)
		}
	}
	return before
}

// summarizeChanges builds per-file line stats for a written generation.
// before holds pre-write content keyed by path; absent keys are new files.
func summarizeChanges(before map[string]string, files []models.GeneratedFile) []FileChange {
	dmp := diffmatchpatch.New()
	changes := make([]FileChange, 0, len(files))
	for _, f := range files {
		old, existed := before[f.Path]
		change := FileChange{Path: f.Path, Created: !existed}
		if !existed {
			change.Added = lineCount(f.Content)
			changes = append(changes, change)
			continue
		}
		src, dst, lines := dmp.DiffLinesToChars(old, f.Content)
		for _, d := range dmp.DiffCharsToLines(dmp.DiffMain(src, dst, false), lines) {
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				change.Added += lineCount(d.Text)
			case diffmatchpatch.DiffDelete:
				change.Removed += lineCount(d.Text)
			}
		}
		changes = append(changes, change)
	}
	return changes
}

// changesLine condenses a change set into one progress message, e.g.
// "2 file(s) edited, 1 file(s) added (+40/-12)".
func changesLine(changes []FileChange) string {
	var created, edited, added, removed int
	for _, c := range changes {
		if c.Created {
			created++
		} else {
			edited++
		}
		added += c.Added
		removed += c.Removed
	}

	var parts []string
	if edited > 0 {
		parts = append(parts, fmt.Sprintf("%d file(s) edited", edited))
	}
	if created > 0 {
		parts = append(parts, fmt.Sprintf("%d file(s) added", created))
	}
	if len(parts) == 0 {
		return "no changes"
	}
	return fmt.Sprintf("%s (+%d/-%d)", strings.Join(parts, ", "), added, removed)
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}

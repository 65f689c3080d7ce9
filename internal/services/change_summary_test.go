package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devforge/internal/models"
)

func TestSnapshotFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<html>\n"), 0o644))

	before := snapshotFiles(root, []models.GeneratedFile{
		{Path: "index.html"},
		{Path: "new.css"},
		{Path: "../outside.txt"},
	})

	assert.Equal(t, map[string]string{"index.html": "<html>\n"}, before)
}

func TestSummarizeChanges(t *testing.T) {
	before := map[string]string{
		"app.js":    "const a = 1\nconst b = 2\nconst c = 3\n",
		"style.css": "body{}\n",
	}
	changes := summarizeChanges(before, []models.GeneratedFile{
		{Path: "app.js", Content: "const a = 1\nconst b = 20\nconst c = 3\n"},
		{Path: "style.css", Content: "body{}\n"},
		{Path: "new.html", Content: "<html>\n<body>\n</html>\n"},
	})

	require.Len(t, changes, 3)

	assert.Equal(t, FileChange{Path: "app.js", Added: 1, Removed: 1}, changes[0])
	assert.Equal(t, FileChange{Path: "style.css"}, changes[1])
	assert.Equal(t, FileChange{Path: "new.html", Created: true, Added: 3}, changes[2])
}

func TestChangesLine(t *testing.T) {
	assert.Equal(t, "no changes", changesLine(nil))

	line := changesLine([]FileChange{
		{Path: "a.js", Added: 4, Removed: 2},
		{Path: "b.js", Added: 6},
		{Path: "c.html", Created: true, Added: 30},
	})
	assert.Equal(t, "2 file(s) edited, 1 file(s) added (+40/-2)", line)
}

func TestValidateGeneration(t *testing.T) {
	assert.Error(t, validateGeneration(nil))
	assert.Error(t, validateGeneration(&models.GenerationResult{}))

	err := validateGeneration(&models.GenerationResult{Files: []models.GeneratedFile{
		{Path: "a.js"}, {Path: "a.js"},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate path")

	assert.NoError(t, validateGeneration(&models.GenerationResult{Files: []models.GeneratedFile{
		{Path: "a.js"}, {Path: "b.js"},
	}}))
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	assert.Equal(t, "short", truncate("  short  ", 72))

	long := strings.Repeat("é", 40)
	got := truncate(long, 10)
	assert.True(t, utf8.ValidString(got), "truncation must not split a rune")
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), 10)
}

package services

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/yargevad/filepathx"

	"devforge/internal/models"
	"devforge/internal/utils"
)

var codeExtensions = map[string]bool{
	".go": true, ".js": true, ".jsx": true, ".ts": true, ".tsx": true,
	".html": true, ".css": true, ".scss": true, ".py": true, ".rb": true,
	".json": true, ".yaml": true, ".yml": true, ".md": true, ".sql": true,
	".sh": true, ".java": true, ".rs": true, ".c": true, ".h": true,
}

var skippedDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, "dist": true,
	"build": true, "__pycache__": true, ".next": true,
}

// maxIndexedFileSize keeps binaries and generated blobs out of the index.
const maxIndexedFileSize = 512 * 1024

// IndexerService walks a repository checkout and scores files against a
// ticket description so the most relevant ones can be inlined into the
// generation prompt.
type IndexerService struct {
}

func NewIndexerService() *IndexerService {
	return &IndexerService{}
}

// Index walks root and returns every indexable file, sorted by path.
func (s *IndexerService) Index(root string) ([]models.FileInfo, models.IndexSummary, error) {
	var summary models.IndexSummary

	if !utils.DirectoryExists(root) {
		return nil, summary, fmt.Errorf("directory does not exist: %s", root)
	}

	matches, err := filepathx.Glob(filepath.Join(root, "**", "*"))
	if err != nil {
		return nil, summary, fmt.Errorf("glob %s: %w", root, err)
	}

	var files []models.FileInfo
	for _, match := range matches {
		rel, err := filepath.Rel(root, match)
		if err != nil {
			continue
		}
		if hasSkippedSegment(rel) {
			continue
		}

		info, err := os.Stat(match)
		if err != nil || info.IsDir() || info.Size() > maxIndexedFileSize {
			continue
		}

		ext := strings.ToLower(filepath.Ext(match))
		isCode := codeExtensions[ext]
		lines := 0
		if isCode {
			if n, err := utils.CountLines(match); err == nil {
				lines = n
			}
		}

		files = append(files, models.FileInfo{
			Path:      filepath.ToSlash(rel),
			Size:      info.Size(),
			Extension: ext,
			IsCode:    isCode,
			Lines:     lines,
		})

		summary.TotalFiles++
		if isCode {
			summary.CodeFiles++
			summary.TotalLines += lines
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, summary, nil
}

var fileMentionPattern = regexp.MustCompile(`\b[\w./-]+\.(?:go|js|jsx|ts|tsx|html|css|scss|py|rb|md|json)\b`)

// DetectTargetFiles extracts file names mentioned in a ticket description.
func (s *IndexerService) DetectTargetFiles(description string) []string {
	matches := fileMentionPattern.FindAllString(strings.ToLower(description), -1)
	seen := make(map[string]bool, len(matches))
	var targets []string
	for _, m := range matches {
		if !seen[m] {
			seen[m] = true
			targets = append(targets, m)
		}
	}
	return targets
}

var editKeywords = []string{"edit", "modify", "update", "change", "fix", "refactor"}

// DetectMode decides between creating new files and editing existing ones
// based on the description and whether the mentioned files already exist.
func (s *IndexerService) DetectMode(description string, targets []string, relevant []models.RelevantFile) string {
	if len(targets) > 0 && len(relevant) > 0 {
		return "edit"
	}
	lower := strings.ToLower(description)
	for _, kw := range editKeywords {
		if strings.Contains(lower, kw) {
			return "edit"
		}
	}
	return "create"
}

// SelectContext scores every indexed code file against the description and
// returns the top maxFiles files ordered by descending score.
func (s *IndexerService) SelectContext(files []models.FileInfo, description string, targets []string, maxFiles int) []models.RelevantFile {
	if maxFiles <= 0 {
		maxFiles = 8
	}
	lowerDesc := strings.ToLower(description)

	var scored []models.RelevantFile
	for _, file := range files {
		if !file.IsCode {
			continue
		}
		score, reasons := scoreFile(file, lowerDesc, targets)
		if score <= 0 {
			continue
		}
		scored = append(scored, models.RelevantFile{FileInfo: file, Score: score, Reasons: reasons})
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > maxFiles {
		scored = scored[:maxFiles]
	}
	return scored
}

// FormatContext inlines the selected files for the generation prompt,
// truncating each file so a few big files cannot crowd out the rest.
func (s *IndexerService) FormatContext(root string, relevant []models.RelevantFile) string {
	const perFileLimit = 8 * 1024

	var b strings.Builder
	for _, rf := range relevant {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rf.FileInfo.Path)))
		if err != nil {
			continue
		}
		content := string(data)
		if len(content) > perFileLimit {
			content = content[:perFileLimit] + "\n... (truncated)"
		}
		fmt.Fprintf(&b, "=== %s ===\n%s\n\n", rf.FileInfo.Path, content)
	}
	return b.String()
}

func scoreFile(file models.FileInfo, lowerDesc string, targets []string) (float64, []string) {
	var score float64
	var reasons []string

	base := strings.ToLower(filepath.Base(file.Path))
	name := strings.TrimSuffix(base, file.Extension)

	for _, target := range targets {
		if base == target || strings.HasSuffix(file.Path, target) {
			score += 10
			reasons = append(reasons, "mentioned in description")
			break
		}
	}
	if len(name) > 2 && strings.Contains(lowerDesc, name) {
		score += 5
		reasons = append(reasons, "name matches description")
	}
	for _, target := range targets {
		if strings.HasSuffix(target, file.Extension) && file.Extension != "" {
			score += 1
			reasons = append(reasons, "related file type")
			break
		}
	}
	// Small files are cheaper to inline and usually more focused.
	if score > 0 && file.Size < 4*1024 {
		score += 0.5
	}
	return score, reasons
}

func hasSkippedSegment(rel string) bool {
	for _, segment := range strings.Split(filepath.ToSlash(rel), "/") {
		if skippedDirs[segment] {
			return true
		}
	}
	return false
}

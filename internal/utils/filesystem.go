package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// DirectoryExists reports whether path exists and is a directory.
func DirectoryExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// HasGitRepo reports whether path contains a .git directory.
func HasGitRepo(path string) bool {
	info, err := os.Stat(filepath.Join(path, ".git"))
	return err == nil && info.IsDir()
}

// FindGitRepoRoot walks upward from path looking for a .git directory and
// returns the containing directory.
func FindGitRepoRoot(path string) (string, bool) {
	dir := path
	for {
		if HasGitRepo(dir) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

// SafeJoinUnderBase joins rel under base and rejects paths that escape the
// base directory. Returns the absolute path and whether the join was safe.
// Symlinks inside the base are resolved before the containment check, so a
// checkout carrying a link to the outside cannot redirect a write.
func SafeJoinUnderBase(base, rel string) (string, bool) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", false
	}
	candidate := filepath.Join(absBase, filepath.FromSlash(rel))
	if !containedIn(absBase, candidate) {
		return "", false
	}

	evalBase, err := resolveExistingAncestor(absBase)
	if err != nil {
		evalBase = absBase
	}
	resolved, err := resolveExistingAncestor(candidate)
	if err != nil {
		return "", false
	}
	if !containedIn(evalBase, resolved) {
		return "", false
	}
	return candidate, true
}

// containedIn reports whether path is base itself or lexically below it.
func containedIn(base, path string) bool {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolveExistingAncestor resolves symlinks in the deepest existing ancestor
// of path and rejoins the not-yet-created remainder. path must be absolute
// and cleaned; new files sit below an existing directory, so resolving that
// directory is enough to see where the write really lands.
func resolveExistingAncestor(path string) (string, error) {
	suffix := ""
	for p := path; ; {
		resolved, err := filepath.EvalSymlinks(p)
		if err == nil {
			return filepath.Join(resolved, suffix), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		suffix = filepath.Join(filepath.Base(p), suffix)
		parent := filepath.Dir(p)
		if parent == p {
			return "", err
		}
		p = parent
	}
}

// CountLines returns the number of newline-terminated lines in a file,
// counting a trailing partial line as one.
func CountLines(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	if len(data) == 0 {
		return 0, nil
	}
	lines := strings.Count(string(data), "\n")
	if data[len(data)-1] != '\n' {
		lines++
	}
	return lines, nil
}

package utils

import (
	"fmt"
	"path"
	"strings"

	apperrors "github.com/naoray/subtreesync/internal/errors"
)

// SanitisePath converts a free-form name into something usable as a git
// remote name by replacing / and whitespace with -
func SanitisePath(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "/", "-")
	return strings.Join(strings.Fields(name), "-")
}

// ExtractRepoName extracts the repository name from a git URL
func ExtractRepoName(url string) string {
	url = strings.TrimSpace(url)
	url = strings.TrimSuffix(url, "/")
	url = strings.TrimSuffix(url, ".git")

	// scp-like ssh form: git@host:owner/repo
	if !strings.Contains(url, "://") {
		if i := strings.LastIndex(url, ":"); i >= 0 {
			url = url[i+1:]
		}
	}

	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}

// IsGitShortFormat detects if the input is a GitHub short format (user/repo)
func IsGitShortFormat(repo string) bool {
	parts := strings.Split(repo, "/")
	return len(parts) == 2 && parts[0] != "" && parts[1] != "" &&
		!strings.Contains(repo, "@") &&
		!strings.Contains(repo, ":") &&
		!strings.HasPrefix(repo, ".")
}

// ExpandRemote turns a GitHub short format into an https clone URL and
// returns anything else unchanged.
func ExpandRemote(remote string) string {
	remote = strings.TrimSpace(remote)
	if IsGitShortFormat(remote) {
		return fmt.Sprintf("https://github.com/%s.git", strings.TrimSuffix(remote, ".git"))
	}
	return remote
}

// NormalizePrefix cleans a subtree prefix into the slash separated, relative
// form git subtree expects.
func NormalizePrefix(prefix string) string {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return ""
	}
	prefix = strings.ReplaceAll(prefix, "\\", "/")
	cleaned := path.Clean(prefix)
	if cleaned != "/" {
		cleaned = strings.TrimPrefix(cleaned, "./")
	}
	return cleaned
}

// DefaultPrefix suggests the prefix for a new subtree named name under root.
func DefaultPrefix(root, name string) string {
	root = NormalizePrefix(root)
	if root == "" || root == "." {
		return SanitisePath(name)
	}
	return root + "/" + SanitisePath(name)
}

// CheckPrefixSafe refuses prefixes that would make a recursive delete touch
// anything outside the subtree: empty, ".", "/", absolute paths, paths that
// climb out of the repository, the .git directory and any protected prefix.
func CheckPrefixSafe(prefix string, protected []string) error {
	raw := strings.TrimSpace(prefix)
	p := NormalizePrefix(raw)

	switch {
	case p == "" || p == "." || p == "/":
		return fmt.Errorf("%w: %q", apperrors.ErrUnsafePrefix, prefix)
	case strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "\\") || hasDriveLetter(raw):
		return fmt.Errorf("%w: %q is absolute", apperrors.ErrUnsafePrefix, prefix)
	case p == ".." || strings.HasPrefix(p, "../"):
		return fmt.Errorf("%w: %q leaves the repository", apperrors.ErrUnsafePrefix, prefix)
	case p == ".git" || strings.HasPrefix(p, ".git/"):
		return fmt.Errorf("%w: %q is inside .git", apperrors.ErrUnsafePrefix, prefix)
	}

	for _, guarded := range protected {
		if NormalizePrefix(guarded) == p {
			return fmt.Errorf("%w: %q is protected", apperrors.ErrUnsafePrefix, prefix)
		}
	}

	return nil
}

func hasDriveLetter(p string) bool {
	return len(p) >= 2 && p[1] == ':' &&
		((p[0] >= 'a' && p[0] <= 'z') || (p[0] >= 'A' && p[0] <= 'Z'))
}

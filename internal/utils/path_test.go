package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/naoray/subtreesync/internal/errors"
)

func TestSanitisePath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple name",
			input:    "shared-lib",
			expected: "shared-lib",
		},
		{
			name:     "name with slash",
			input:    "acme/shared-lib",
			expected: "acme-shared-lib",
		},
		{
			name:     "name with spaces",
			input:    "  shared  lib ",
			expected: "shared-lib",
		},
		{
			name:     "just slash",
			input:    "/",
			expected: "-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitisePath(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestExtractRepoName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "SSH URL",
			input:    "git@github.com:naoray/subtreesync.git",
			expected: "subtreesync",
		},
		{
			name:     "HTTPS URL",
			input:    "https://github.com/naoray/subtreesync.git",
			expected: "subtreesync",
		},
		{
			name:     "HTTPS URL without owner",
			input:    "https://example.com/lib.git",
			expected: "lib",
		},
		{
			name:     "ssh scheme with port",
			input:    "ssh://git@example.com:2222/team/lib.git",
			expected: "lib",
		},
		{
			name:     "Trailing slash",
			input:    "https://example.com/team/lib/",
			expected: "lib",
		},
		{
			name:     "Short format",
			input:    "naoray/subtreesync",
			expected: "subtreesync",
		},
		{
			name:     "Local path",
			input:    "../vendor/lib.git",
			expected: "lib",
		},
		{
			name:     "Just repo name",
			input:    "subtreesync.git",
			expected: "subtreesync",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ExtractRepoName(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestIsGitShortFormat(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"Short format with user/repo", "naoray/subtreesync", true},
		{"SSH URL", "git@github.com:user/repo.git", false},
		{"Full HTTPS URL", "https://github.com/user/repo.git", false},
		{"Just repo name", "subtreesync", false},
		{"Relative path", "../lib", false},
		{"Nested path", "a/b/c", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsGitShortFormat(tt.input))
		})
	}
}

func TestExpandRemote(t *testing.T) {
	assert.Equal(t, "https://github.com/naoray/subtreesync.git", ExpandRemote("naoray/subtreesync"))
	assert.Equal(t, "https://github.com/naoray/subtreesync.git", ExpandRemote(" naoray/subtreesync.git "))
	assert.Equal(t, "git@github.com:user/repo.git", ExpandRemote("git@github.com:user/repo.git"))
	assert.Equal(t, "/srv/git/lib.git", ExpandRemote("/srv/git/lib.git"))
}

func TestNormalizePrefix(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"  ", ""},
		{"src/lib", "src/lib"},
		{"./src/lib/", "src/lib"},
		{"src//lib", "src/lib"},
		{`src\lib`, "src/lib"},
		{"src/lib/..", "src"},
		{".", "."},
		{"./", "."},
		{"/", "/"},
		{"//", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizePrefix(tt.input))
		})
	}
}

func TestDefaultPrefix(t *testing.T) {
	assert.Equal(t, "src/projects/lib", DefaultPrefix("src/projects", "lib"))
	assert.Equal(t, "vendor/acme-lib", DefaultPrefix("./vendor/", "acme/lib"))
	assert.Equal(t, "lib", DefaultPrefix("", "lib"))
	assert.Equal(t, "lib", DefaultPrefix(".", "lib"))
}

func TestCheckPrefixSafe(t *testing.T) {
	tests := []struct {
		name      string
		prefix    string
		protected []string
		safe      bool
	}{
		{"nested prefix", "src/lib", nil, true},
		{"dot slash prefix", "./src/lib", nil, true},
		{"empty", "", nil, false},
		{"whitespace", "   ", nil, false},
		{"dot", ".", nil, false},
		{"dot slash", "./", nil, false},
		{"root", "/", nil, false},
		{"collapses to dot", "src/..", nil, false},
		{"absolute", "/etc", nil, false},
		{"windows drive", `C:\work`, nil, false},
		{"parent", "../other", nil, false},
		{"escapes after clean", "src/../../other", nil, false},
		{"git dir", ".git", nil, false},
		{"inside git dir", ".git/hooks", nil, false},
		{"protected", "src/", []string{"src"}, false},
		{"below protected is fine", "src/lib", []string{"src"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPrefixSafe(tt.prefix, tt.protected)
			if tt.safe {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, apperrors.ErrUnsafePrefix), "got %v", err)
		})
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// LegacyWorkspaceName names the workspace a single-workspace registry is upgraded into.
const LegacyWorkspaceName = "Default"

// decodeDocument parses registry content in either the workspace layout or the
// legacy {"repos": [...]} layout. legacy reports whether an upgrade happened.
func decodeDocument(content []byte) (doc *Document, legacy bool, err error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, false, err
	}

	doc = &Document{}
	if _, ok := raw["repositories"]; ok {
		if err := json.Unmarshal(content, doc); err != nil {
			return nil, false, err
		}
		doc.normalize()
		return doc, false, nil
	}

	reposRaw, ok := raw["repos"]
	if !ok {
		doc.normalize()
		return doc, false, nil
	}

	var entries []SubtreeEntry
	if err := json.Unmarshal(reposRaw, &entries); err != nil {
		return nil, false, fmt.Errorf("legacy repos: %w", err)
	}

	name := LegacyWorkspaceName
	doc.Repositories = []Workspace{{
		Name:      name,
		Path:      ".",
		IsDefault: true,
		Repos:     entries,
	}}
	doc.CurrentRepository = &name
	doc.normalize()

	return doc, true, nil
}

// MigrateLegacyRegistry rewrites a legacy single-workspace registry file in the
// workspace layout. Returns true if migration occurred, false otherwise.
func MigrateLegacyRegistry(path string) (bool, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading registry: %w", err)
	}

	doc, legacy, err := decodeDocument(content)
	if err != nil {
		return false, fmt.Errorf("parsing registry %s: %w", path, err)
	}
	if !legacy {
		return false, nil
	}

	r := NewRegistry(path, nil)
	if err := r.write(doc); err != nil {
		return false, err
	}

	return true, nil
}

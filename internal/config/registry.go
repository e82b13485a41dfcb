package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	apperrors "github.com/naoray/subtreesync/internal/errors"
)

// SubtreeEntry maps a logical name to a remote repository merged under a local prefix.
type SubtreeEntry struct {
	Name        string         `json:"name"`
	Remote      string         `json:"remote"`
	Prefix      string         `json:"prefix"`
	Branch      string         `json:"branch"`
	SplitBranch string         `json:"split_branch,omitempty"`
	AddedTime   string         `json:"added_time"`
	Extra       map[string]any `json:"extra"`
}

// Validate checks the fields every entry needs before git is invoked for it.
func (e SubtreeEntry) Validate() error {
	var missing []string
	if strings.TrimSpace(e.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(e.Remote) == "" {
		missing = append(missing, "remote")
	}
	if strings.TrimSpace(e.Prefix) == "" {
		missing = append(missing, "prefix")
	}
	if strings.TrimSpace(e.Branch) == "" {
		missing = append(missing, "branch")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", apperrors.ErrInvalidEntry, strings.Join(missing, ", "))
	}
	if strings.ContainsAny(e.Name, " \t\n") {
		return fmt.Errorf("%w: name %q must not contain whitespace", apperrors.ErrInvalidEntry, e.Name)
	}
	return nil
}

// ExtraString returns a string value stored under extra, or "".
func (e SubtreeEntry) ExtraString(key string) string {
	if e.Extra == nil {
		return ""
	}
	if v, ok := e.Extra[key].(string); ok {
		return v
	}
	return ""
}

// SetExtra stores a value under extra, allocating the map when needed.
func (e *SubtreeEntry) SetExtra(key string, value any) {
	if e.Extra == nil {
		e.Extra = make(map[string]any)
	}
	e.Extra[key] = value
}

// Workspace groups the entries of one parent repository.
type Workspace struct {
	Name      string         `json:"name"`
	Path      string         `json:"path"`
	IsDefault bool           `json:"is_default"`
	Repos     []SubtreeEntry `json:"repos"`
}

// Document is the on-disk registry layout.
type Document struct {
	Repositories      []Workspace `json:"repositories"`
	CurrentRepository *string     `json:"current_repository"`
}

func (d *Document) normalize() {
	if d.Repositories == nil {
		d.Repositories = []Workspace{}
	}
	for i := range d.Repositories {
		ws := &d.Repositories[i]
		if ws.Repos == nil {
			ws.Repos = []SubtreeEntry{}
		}
		for j := range ws.Repos {
			if ws.Repos[j].Extra == nil {
				ws.Repos[j].Extra = map[string]any{}
			}
		}
	}
	if d.CurrentRepository != nil && d.workspaceIndex(*d.CurrentRepository) < 0 {
		d.CurrentRepository = nil
	}
}

func (d *Document) workspaceIndex(name string) int {
	for i, ws := range d.Repositories {
		if ws.Name == name {
			return i
		}
	}
	return -1
}

// currentIndex resolves the current workspace: the persisted pointer, then the
// default workspace, then the first one.
func (d *Document) currentIndex() int {
	if d.CurrentRepository != nil {
		if i := d.workspaceIndex(*d.CurrentRepository); i >= 0 {
			return i
		}
	}
	for i, ws := range d.Repositories {
		if ws.IsDefault {
			return i
		}
	}
	if len(d.Repositories) > 0 {
		return 0
	}
	return -1
}

func (d *Document) setDefault(i int) {
	for j := range d.Repositories {
		d.Repositories[j].IsDefault = j == i
	}
}

// Registry persists subtree entries as JSON. Every call reads and rewrites the
// whole file; concurrent writers are not coordinated and the last write wins.
type Registry struct {
	path   string
	logger *log.Logger
}

// NewRegistry returns a Registry backed by the JSON file at path.
func NewRegistry(path string, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	return &Registry{path: path, logger: logger}
}

// Path returns the backing file.
func (r *Registry) Path() string {
	return r.path
}

// read loads the document, creating an empty registry file when none exists.
func (r *Registry) read() (*Document, error) {
	content, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		doc := &Document{}
		doc.normalize()
		if err := r.write(doc); err != nil {
			return doc, err
		}
		r.logger.Debug("created registry", "path", r.path)
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading registry: %w", err)
	}

	doc, legacy, err := decodeDocument(content)
	if err != nil {
		return nil, fmt.Errorf("parsing registry %s: %w", r.path, err)
	}
	if legacy {
		r.logger.Debug("upgrading legacy registry layout", "path", r.path)
	}
	return doc, nil
}

func (r *Registry) write(doc *Document) error {
	doc.normalize()

	if err := os.MkdirAll(filepath.Dir(r.path), 0755); err != nil {
		return fmt.Errorf("creating registry directory: %w", err)
	}

	content, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling registry: %w", err)
	}
	content = append(content, '\n')

	if err := os.WriteFile(r.path, content, 0644); err != nil {
		return fmt.Errorf("writing registry: %w", err)
	}
	return nil
}

// document returns the parsed registry or an empty one, logging any failure.
func (r *Registry) document() *Document {
	doc, err := r.read()
	if err != nil {
		r.logger.Error("could not load registry, continuing with an empty one", "path", r.path, "err", err)
	}
	if doc == nil {
		doc = &Document{}
		doc.normalize()
	}
	return doc
}

// Load returns the entries of the current workspace. It never fails: read or
// parse errors are logged and yield an empty collection.
func (r *Registry) Load() []SubtreeEntry {
	doc := r.document()
	i := doc.currentIndex()
	if i < 0 {
		return []SubtreeEntry{}
	}
	return doc.Repositories[i].Repos
}

// Find returns the entry with the given name in the current workspace.
func (r *Registry) Find(name string) (SubtreeEntry, bool) {
	for _, entry := range r.Load() {
		if entry.Name == name {
			return entry, true
		}
	}
	return SubtreeEntry{}, false
}

// Save upserts entry by name in the current workspace.
func (r *Registry) Save(entry SubtreeEntry) error {
	doc, err := r.read()
	if err != nil {
		return err
	}

	i := doc.currentIndex()
	if i < 0 {
		return apperrors.ErrNoWorkspace
	}
	if entry.Extra == nil {
		entry.Extra = map[string]any{}
	}

	ws := &doc.Repositories[i]
	replaced := false
	for j := range ws.Repos {
		if ws.Repos[j].Name == entry.Name {
			ws.Repos[j] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		ws.Repos = append(ws.Repos, entry)
	}

	return r.write(doc)
}

// Delete removes the named entry from the current workspace and reports whether it existed.
func (r *Registry) Delete(name string) (bool, error) {
	doc, err := r.read()
	if err != nil {
		return false, err
	}

	i := doc.currentIndex()
	if i < 0 {
		return false, nil
	}

	ws := &doc.Repositories[i]
	for j := range ws.Repos {
		if ws.Repos[j].Name == name {
			ws.Repos = append(ws.Repos[:j], ws.Repos[j+1:]...)
			return true, r.write(doc)
		}
	}
	return false, nil
}

// ListWorkspaces returns all workspaces in file order.
func (r *Registry) ListWorkspaces() []Workspace {
	return r.document().Repositories
}

// Current returns the current workspace.
func (r *Registry) Current() (Workspace, bool) {
	doc := r.document()
	i := doc.currentIndex()
	if i < 0 {
		return Workspace{}, false
	}
	return doc.Repositories[i], true
}

// SetCurrent persists name as the current workspace.
func (r *Registry) SetCurrent(name string) error {
	doc, err := r.read()
	if err != nil {
		return err
	}
	if doc.workspaceIndex(name) < 0 {
		return fmt.Errorf("%q: %w", name, apperrors.ErrWorkspaceNotFound)
	}
	doc.CurrentRepository = &name
	return r.write(doc)
}

// SetDefault marks name as the only default workspace.
func (r *Registry) SetDefault(name string) error {
	doc, err := r.read()
	if err != nil {
		return err
	}
	i := doc.workspaceIndex(name)
	if i < 0 {
		return fmt.Errorf("%q: %w", name, apperrors.ErrWorkspaceNotFound)
	}
	doc.setDefault(i)
	return r.write(doc)
}

// AddWorkspace adds or updates a workspace by name, keeping its entries on update.
// The first workspace ever added becomes both default and current.
func (r *Registry) AddWorkspace(ws Workspace) error {
	if strings.TrimSpace(ws.Name) == "" {
		return fmt.Errorf("workspace name is required")
	}

	doc, err := r.read()
	if err != nil {
		return err
	}

	first := len(doc.Repositories) == 0
	i := doc.workspaceIndex(ws.Name)
	if i >= 0 {
		existing := &doc.Repositories[i]
		existing.Path = ws.Path
		if ws.Repos != nil {
			existing.Repos = ws.Repos
		}
	} else {
		doc.Repositories = append(doc.Repositories, ws)
		i = len(doc.Repositories) - 1
	}

	if first || ws.IsDefault {
		doc.setDefault(i)
	}
	if first {
		name := ws.Name
		doc.CurrentRepository = &name
	}

	return r.write(doc)
}

// RemoveWorkspace deletes a workspace. When it was the default or current one,
// the first remaining workspace takes over that role.
func (r *Registry) RemoveWorkspace(name string) (bool, error) {
	doc, err := r.read()
	if err != nil {
		return false, err
	}

	i := doc.workspaceIndex(name)
	if i < 0 {
		return false, nil
	}

	wasDefault := doc.Repositories[i].IsDefault
	doc.Repositories = append(doc.Repositories[:i], doc.Repositories[i+1:]...)

	if len(doc.Repositories) > 0 && wasDefault {
		doc.setDefault(0)
	}
	if doc.CurrentRepository != nil && *doc.CurrentRepository == name {
		doc.CurrentRepository = nil
		if len(doc.Repositories) > 0 {
			next := doc.Repositories[0].Name
			doc.CurrentRepository = &next
		}
	}

	return true, r.write(doc)
}

// WorkspaceForPath returns the workspace whose path is path or one of its parents.
func (r *Registry) WorkspaceForPath(path string) (Workspace, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Workspace{}, false
	}

	for _, ws := range r.ListWorkspaces() {
		wsAbs, err := filepath.Abs(ws.Path)
		if err != nil {
			continue
		}
		if absPath == wsAbs || isSubPath(wsAbs, absPath) {
			return ws, true
		}
	}

	return Workspace{}, false
}

// isSubPath checks if child is a subdirectory of parent
func isSubPath(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

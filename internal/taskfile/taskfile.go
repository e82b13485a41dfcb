// Package taskfile keeps the SUBTREES list of a Taskfile.yml in step with the
// registry. Edits go through yaml.Node so comments and unrelated keys survive.
package taskfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/naoray/subtreesync/internal/utils"
)

// SectionKey is the mapping key holding the subtree list.
const SectionKey = "SUBTREES"

var (
	ErrNotFound        = errors.New("taskfile not found")
	ErrSectionNotFound = errors.New("SUBTREES section not found in taskfile")
)

// Entry is one item of the SUBTREES list.
type Entry struct {
	Prefix string `yaml:"prefix"`
	Remote string `yaml:"remote"`
	Branch string `yaml:"branch"`
}

// Append adds e to the SUBTREES list. It returns false without writing when an
// item with the same prefix is already listed.
func Append(path string, e Entry) (bool, error) {
	doc, err := load(path)
	if err != nil {
		return false, err
	}

	seq, err := section(doc)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}

	prefix := utils.NormalizePrefix(e.Prefix)
	for _, item := range seq.Content {
		if existing, ok := decodeEntry(item); ok && utils.NormalizePrefix(existing.Prefix) == prefix {
			return false, nil
		}
	}

	seq.Content = append(seq.Content, entryNode(Entry{Prefix: prefix, Remote: e.Remote, Branch: e.Branch}))

	if err := save(path, doc); err != nil {
		return false, err
	}
	return true, nil
}

// Remove drops every SUBTREES item whose prefix matches and reports whether any was removed.
func Remove(path, prefix string) (bool, error) {
	doc, err := load(path)
	if err != nil {
		return false, err
	}

	seq, err := section(doc)
	if err != nil {
		return false, fmt.Errorf("%s: %w", path, err)
	}

	prefix = utils.NormalizePrefix(prefix)
	kept := seq.Content[:0]
	removed := false
	for _, item := range seq.Content {
		if existing, ok := decodeEntry(item); ok && utils.NormalizePrefix(existing.Prefix) == prefix {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	if !removed {
		return false, nil
	}
	seq.Content = kept

	if err := save(path, doc); err != nil {
		return false, err
	}
	return true, nil
}

// Entries returns the parsed SUBTREES items.
func Entries(path string) ([]Entry, error) {
	doc, err := load(path)
	if err != nil {
		return nil, err
	}

	seq, err := section(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var entries []Entry
	for _, item := range seq.Content {
		if e, ok := decodeEntry(item); ok {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func load(path string) (*yaml.Node, error) {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading taskfile: %w", err)
	}

	doc := &yaml.Node{}
	if err := yaml.Unmarshal(content, doc); err != nil {
		return nil, fmt.Errorf("parsing taskfile: %w", err)
	}
	return doc, nil
}

func save(path string, doc *yaml.Node) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("marshaling taskfile: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("marshaling taskfile: %w", err)
	}

	info, err := os.Stat(path)
	mode := os.FileMode(0644)
	if err == nil {
		mode = info.Mode().Perm()
	}

	if err := os.WriteFile(path, buf.Bytes(), mode); err != nil {
		return fmt.Errorf("writing taskfile: %w", err)
	}
	return nil
}

// section finds the SUBTREES value anywhere in the document and makes sure it
// is a sequence node.
func section(doc *yaml.Node) (*yaml.Node, error) {
	value := findKey(doc, SectionKey)
	if value == nil {
		return nil, ErrSectionNotFound
	}

	switch {
	case value.Kind == yaml.SequenceNode:
		return value, nil
	case value.Kind == yaml.ScalarNode && (value.Tag == "!!null" || value.Value == ""):
		// "SUBTREES:" with nothing after it
		value.Kind = yaml.SequenceNode
		value.Tag = "!!seq"
		value.Value = ""
		value.Style = 0
		return value, nil
	default:
		return nil, fmt.Errorf("%s is not a list", SectionKey)
	}
}

func findKey(node *yaml.Node, key string) *yaml.Node {
	if node == nil {
		return nil
	}
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				return node.Content[i+1]
			}
		}
	}
	for _, child := range node.Content {
		if found := findKey(child, key); found != nil {
			return found
		}
	}
	return nil
}

func decodeEntry(node *yaml.Node) (Entry, bool) {
	if node.Kind != yaml.MappingNode {
		return Entry{}, false
	}
	var e Entry
	if err := node.Decode(&e); err != nil || e.Prefix == "" {
		return Entry{}, false
	}
	return e, true
}

func entryNode(e Entry) *yaml.Node {
	node := &yaml.Node{
		Kind:  yaml.MappingNode,
		Tag:   "!!map",
		Style: yaml.FlowStyle,
	}
	for _, kv := range [][2]string{{"prefix", e.Prefix}, {"remote", e.Remote}, {"branch", e.Branch}} {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: kv[0]},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: kv[1], Style: yaml.DoubleQuotedStyle},
		)
	}
	return node
}

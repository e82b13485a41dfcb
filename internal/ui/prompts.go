package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// Option is a labelled choice offered by Select and MultiSelect.
type Option struct {
	Label string
	Value string
}

// Prompter asks the user questions. HuhPrompter is the terminal implementation;
// ScriptedPrompter answers from a script in tests.
type Prompter interface {
	Confirm(title, description string, defaultYes bool) (bool, error)
	Input(title, description, initial string, validate func(string) error) (string, error)
	Select(title string, options []Option) (string, error)
	MultiSelect(title string, options []Option) ([]string, error)
	// TypedConfirm succeeds only when the user types phrase exactly.
	TypedConfirm(title, phrase string) (bool, error)
}

// HuhPrompter implements Prompter with huh forms.
type HuhPrompter struct {
	Theme *huh.Theme
}

// NewHuhPrompter returns a HuhPrompter using the Catppuccin theme.
func NewHuhPrompter() *HuhPrompter {
	return &HuhPrompter{Theme: huh.ThemeCatppuccin()}
}

func (p *HuhPrompter) run(fields ...huh.Field) error {
	form := huh.NewForm(huh.NewGroup(fields...)).WithTheme(p.Theme)
	return NormalizeAbort(form.Run())
}

func (p *HuhPrompter) Confirm(title, description string, defaultYes bool) (bool, error) {
	confirmed := defaultYes

	field := huh.NewConfirm().
		Title(title).
		Value(&confirmed)
	if description != "" {
		field.Description(description)
	}

	if err := p.run(field); err != nil {
		return false, err
	}
	return confirmed, nil
}

func (p *HuhPrompter) Input(title, description, initial string, validate func(string) error) (string, error) {
	value := initial

	field := huh.NewInput().
		Title(title).
		Value(&value)
	if description != "" {
		field.Description(description)
	}
	if validate != nil {
		field.Validate(validate)
	}

	if err := p.run(field); err != nil {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func (p *HuhPrompter) Select(title string, options []Option) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("nothing to select for %q", title)
	}

	var selected string
	field := huh.NewSelect[string]().
		Title(title).
		Options(huhOptions(options)...).
		Value(&selected)

	if err := p.run(field); err != nil {
		return "", err
	}
	return selected, nil
}

func (p *HuhPrompter) MultiSelect(title string, options []Option) ([]string, error) {
	if len(options) == 0 {
		return nil, nil
	}

	var selected []string
	field := huh.NewMultiSelect[string]().
		Title(title).
		Description("Space to toggle, Enter to confirm").
		Options(huhOptions(options)...).
		Value(&selected)

	if err := p.run(field); err != nil {
		return nil, err
	}
	return selected, nil
}

func (p *HuhPrompter) TypedConfirm(title, phrase string) (bool, error) {
	var typed string

	field := huh.NewInput().
		Title(title).
		Description(fmt.Sprintf("Type %q to continue", phrase)).
		Value(&typed)

	if err := p.run(field); err != nil {
		return false, err
	}
	return strings.TrimSpace(typed) == phrase, nil
}

func huhOptions(options []Option) []huh.Option[string] {
	out := make([]huh.Option[string], len(options))
	for i, o := range options {
		out[i] = huh.NewOption(o.Label, o.Value)
	}
	return out
}

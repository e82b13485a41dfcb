package ui

import (
	"fmt"
)

// ScriptedPrompter is a test double that answers prompts from preset queues
// and records every question asked.
type ScriptedPrompter struct {
	Confirms     []bool
	Inputs       []string
	Selects      []string
	MultiSelects [][]string
	Typed        []string

	// Asked records the title of every prompt in order.
	Asked []string
}

var _ Prompter = (*ScriptedPrompter)(nil)

func (s *ScriptedPrompter) Confirm(title, description string, defaultYes bool) (bool, error) {
	s.Asked = append(s.Asked, title)
	if len(s.Confirms) == 0 {
		return false, fmt.Errorf("no scripted answer for confirm %q", title)
	}
	answer := s.Confirms[0]
	s.Confirms = s.Confirms[1:]
	return answer, nil
}

func (s *ScriptedPrompter) Input(title, description, initial string, validate func(string) error) (string, error) {
	s.Asked = append(s.Asked, title)
	if len(s.Inputs) == 0 {
		return "", fmt.Errorf("no scripted answer for input %q", title)
	}
	answer := s.Inputs[0]
	s.Inputs = s.Inputs[1:]
	if answer == "" {
		answer = initial
	}
	if validate != nil {
		if err := validate(answer); err != nil {
			return "", err
		}
	}
	return answer, nil
}

func (s *ScriptedPrompter) Select(title string, options []Option) (string, error) {
	s.Asked = append(s.Asked, title)
	if len(s.Selects) == 0 {
		return "", fmt.Errorf("no scripted answer for select %q", title)
	}
	answer := s.Selects[0]
	s.Selects = s.Selects[1:]
	for _, o := range options {
		if o.Value == answer {
			return answer, nil
		}
	}
	return "", fmt.Errorf("scripted answer %q is not an option of %q", answer, title)
}

func (s *ScriptedPrompter) MultiSelect(title string, options []Option) ([]string, error) {
	s.Asked = append(s.Asked, title)
	if len(s.MultiSelects) == 0 {
		return nil, fmt.Errorf("no scripted answer for multi-select %q", title)
	}
	answer := s.MultiSelects[0]
	s.MultiSelects = s.MultiSelects[1:]
	return answer, nil
}

func (s *ScriptedPrompter) TypedConfirm(title, phrase string) (bool, error) {
	s.Asked = append(s.Asked, title)
	if len(s.Typed) == 0 {
		return false, fmt.Errorf("no scripted answer for %q", title)
	}
	answer := s.Typed[0]
	s.Typed = s.Typed[1:]
	return answer == phrase, nil
}

package exec

import (
	"context"
	"fmt"
	"strings"
)

// MockCommander is a test double that records command calls and returns preset responses.
// Use this in tests to verify commands are executed correctly without actually running them.
type MockCommander struct {
	// Responses maps command keys to their preset responses.
	// The key is formatted as: "command arg1 arg2 ..."
	// When more than one response is queued for a key they are consumed in order,
	// and the last one keeps being returned.
	Responses map[string][]CommandResponse

	// Calls records all commands that were executed.
	Calls []CommandCall
}

// CommandCall records details of a single command execution.
type CommandCall struct {
	Dir     string
	Command string
	Args    []string
	Mode    Mode
}

// Key returns the lookup key for the call.
func (c CommandCall) Key() string {
	return buildCommandKey(c.Command, c.Args)
}

// CommandResponse defines the response for a specific command.
type CommandResponse struct {
	Result Result

	// Err is the error to return (nil for a command that started).
	Err error
}

// NewMockCommander creates a new MockCommander with empty responses and calls.
func NewMockCommander() *MockCommander {
	return &MockCommander{
		Responses: make(map[string][]CommandResponse),
		Calls:     make([]CommandCall, 0),
	}
}

// Run records the command call and returns the preset response if one exists.
// If no response is found for the key, it reports a successful run with no output.
func (m *MockCommander) Run(ctx context.Context, req Request) (Result, error) {
	call := CommandCall{
		Dir:     req.Dir,
		Command: req.Command,
		Args:    req.Args,
		Mode:    req.Mode,
	}
	m.Calls = append(m.Calls, call)

	key := call.Key()
	queue, ok := m.Responses[key]
	if !ok || len(queue) == 0 {
		return Result{Success: true}, nil
	}

	resp := queue[0]
	if len(queue) > 1 {
		m.Responses[key] = queue[1:]
	}
	return resp.Result, resp.Err
}

// SetResponse configures a preset response for a specific command, replacing any queued ones.
func (m *MockCommander) SetResponse(command string, args []string, result Result, err error) {
	key := buildCommandKey(command, args)
	m.Responses[key] = []CommandResponse{{Result: result, Err: err}}
}

// QueueResponse appends a response for a command, to be returned after the ones already queued.
func (m *MockCommander) QueueResponse(command string, args []string, result Result, err error) {
	key := buildCommandKey(command, args)
	m.Responses[key] = append(m.Responses[key], CommandResponse{Result: result, Err: err})
}

// SetOutput is shorthand for a successful response with the given output.
func (m *MockCommander) SetOutput(command string, args []string, output string) {
	m.SetResponse(command, args, Result{Success: true, Output: output}, nil)
}

// SetFailure is shorthand for a non-zero exit with the given output.
func (m *MockCommander) SetFailure(command string, args []string, output string) {
	m.SetResponse(command, args, Result{Output: output, ExitCode: 1}, nil)
}

// GetCall returns the nth command call (0-indexed).
// Returns nil if n is out of range.
func (m *MockCommander) GetCall(n int) *CommandCall {
	if n < 0 || n >= len(m.Calls) {
		return nil
	}
	return &m.Calls[n]
}

// LastCall returns the most recent command call.
// Returns nil if no commands have been executed.
func (m *MockCommander) LastCall() *CommandCall {
	if len(m.Calls) == 0 {
		return nil
	}
	return &m.Calls[len(m.Calls)-1]
}

// CallCount returns the number of commands that have been executed.
func (m *MockCommander) CallCount() int {
	return len(m.Calls)
}

// WasCalled checks if a command with the given arguments was ever executed.
// The command key must match exactly.
func (m *MockCommander) WasCalled(command string, args ...string) bool {
	return m.CountCalls(command, args...) > 0
}

// CountCalls returns how many times a command with exactly these arguments ran.
func (m *MockCommander) CountCalls(command string, args ...string) int {
	key := buildCommandKey(command, args)
	n := 0
	for _, call := range m.Calls {
		if call.Key() == key {
			n++
		}
	}
	return n
}

// CallKeys returns the keys of all recorded calls in order.
func (m *MockCommander) CallKeys() []string {
	keys := make([]string, 0, len(m.Calls))
	for _, call := range m.Calls {
		keys = append(keys, call.Key())
	}
	return keys
}

// Reset clears all recorded calls and responses.
func (m *MockCommander) Reset() {
	m.Calls = make([]CommandCall, 0)
	m.Responses = make(map[string][]CommandResponse)
}

// buildCommandKey constructs a command key from command and args.
func buildCommandKey(command string, args []string) string {
	if len(args) == 0 {
		return command
	}
	return fmt.Sprintf("%s %s", command, strings.Join(args, " "))
}

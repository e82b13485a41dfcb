package exec

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/naoray/subtreesync/internal/errors"
)

// timedWriter remembers when the first byte arrived.
type timedWriter struct {
	bytes.Buffer
	first time.Time
}

func (w *timedWriter) Write(p []byte) (int, error) {
	if w.first.IsZero() {
		w.first = time.Now()
	}
	return w.Buffer.Write(p)
}

// WriteString shadows bytes.Buffer's so io.WriteString goes through Write.
func (w *timedWriter) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

func TestRealCommander_Run_FastCommand(t *testing.T) {
	for _, mode := range []Mode{ModeBuffered, ModeStream} {
		t.Run(mode.String(), func(t *testing.T) {
			var out bytes.Buffer
			commander := &RealCommander{Out: &out}

			result, err := commander.Run(context.Background(), Request{
				Dir:     ".",
				Command: "sh",
				Args:    []string{"-c", "echo X"},
				Mode:    mode,
			})

			require.NoError(t, err)
			assert.True(t, result.Success)
			assert.Equal(t, 0, result.ExitCode)
			assert.Contains(t, result.Output, "X")

			if mode == ModeStream {
				assert.Equal(t, "X\n", out.String())
			} else {
				assert.Empty(t, out.String())
			}
		})
	}
}

func TestRealCommander_Run_SlowCommandStreamsIncrementally(t *testing.T) {
	out := &timedWriter{}
	commander := &RealCommander{Out: out}

	result, err := commander.Run(context.Background(), Request{
		Command: "sh",
		Args:    []string{"-c", "echo first; sleep 0.5; echo second"},
		Mode:    ModeStream,
	})
	finished := time.Now()

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "first\nsecond", result.Output)
	assert.Equal(t, "first\nsecond\n", out.String())

	require.False(t, out.first.IsZero(), "expected streamed output")
	assert.GreaterOrEqual(t, finished.Sub(out.first), 300*time.Millisecond,
		"first line should reach the writer before the command exits")
}

func TestRealCommander_Run_SlowCommandBuffered(t *testing.T) {
	var out bytes.Buffer
	commander := &RealCommander{Out: &out}

	result, err := commander.Run(context.Background(), Request{
		Command: "sh",
		Args:    []string{"-c", "echo first; sleep 0.2; echo second"},
		Mode:    ModeBuffered,
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "first\nsecond", result.Output)
	assert.Empty(t, out.String())
}

func TestRealCommander_Run_NonZeroExit(t *testing.T) {
	commander := &RealCommander{Out: &bytes.Buffer{}}

	result, err := commander.Run(context.Background(), Request{
		Command: "sh",
		Args:    []string{"-c", "echo oops; exit 3"},
	})

	require.NoError(t, err, "a non-zero exit is reported through the result")
	assert.False(t, result.Success)
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "oops", result.Output)
}

func TestRealCommander_Run_CapturesStderr(t *testing.T) {
	commander := &RealCommander{Out: &bytes.Buffer{}}

	result, err := commander.Run(context.Background(), Request{
		Command: "sh",
		Args:    []string{"-c", "echo to-stdout; echo to-stderr 1>&2"},
	})

	require.NoError(t, err)
	assert.Contains(t, result.Output, "to-stdout")
	assert.Contains(t, result.Output, "to-stderr")
}

func TestRealCommander_Run_ReplacesInvalidUTF8(t *testing.T) {
	commander := &RealCommander{Out: &bytes.Buffer{}}

	result, err := commander.Run(context.Background(), Request{
		Command: "sh",
		Args:    []string{"-c", `printf '\377ok\n'`},
		Mode:    ModeStream,
	})

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "�ok", result.Output)
}

func TestRealCommander_Run_CommandNotFound(t *testing.T) {
	commander := &RealCommander{Out: &bytes.Buffer{}}

	result, err := commander.Run(context.Background(), Request{
		Command: "subtreesync-no-such-binary",
		Args:    []string{"--help"},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrCommandNotFound))
	assert.False(t, result.Success)
	assert.Contains(t, result.Output, "command not found: subtreesync-no-such-binary")
}

func TestRealCommander_Run_WithContextCancellation(t *testing.T) {
	commander := &RealCommander{Out: &bytes.Buffer{}, GracePeriod: 100 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	result, err := commander.Run(ctx, Request{
		Command: "sleep",
		Args:    []string{"5"},
		Mode:    ModeStream,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, result.Success)
	assert.Less(t, time.Since(start), 3*time.Second, "child should be terminated on cancellation")
}

func TestRealCommander_Run_CancellationWithOutputHeldOpen(t *testing.T) {
	commander := &RealCommander{Out: &bytes.Buffer{}, GracePeriod: 300 * time.Millisecond}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	result, err := commander.Run(ctx, Request{
		Command: "sh",
		Args:    []string{"-c", "trap '' TERM; echo hi; sleep 5"},
		Mode:    ModeStream,
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.False(t, result.Success)
	assert.Equal(t, "hi", result.Output)
	assert.Less(t, time.Since(start), 3*time.Second, "runner should return once the grace period is over")
}

func TestRealCommander_Run_ShowCommand(t *testing.T) {
	var out bytes.Buffer
	commander := &RealCommander{Out: &out}

	_, err := commander.Run(context.Background(), Request{
		Command:     "echo",
		Args:        []string{"hi"},
		ShowCommand: true,
	})

	require.NoError(t, err)
	assert.Equal(t, "$ echo hi\n", out.String())
}

func TestRealCommander_Run_UsesDir(t *testing.T) {
	dir := t.TempDir()
	commander := &RealCommander{Out: &bytes.Buffer{}}

	result, err := commander.Run(context.Background(), Request{Dir: dir, Command: "pwd"})

	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(result.Output)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestRequest_CommandLine(t *testing.T) {
	assert.Equal(t, "git", Request{Command: "git"}.CommandLine())
	assert.Equal(t, "git subtree add --prefix=src/lib lib main --squash", Request{
		Command: "git",
		Args:    []string{"subtree", "add", "--prefix=src/lib", "lib", "main", "--squash"},
	}.CommandLine())
}

func TestCommandExecutor_RunBinary(t *testing.T) {
	mock := NewMockCommander()
	mock.SetOutput("git", []string{"--version"}, "git version 2.45.0")

	executor := NewCommandExecutor(mock)
	ctx := context.Background()

	result, err := executor.RunBinary(ctx, "/repo", "git", []string{"--version"}, ModeBuffered)

	if err != nil {
		t.Errorf("expected no error, got: %v", err)
	}
	if result.Output != "git version 2.45.0" {
		t.Errorf("expected 'git version 2.45.0', got: %s", result.Output)
	}

	if mock.CallCount() != 1 {
		t.Errorf("expected 1 call, got %d", mock.CallCount())
	}

	call := mock.LastCall()
	if call == nil {
		t.Fatal("expected call to be recorded")
	}
	if call.Dir != "/repo" {
		t.Errorf("expected dir '/repo', got: %s", call.Dir)
	}
	if call.Mode != ModeBuffered {
		t.Errorf("expected buffered mode, got: %s", call.Mode)
	}
}

func TestCommandExecutor_RunBinary_WithSpaces(t *testing.T) {
	mock := NewMockCommander()
	mock.SetOutput("git", []string{"-c", "core.quotepath=off", "status"}, "clean")

	executor := NewCommandExecutor(mock)

	result, err := executor.RunBinary(context.Background(), "/repo", "git -c core.quotepath=off", []string{"status"}, ModeStream)

	require.NoError(t, err)
	assert.Equal(t, "clean", result.Output)

	call := mock.LastCall()
	assert.Equal(t, "git", call.Command)
	assert.Equal(t, []string{"-c", "core.quotepath=off", "status"}, call.Args)
	assert.Equal(t, ModeStream, call.Mode)
}

func TestCommandExecutor_RunBinary_Empty(t *testing.T) {
	executor := NewCommandExecutor(NewMockCommander())

	_, err := executor.RunBinary(context.Background(), ".", "  ", nil, ModeBuffered)

	assert.EqualError(t, err, "empty binary command")
}

func TestMockCommander_WasCalled(t *testing.T) {
	mock := NewMockCommander()

	mock.Run(context.Background(), Request{Dir: "/repo", Command: "git", Args: []string{"status"}})

	if !mock.WasCalled("git", "status") {
		t.Error("expected WasCalled to return true for 'git status'")
	}

	if mock.WasCalled("git", "log") {
		t.Error("expected WasCalled to return false for 'git log'")
	}
}

func TestMockCommander_Reset(t *testing.T) {
	mock := NewMockCommander()
	ctx := context.Background()

	mock.SetOutput("echo", []string{"hello"}, "hello")
	mock.Run(ctx, Request{Command: "echo", Args: []string{"hello"}})
	mock.Run(ctx, Request{Command: "echo", Args: []string{"world"}})

	if mock.CallCount() != 2 {
		t.Errorf("expected 2 calls before reset, got %d", mock.CallCount())
	}

	mock.Reset()

	if mock.CallCount() != 0 {
		t.Errorf("expected 0 calls after reset, got %d", mock.CallCount())
	}

	if len(mock.Responses) != 0 {
		t.Error("expected responses to be cleared")
	}
}

func TestMockCommander_NoResponse(t *testing.T) {
	mock := NewMockCommander()

	result, err := mock.Run(context.Background(), Request{Command: "unknown", Args: []string{"cmd"}})

	assert.NoError(t, err)
	assert.True(t, result.Success)
	assert.Empty(t, result.Output)
}

func TestMockCommander_ErrorResponse(t *testing.T) {
	mock := NewMockCommander()
	expectedErr := errors.New("launch failed")
	mock.SetResponse("failing", []string{"cmd"}, Result{Output: "error output", ExitCode: -1}, expectedErr)

	result, err := mock.Run(context.Background(), Request{Command: "failing", Args: []string{"cmd"}})

	assert.Equal(t, expectedErr, err)
	assert.Equal(t, "error output", result.Output)
	assert.False(t, result.Success)
}

func TestMockCommander_QueueResponse(t *testing.T) {
	mock := NewMockCommander()
	mock.QueueResponse("git", []string{"push"}, Result{Output: "rejected", ExitCode: 1}, nil)
	mock.QueueResponse("git", []string{"push"}, Result{Success: true, Output: "ok"}, nil)

	ctx := context.Background()
	first, _ := mock.Run(ctx, Request{Command: "git", Args: []string{"push"}})
	second, _ := mock.Run(ctx, Request{Command: "git", Args: []string{"push"}})
	third, _ := mock.Run(ctx, Request{Command: "git", Args: []string{"push"}})

	assert.False(t, first.Success)
	assert.True(t, second.Success)
	assert.True(t, third.Success, "the last queued response sticks")
	assert.Equal(t, 3, mock.CountCalls("git", "push"))
	assert.Equal(t, []string{"git push", "git push", "git push"}, mock.CallKeys())
}

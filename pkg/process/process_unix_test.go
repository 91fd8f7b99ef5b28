//go:build unix

package process_test

import (
	"context"
	"testing"
	"time"

	"github.com/rcarmo/go-nativeshell/pkg/process"
	"github.com/rcarmo/go-nativeshell/pkg/testutil"
)

func TestSignalExitCode(t *testing.T) {
	testutil.RequireExecutable(t, "sh")
	res := run(t, &process.Launcher{}, process.Shell("sh", "kill -TERM $$"), nil, nil)
	testutil.AssertExitCode(t, res.ExitCode, 143)
}

func TestCancelKillsProcessGroup(t *testing.T) {
	testutil.RequireExecutable(t, "sleep")
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	stdio, _, _ := testutil.CaptureStdioNoInput()
	// The background sleep holds the output pipes open; only a group kill
	// lets Wait return.
	h, err := (&process.Launcher{}).Launch(ctx, process.Shell("sh", "sleep 30 & sleep 30; wait"), nil, stdio)
	testutil.AssertNoError(t, err)

	start := time.Now()
	res, err := h.Wait()
	testutil.AssertErrorIs(t, err, process.ErrCanceled)
	testutil.AssertErrorIs(t, err, context.DeadlineExceeded)
	if !res.Canceled {
		t.Error("expected Canceled")
	}
	testutil.AssertExitCode(t, res.ExitCode, 137)
	if elapsed := time.Since(start); elapsed > 10*time.Second {
		t.Errorf("Wait took %v after cancel", elapsed)
	}
}

func TestKill(t *testing.T) {
	testutil.RequireExecutable(t, "sleep")
	h, err := (&process.Launcher{}).Launch(context.Background(), process.Direct([]string{"sleep", "30"}), nil, nil)
	testutil.AssertNoError(t, err)
	if h.Pid() <= 0 {
		t.Fatalf("Pid = %d", h.Pid())
	}
	testutil.AssertNoError(t, h.Kill())
	res, err := h.Wait()
	testutil.AssertNoError(t, err)
	testutil.AssertExitCode(t, res.ExitCode, 137)
	if res.Canceled {
		t.Error("explicit Kill is not a cancellation")
	}
}

package fs_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/rcarmo/go-nativeshell/pkg/core/fs"
	"github.com/rcarmo/go-nativeshell/pkg/sandbox"
	"github.com/rcarmo/go-nativeshell/pkg/testutil"
)

func TestReadFile(t *testing.T) {
	path := testutil.TempFile(t, "script.sh", "echo hi\n")

	data, err := fs.ReadFile(nil, path)
	testutil.AssertNoError(t, err)
	testutil.AssertOutput(t, string(data), "echo hi\n")

	allowed, err := sandbox.New(sandbox.Config{
		AllowedPaths: []sandbox.PathRule{{Path: filepath.Dir(path), Permission: sandbox.PermRead}},
	})
	testutil.AssertNoError(t, err)
	f, err := fs.Open(allowed, path)
	testutil.AssertNoError(t, err)
	f.Close()

	denied, err := sandbox.New(sandbox.Config{
		AllowedPaths: []sandbox.PathRule{{Path: filepath.Dir(path), Permission: sandbox.PermExec}},
	})
	testutil.AssertNoError(t, err)
	if _, err := fs.ReadFile(denied, path); !errors.Is(err, sandbox.ErrNotPermitted) {
		t.Errorf("ReadFile error = %v, want ErrNotPermitted", err)
	}
	if _, err := fs.Open(denied, "/etc/hostname"); !errors.Is(err, sandbox.ErrAccessDenied) {
		t.Errorf("Open error = %v, want ErrAccessDenied", err)
	}
}

// Package fs reads files on behalf of the applets while respecting an optional
// sandbox policy. Applets should use this package instead of direct os calls.
package fs

import (
	"os"

	"github.com/rcarmo/go-nativeshell/pkg/sandbox"
)

// Open opens a file for reading. A nil policy allows every path.
func Open(p *sandbox.Policy, path string) (*os.File, error) {
	if err := p.Check(path, sandbox.PermRead); err != nil {
		return nil, err
	}
	return os.Open(path) // #nosec G304 -- path checked against the policy
}

// ReadFile reads an entire file.
func ReadFile(p *sandbox.Policy, path string) ([]byte, error) {
	if err := p.Check(path, sandbox.PermRead); err != nil {
		return nil, err
	}
	return os.ReadFile(path) // #nosec G304 -- path checked against the policy
}

// Package sandbox restricts which executables a launcher may start and which
// directories children may run in. Rules are path prefixes carrying a set of
// permissions; a nil *Policy allows everything.
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Common sandbox errors.
var (
	ErrAccessDenied = errors.New("access denied: path not in sandbox")
	ErrNotPermitted = errors.New("operation not permitted by sandbox rule")
)

// Permission represents path access permissions.
type Permission uint8

const (
	PermNone  Permission = 0
	PermRead  Permission = 1 << iota // Can be used as a working directory
	PermWrite                        // Reserved for output redirection targets
	PermExec                         // Can be started as a child process
)

func (p Permission) String() string {
	if p == PermNone {
		return "none"
	}
	var parts []string
	if p&PermRead != 0 {
		parts = append(parts, "read")
	}
	if p&PermWrite != 0 {
		parts = append(parts, "write")
	}
	if p&PermExec != 0 {
		parts = append(parts, "exec")
	}
	return strings.Join(parts, "|")
}

// PathRule defines access rules for a path prefix.
type PathRule struct {
	Path       string     // Path prefix (resolved to absolute)
	Permission Permission // Allowed operations
}

// Config holds sandbox configuration.
type Config struct {
	// Paths to allow access to (with permissions)
	AllowedPaths []PathRule
	// Allow access to current working directory
	AllowCwd bool
	// Default permission for cwd if AllowCwd is true
	CwdPermission Permission
}

// Policy is an immutable set of path rules. It is safe for concurrent use.
type Policy struct {
	rules []PathRule
}

// New builds a Policy from cfg. Relative rule paths are resolved against the
// current working directory at construction time.
func New(cfg Config) (*Policy, error) {
	p := &Policy{}
	if cfg.AllowCwd {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		perm := cfg.CwdPermission
		if perm == PermNone {
			perm = PermRead
		}
		p.rules = append(p.rules, PathRule{Path: cwd, Permission: perm})
	}
	for _, rule := range cfg.AllowedPaths {
		absPath, err := filepath.Abs(rule.Path)
		if err != nil {
			return nil, fmt.Errorf("sandbox rule %q: %w", rule.Path, err)
		}
		p.rules = append(p.rules, PathRule{
			Path:       filepath.Clean(absPath),
			Permission: rule.Permission,
		})
	}
	return p, nil
}

// Rules returns a copy of the resolved rules.
func (p *Policy) Rules() []PathRule {
	if p == nil {
		return nil
	}
	return append([]PathRule(nil), p.rules...)
}

// Check verifies that path may be used with every permission in perm.
func (p *Policy) Check(path string, perm Permission) error {
	if p == nil {
		return nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, ErrAccessDenied)
	}

	// Clean the path to prevent traversal attacks
	absPath = filepath.Clean(absPath)

	matched := false
	for _, rule := range p.rules {
		if !within(absPath, rule.Path) {
			continue
		}
		matched = true
		if rule.Permission&perm == perm {
			return nil
		}
	}
	if matched {
		return fmt.Errorf("%s: %s: %w", path, perm, ErrNotPermitted)
	}
	return fmt.Errorf("%s: %w", path, ErrAccessDenied)
}

// CheckExec verifies that the executable at path may be started.
func (p *Policy) CheckExec(path string) error {
	return p.Check(path, PermExec)
}

// CheckDir verifies that dir may be used as a working directory.
func (p *Policy) CheckDir(dir string) error {
	return p.Check(dir, PermRead)
}

func within(path, prefix string) bool {
	if path == prefix {
		return true
	}
	if prefix == string(filepath.Separator) {
		return true
	}
	return strings.HasPrefix(path, prefix+string(filepath.Separator))
}

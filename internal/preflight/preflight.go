// Package preflight verifies run prerequisites before any file is touched.
//
// Unlike the per-file error containment elsewhere, a preflight failure is
// fatal: an inaccessible source or destination root puts every file at
// risk, so the run aborts before starting.
package preflight

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// Result captures one check outcome.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// CheckSourceAccess verifies that the source directory exists and can be
// read and traversed.
func CheckSourceAccess(path string) Result {
	return checkDirectory("source", path, unix.R_OK|unix.X_OK, "read ok")
}

// CheckDestinationAccess verifies that the destination root exists and can
// be read, written, and traversed.
func CheckDestinationAccess(path string) Result {
	return checkDirectory("destination", path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// Err folds results into a single fatal error, or nil when every check passed.
func Err(results ...Result) error {
	var details []string
	for _, r := range results {
		if !r.Passed {
			details = append(details, fmt.Sprintf("%s: %s", r.Name, r.Detail))
		}
	}
	if len(details) == 0 {
		return nil
	}
	return errors.New("preflight failed: " + strings.Join(details, "; "))
}

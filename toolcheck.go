package ruggedmysql

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// execLookPath is swapped out in tests to simulate different PATH contents.
var execLookPath = exec.LookPath

// MissingMakeMessage is the abort message used when no make program exists.
const MissingMakeMessage = "ERROR: GNU make is required to build Rugged."

// ToolChecker is implemented by builders that depend on external tools.
//
// # Consumer Usage
//
// Check tools before building:
//
//	if checker, ok := builder.(ToolChecker); ok {
//	    if err := checker.CheckTools(); err != nil {
//	        return fmt.Errorf("build tools missing: %w", err)
//	    }
//	}
type ToolChecker interface {
	// RequiredTools returns the list of tools this builder needs.
	RequiredTools() []ToolRequirement

	// CheckTools verifies that all required tools are available.
	//
	// Optional tools never cause an error.
	CheckTools() error
}

// ToolRequirement describes a build tool dependency.
//
// Name is tried first, then each of Alternatives in order. The first hit
// satisfies the requirement, which is how gmake is preferred over make:
//
//	ToolRequirement{
//	    Name:         "gmake",
//	    Alternatives: []string{"make"},
//	    Purpose:      "GNU make",
//	}
type ToolRequirement struct {
	// Name is the preferred tool binary name.
	Name string

	// Alternatives can satisfy the requirement when Name is absent.
	Alternatives []string

	// Optional tools are checked but never fail the build.
	Optional bool

	// Purpose is a human-readable description used in error messages.
	Purpose string
}

// Candidates returns Name followed by Alternatives.
func (r ToolRequirement) Candidates() []string {
	return append([]string{r.Name}, r.Alternatives...)
}

// MissingToolError reports a required build tool that could not be found.
//
// This is the only failure the configure step classifies itself; everything
// else is left to the compiler and the Makefile generator.
type MissingToolError struct {
	// Tools lists the names that were searched, in preference order.
	Tools []string

	// Message overrides the default error text.
	Message string
}

func (e *MissingToolError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("none of %s found in PATH", strings.Join(e.Tools, ", "))
}

// CheckToolAvailable checks if a tool is available in the system PATH.
func CheckToolAvailable(tool string) error {
	if _, err := execLookPath(tool); err != nil {
		return fmt.Errorf("%s not found in PATH", tool)
	}
	return nil
}

// FindExecutable returns the path of the first name found in PATH.
//
// Names are tried in order, so earlier names are preferred. When none is
// found a *MissingToolError is returned.
//
// # Example
//
//	path, err := FindExecutable("gmake", "make")
func FindExecutable(names ...string) (string, error) {
	for _, name := range names {
		if name == "" {
			continue
		}
		if path, err := execLookPath(name); err == nil {
			return path, nil
		}
	}
	return "", &MissingToolError{Tools: names}
}

// FindMake locates the make program used to build the extension.
//
// A MAKE environment variable is tried first, then gmake, then make. When
// none exists the returned *MissingToolError carries MissingMakeMessage.
func FindMake() (string, error) {
	candidates := []string{gmakeProgram, makeProgram}
	if makeEnv := os.Getenv("MAKE"); makeEnv != "" {
		candidates = append([]string{makeEnv}, candidates...)
	}

	path, err := FindExecutable(candidates...)
	if err != nil {
		return "", &MissingToolError{
			Tools:   uniqueStrings(candidates),
			Message: MissingMakeMessage,
		}
	}
	return path, nil
}

// FindOptional locates an optional tool. It returns "" when the tool is absent.
func FindOptional(names ...string) string {
	path, err := FindExecutable(names...)
	if err != nil {
		return ""
	}
	return path
}

// CheckRequiredTools verifies all required tools are available.
//
// # Error Format
//
// Single missing tool:
//
//	gmake (GNU make) not found in PATH
//
// Multiple missing tools:
//
//	missing required tools: gmake (GNU make), cc (C compiler)
func CheckRequiredTools(requirements []ToolRequirement) error {
	var missingTools []string

	for _, req := range requirements {
		if _, err := FindExecutable(req.Candidates()...); err == nil || req.Optional {
			continue
		}

		if req.Purpose != "" {
			missingTools = append(missingTools, fmt.Sprintf("%s (%s)", req.Name, req.Purpose))
		} else {
			missingTools = append(missingTools, req.Name)
		}
	}

	if len(missingTools) == 0 {
		return nil
	}

	if len(missingTools) == 1 {
		return fmt.Errorf("%s not found in PATH", missingTools[0])
	}

	return fmt.Errorf("missing required tools: %s", strings.Join(missingTools, ", "))
}

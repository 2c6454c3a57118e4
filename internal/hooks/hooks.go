// Package hooks implements PreToolUse git-flow guards. A hook reads the tool
// call from stdin and either stays silent (allow) or prints a deny decision.
package hooks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
)

// Input is the tool call a hook inspects.
type Input struct {
	ToolName  string `json:"tool_name"`
	ToolInput struct {
		Command string `json:"command"`
	} `json:"tool_input"`
}

// Output is the deny decision written to stdout.
type Output struct {
	HookSpecificOutput Decision `json:"hookSpecificOutput"`
}

// Decision is the PreToolUse permission verdict.
type Decision struct {
	HookEventName            string `json:"hookEventName"`
	PermissionDecision       string `json:"permissionDecision"`
	PermissionDecisionReason string `json:"permissionDecisionReason"`
}

// Check returns a reason and true when the call must be denied.
type Check func(in Input) (reason string, deny bool)

// Handle decodes the tool call from r and writes a deny decision to w when
// check rejects it. Invalid input is returned as an error.
func Handle(r io.Reader, w io.Writer, check Check) error {
	var in Input
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return fmt.Errorf("invalid JSON input: %w", err)
	}
	reason, deny := check(in)
	if !deny {
		return nil
	}
	return json.NewEncoder(w).Encode(Output{HookSpecificOutput: Decision{
		HookEventName:            "PreToolUse",
		PermissionDecision:       "deny",
		PermissionDecisionReason: reason,
	}})
}

var (
	checkoutBranch = regexp.MustCompile(`git checkout -b\s+(\S+)`)
	flowPrefix     = regexp.MustCompile(`^(feature|release|hotfix)/`)
	releaseName    = regexp.MustCompile(`^release/v\d+\.\d+\.\d+(-[a-zA-Z0-9.]+)?$`)
)

var protected = map[string]bool{"main": true, "develop": true}

// ValidateBranchName rejects `git checkout -b` with a name outside the git
// flow conventions.
func ValidateBranchName(in Input) (string, bool) {
	if in.ToolName != "Bash" {
		return "", false
	}
	m := checkoutBranch.FindStringSubmatch(in.ToolInput.Command)
	if m == nil {
		return "", false
	}
	name := m[1]
	if protected[name] {
		return "", false
	}
	if !flowPrefix.MatchString(name) {
		return fmt.Sprintf(`Invalid Git Flow branch name: %s

Git Flow branches must follow these patterns:
  feature/<descriptive-name>
  release/v<MAJOR>.<MINOR>.<PATCH>
  hotfix/<descriptive-name>

Examples: feature/user-authentication, release/v1.2.0, hotfix/critical-security-fix`, name), true
	}
	if strings.HasPrefix(name, "release/") && !releaseName.MatchString(name) {
		return fmt.Sprintf(`Invalid release version: %s

Release branches must follow semantic versioning:
  release/vMAJOR.MINOR.PATCH[-prerelease]

Examples: release/v1.0.0, release/v1.0.0-beta.1`, name), true
	}
	return "", false
}

// GuardPush returns a Check that rejects a non-forced `git push` to main or
// develop, either named on the command line or implied by the current
// branch. branch reports the current branch.
func GuardPush(branch func() string) Check {
	return func(in Input) (string, bool) {
		cmd := in.ToolInput.Command
		if in.ToolName != "Bash" || !strings.Contains(cmd, "git push") {
			return "", false
		}
		args := strings.Fields(cmd)
		if forced(args) {
			return "", false
		}
		current := branch()
		if !protected[current] && !targetsProtected(args) {
			return "", false
		}
		return fmt.Sprintf(`Direct push to main/develop is not allowed.

Protected branches: main (production), develop (integration).
Push a feature/, release/ or hotfix/ branch and open a pull request instead.

Current branch: %s`, current), true
	}
}

func forced(args []string) bool {
	for _, a := range args {
		if a == "-f" || a == "--force" || strings.HasPrefix(a, "--force-") {
			return true
		}
	}
	return false
}

// targetsProtected reports whether an "origin <ref>" pair pushes to a
// protected branch. "src:dst" refspecs are checked by destination.
func targetsProtected(args []string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] != "origin" {
			continue
		}
		ref := args[i+1]
		if _, dst, ok := strings.Cut(ref, ":"); ok {
			ref = dst
		}
		if protected[strings.TrimPrefix(ref, "refs/heads/")] {
			return true
		}
	}
	return false
}

// CurrentBranch returns the checked-out branch of the repository in the
// working directory, or "" when it cannot be determined.
func CurrentBranch(ctx context.Context) string {
	out, err := exec.CommandContext(ctx, "git", "branch", "--show-current").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

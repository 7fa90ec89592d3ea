// Package rosenv produces the environment for spawned ROS 2 processes by
// sourcing a distribution setup script and overlaying the result onto the
// host environment.
package rosenv

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// DefaultDistro is the ROS 2 distribution sourced when none is configured.
const DefaultDistro = "humble"

// Env returns the merged environment for the given distro in the
// KEY=VALUE form expected by exec.Cmd. Sourced values win over host ones.
//
// A shell invocation failure or a non-zero exit of the setup script is
// fatal to the caller's launch; stderr from the shell is folded into the
// returned error.
func Env(distro string) ([]string, error) {
	sourced, err := sourceSetup(distro)
	if err != nil {
		return nil, err
	}
	return overlay(os.Environ(), sourced), nil
}

// sourceSetup runs the distro setup script in a fresh shell and captures
// the resulting environment dump.
func sourceSetup(distro string) (map[string]string, error) {
	script := fmt.Sprintf("source /opt/ros/%s/setup.sh && env", distro)
	out, err := exec.Command("bash", "-c", script).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("source ros %s environment: %w: %s",
				distro, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("source ros %s environment: %w", distro, err)
	}
	return parseEnvDump(string(out)), nil
}

// parseEnvDump parses `env` output lines of the form KEY=VALUE, splitting
// on the first '='. Empty values are kept; lines without '=' are skipped
// (multi-line values lose their continuation lines, same as the shell dump
// itself is ambiguous about them).
func parseEnvDump(dump string) map[string]string {
	env := make(map[string]string)
	for _, line := range strings.Split(dump, "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// overlay applies the sourced variables on top of the host environment and
// flattens back to KEY=VALUE pairs. Host ordering is preserved for keys
// not overridden; new keys append in map order.
func overlay(host []string, sourced map[string]string) []string {
	out := make([]string, 0, len(host)+len(sourced))
	seen := make(map[string]bool, len(host))

	for _, kv := range host {
		key, _, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		seen[key] = true
		if v, overridden := sourced[key]; overridden {
			out = append(out, key+"="+v)
			continue
		}
		out = append(out, kv)
	}
	for key, v := range sourced {
		if !seen[key] {
			out = append(out, key+"="+v)
		}
	}
	return out
}

package dto

import "errors"

// NodeRequest is the POST /nodes/launch body. Exactly one of Executable
// and LaunchFile must be present.
type NodeRequest struct {
	Name       string            `json:"name"`
	Package    string            `json:"package"`
	Executable string            `json:"executable,omitempty"`
	LaunchFile string            `json:"launch_file,omitempty"`
	Parameters map[string]string `json:"parameters,omitempty"`
}

var (
	ErrMissingName    = errors.New("'name' is required")
	ErrMissingPackage = errors.New("'package' is required")
	ErrTargetChoice   = errors.New("exactly one of 'executable' or 'launch_file' must be specified")
)

// Validate checks required fields and the executable/launch_file choice.
// Shape-only; business rules live in the supervisor.
func (r *NodeRequest) Validate() error {
	if r.Name == "" {
		return ErrMissingName
	}
	if r.Package == "" {
		return ErrMissingPackage
	}
	if (r.Executable == "") == (r.LaunchFile == "") {
		return ErrTargetChoice
	}
	return nil
}

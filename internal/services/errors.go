package services

import "errors"

// Error kinds surfaced by the ticket pipeline. Validation and duplicate
// errors are returned synchronously from Submit; everything else reaches the
// client only through the terminal progress event of the run.
var (
	// ErrValidation marks bad input rejected before any pipeline work starts.
	ErrValidation = errors.New("validation error")

	// ErrDuplicateTicket marks a ticket id that already has an active run.
	ErrDuplicateTicket = errors.New("ticket already has an active run")

	// ErrNotFound marks an unknown project or ticket.
	ErrNotFound = errors.New("not found")

	// ErrGenerationFailed marks an AI call that returned nothing usable.
	ErrGenerationFailed = errors.New("code generation failed")

	// ErrInvalidPath marks a generated file path that escapes the workspace.
	ErrInvalidPath = errors.New("generated path escapes workspace")

	// ErrGitOperationFailed marks a branch, commit, or push failure.
	ErrGitOperationFailed = errors.New("git operation failed")

	// ErrPRCreationFailed marks a pull request failure after a successful
	// push; the wrapped message names the branch and commit so the pushed
	// work stays recoverable.
	ErrPRCreationFailed = errors.New("pull request creation failed")
)

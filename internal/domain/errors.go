package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency.

var (
	// Configuration / parsing errors
	ErrUnknownLOD      = errors.New("unknown LOD level")
	ErrUnknownPriority = errors.New("unknown priority class")

	// Loop errors
	ErrNoFrameSource = errors.New("no frame source attached — engine is inactive")

	// Session store errors
	ErrSessionNotFound = errors.New("session not found")
)

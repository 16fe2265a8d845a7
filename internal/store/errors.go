package store

import "errors"

var (
	// ErrReadOnly is returned by every mutating operation when the caller's
	// permissions lack the edit capability.
	ErrReadOnly = errors.New("this operation is not available in read-only mode; switch to full access mode first")

	// ErrCodeExists is returned when a generated tool code collides with an
	// existing tool.
	ErrCodeExists = errors.New("a tool with this code already exists")

	// ErrNotFirstInSet is returned when a photo edit targets a tool that is
	// not the first member of its set. Other field changes in the same
	// update still apply; only the photo sub-operation is rejected.
	ErrNotFirstInSet = errors.New("image can only be updated for the first tool in the set")

	// ErrToolAssigned is returned when deleting a tool that is still bound
	// to a spindle head.
	ErrToolAssigned = errors.New("cannot delete tool: it is assigned to a head, clear the assignment first")

	// ErrNameExists is returned when a profile name collides.
	ErrNameExists = errors.New("a profile with this name already exists")
)

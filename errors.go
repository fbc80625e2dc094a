// Package grove provides an ordered tree of snippet groups backed by a
// lossless line-oriented file format, with document-order walking and
// pointer-based reordering of snippets and groups.
package grove

import "errors"

// Configuration errors
var (
	// ErrNoDataSource indicates that no data source was provided in Options.
	ErrNoDataSource = errors.New("no data source provided")

	// ErrMultipleDataSources indicates that multiple data sources were provided.
	ErrMultipleDataSources = errors.New("multiple data sources provided")

	// ErrNoPath indicates that no file path is available for a save or reload.
	ErrNoPath = errors.New("no file path available")
)

// Document errors
var (
	// ErrNoGroups indicates that a document contains no snippet groups at all.
	ErrNoGroups = errors.New("document contains no snippet groups")
)

// Structure errors
var (
	// ErrNotAttached indicates that an element has no parent group.
	ErrNotAttached = errors.New("element is not attached to a group")

	// ErrDuplicateName indicates that a sibling group with the same name exists.
	ErrDuplicateName = errors.New("sibling group with this name already exists")
)

// Pointer errors
var (
	// ErrCannotMove indicates that an element has no valid destination anywhere
	// in the tree.
	ErrCannotMove = errors.New("element cannot be moved")
)

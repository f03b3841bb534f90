package apperr

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrExportTargetExists = errors.New("export target already exists")
	ErrNoNotesFound       = errors.New("no markdown notes found")
)

package session

import "errors"

var (
	// ErrBusy indicates a Save or Delete is already in flight.
	ErrBusy = errors.New("session busy")

	// ErrNothingToSave indicates the working copy equals the last saved snapshot.
	ErrNothingToSave = errors.New("no unsaved changes")

	// ErrInvalidConditions indicates at least one record fails validation.
	ErrInvalidConditions = errors.New("conditions failed validation")

	// ErrNoConditions indicates the working copy is empty.
	ErrNoConditions = errors.New("no conditions to save")
)

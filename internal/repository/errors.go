// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish "nothing stored yet" from real
// database failures.
package repository

import "errors"

// ErrRevelationNotFound is returned when the secret record has not been
// created yet. Services translate it into their own "record absent" error.
var ErrRevelationNotFound = errors.New("revelation not found")

// ErrGuestMessageNotFound is returned when a guestbook entry does not exist.
// Handlers should translate this into an HTTP 404 response.
var ErrGuestMessageNotFound = errors.New("guest message not found")

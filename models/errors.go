package models

import "fmt"

// ConfigurationError describes a malformed or missing OrderConfiguration field.
// Pricing never returns it: bad input is defaulted instead.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid order configuration: %s: %s", e.Field, e.Reason)
}

// AssetLoadError is returned when an image referenced by a scene cannot be fetched or decoded
type AssetLoadError struct {
	Ref string
	Err error
}

func (e *AssetLoadError) Error() string {
	return fmt.Sprintf("failed to load asset %q: %v", e.Ref, e.Err)
}

func (e *AssetLoadError) Unwrap() error { return e.Err }

// UploadError wraps a failure of the asset storage backend
type UploadError struct {
	Name string
	Err  error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("failed to upload asset %q: %v", e.Name, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// PersistenceError wraps a failure of the order persistence backend
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("order persistence failed (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

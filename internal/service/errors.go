package service

import "errors"

var (
	// ErrDeviceNotRegistered is returned when a pull, push, or resolve
	// references a device id that has never registered.
	ErrDeviceNotRegistered = errors.New("device is not registered")

	// ErrNoDeviceIDProvided is returned when a sync call arrives without
	// a device id.
	ErrNoDeviceIDProvided = errors.New("no device id provided")

	// ErrUnsupportedStrategy is returned when a resolution names a
	// strategy the resolver does not implement.
	ErrUnsupportedStrategy = errors.New("resolution strategy is not supported")

	// ErrConflictAlreadyResolved is returned when a resolution targets a
	// pending change that is no longer in conflict status. Resolution is
	// an explicit operator action and fails loudly.
	ErrConflictAlreadyResolved = errors.New("conflict is already resolved")
)

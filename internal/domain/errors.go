package domain

import "errors"

var (
	// ErrInvalidArgument marks a description that cannot become a service.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnknownSetting is returned by ServiceDescription.Set for names
	// outside the recognized setting table.
	ErrUnknownSetting = errors.New("unknown setting")
)

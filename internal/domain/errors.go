package domain

import "errors"

// Control-plane misuse is reported as a declined operation, never a crash.
var (
	ErrAlreadyRunning   = errors.New("bot is already running")
	ErrNotRunning       = errors.New("bot is not running")
	ErrSessionRunning   = errors.New("session cannot be reset while running")
	ErrMissingToken     = errors.New("deriv token not configured")
	ErrSettingsNotFound = errors.New("settings not found")
)

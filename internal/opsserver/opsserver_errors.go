package opsserver

import "errors"

// ErrAlreadyStarted is returned by Start if called more than once.
var ErrAlreadyStarted = errors.New("opsserver: already started")

package worker

import "errors"

// ErrPoolClosed is returned by Submit once the pool has been told to
// stop accepting new events.
var ErrPoolClosed = errors.New("worker: pool closed")

package dispatcher

import "errors"

// ErrNoBus names the nil-EventBus condition. Dispatch has no error result
// and does not check for a nil bus, so it never returns ErrNoBus.
var ErrNoBus = errors.New("dispatcher: nil event bus")

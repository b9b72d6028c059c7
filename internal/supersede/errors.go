package supersede

import "errors"

// ErrSuperseded is the cancellation cause delivered to a request whose
// tracker entry was replaced by a newer registration for the same key.
var ErrSuperseded = errors.New("supersede: request superseded by a newer request")

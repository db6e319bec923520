package mem

import "errors"

// ErrCorrupt indicates the persisted collections file is malformed.
var ErrCorrupt = errors.New("mem: collections file corrupt")

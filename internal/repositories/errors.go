package repositories

import "errors"

// ErrCorruptSlot indicates the stored identity payload could not be decoded.
var ErrCorruptSlot = errors.New("identity slot payload is corrupt")

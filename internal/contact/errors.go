package contact

import "errors"

var (
	ErrInvalidIntent = errors.New("invalid intent level")
	ErrCorruptStore  = errors.New("stored contact collection is corrupt")
	ErrDuplicate     = errors.New("duplicate contact id")
)

package backend

import "errors"

var (
	// ErrNotFound is returned when a reference or object does not exist.
	ErrNotFound = errors.New("not found")

	// ErrExists is returned when a write or rename would overwrite an
	// existing reference without force.
	ErrExists = errors.New("reference already exists")

	// ErrCorrupted is returned for a stored reference value that is neither
	// an object id nor a symbolic target.
	ErrCorrupted = errors.New("corrupted reference")

	// ErrIterOver signals the end of a RefIterator.
	ErrIterOver = errors.New("iteration over")

	// ErrAmbiguous is returned when an object id prefix matches more than
	// one object.
	ErrAmbiguous = errors.New("ambiguous object id prefix")

	// ErrInvalidOID is returned for malformed object ids and prefixes.
	ErrInvalidOID = errors.New("invalid object id")
)

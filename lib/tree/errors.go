package tree

import "errors"

var (
	ErrDuplicateKey         = errors.New("[tree] duplicate key")
	ErrUnsupportedOperation = errors.New("[tree] unsupported operation")
	ErrUnknownTreeKind      = errors.New("[tree] unknown tree kind")
)

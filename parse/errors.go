package parse

import "errors"

var (
	ErrUnexpectedToken      = errors.New("unexpected token")
	ErrMissingToken         = errors.New("missing expected token")
	ErrInvalidLiteral       = errors.New("invalid literal")
	ErrMissingAnnotation    = errors.New("missing property annotation")
	ErrNotAPath             = errors.New("expression is not a path")
	ErrDuplicateStructField = errors.New("duplicate struct field")
	ErrDuplicateStruct      = errors.New("duplicate struct declaration")
	ErrDuplicateParam       = errors.New("duplicate parameter declaration")
	ErrEmptyProgram         = errors.New("program has no entry expression")
)

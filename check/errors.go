package check

import "errors"

var (
	ErrDuplicateStruct      = errors.New("duplicate struct declaration")
	ErrUnknownStruct        = errors.New("unknown struct name")
	ErrInoutInStructField   = errors.New("inout may not appear as a struct field type")
	ErrInoutInArrayElem     = errors.New("inout may not appear as an array element type")
	ErrInoutNested          = errors.New("inout may not be nested")
	ErrInoutAsOutput        = errors.New("inout may not appear as a function output type")
	ErrUndefinedName        = errors.New("name is not defined")
	ErrNotAStruct           = errors.New("base of property access is not a struct")
	ErrUnknownField         = errors.New("struct has no such field")
	ErrNotAnArray           = errors.New("base of subscript is not an array")
	ErrAmbiguousElementType = errors.New("ambiguous element type for empty array literal")
	ErrElementTypeMismatch  = errors.New("array element type mismatch")
	ErrStructArgCount       = errors.New("wrong number of struct literal arguments")
	ErrDuplicateParam       = errors.New("duplicate parameter name")
	ErrNotCallable          = errors.New("callee is not a function")
	ErrArgCount             = errors.New("wrong number of call arguments")
	ErrExpectedInoutArg     = errors.New("inout parameter requires an `&path` argument")
	ErrInoutTypeMismatch    = errors.New("inout argument type mismatch")
	ErrOverlappingInout     = errors.New("inout arguments have overlapping paths")
	ErrInoutOnLet           = errors.New("cannot take `&path` of a let-bound path")
	ErrNonNumericOperand    = errors.New("operand is not numeric")
	ErrOperandTypeMismatch  = errors.New("operand types do not match")
	ErrAmbiguousOperatorRef = errors.New("ambiguous operator reference")
	ErrAssignToLet          = errors.New("cannot assign to a let-bound path")
	ErrNotAPath             = errors.New("expression is not a path")
	ErrInvalidCast          = errors.New("invalid cast")
	ErrWildcardElsewhere    = errors.New("`_` is only legal on the left side of an assignment")
	ErrCondNotInt           = errors.New("condition is not Int")
)

package tsvector

import "errors"

// Sentinel errors reported by this package. Returned errors usually wrap one
// of these with detail; test with errors.Is.
var (
	// ErrSyntax reports tsvector text that violates the grammar accepted by
	// Parse (unterminated quote, dangling escape, malformed position list).
	ErrSyntax = errors.New("tsvector: syntax error")

	// ErrInvalidArgument reports a value outside an operation's domain, such
	// as a zero position or an undefined weight.
	ErrInvalidArgument = errors.New("tsvector: invalid argument")

	// ErrOutOfRange reports an index outside a collection's bounds.
	ErrOutOfRange = errors.New("tsvector: index out of range")
)

// Package ttcore holds the error taxonomy and small shared primitives used
// across the type system, storage engine and query executor.  The registry,
// codec, storage engine, DSL parsers and query executor report failures
// with the concrete types defined here; none of them are ever swallowed
// internally.
package ttcore

import "fmt"

// SyntaxError is raised by the schema-DSL and query-DSL lexers/parsers when
// the source text is ill-formed.  It carries the span of text at fault.
type SyntaxError struct {
	Span    Span
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: syntax error: %s", e.Span, e.Message)
}

// NewSyntaxError constructs a SyntaxError over the given span.
func NewSyntaxError(span Span, format string, args ...any) *SyntaxError {
	return &SyntaxError{span, fmt.Sprintf(format, args...)}
}

// TypeError is raised by the type registry: redefinition of an existing
// name, an unresolved type reference, or an interface-contract violation.
type TypeError struct {
	Name    string
	Message string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type error: %s: %s", e.Name, e.Message)
}

// NewTypeError constructs a TypeError.
func NewTypeError(name, format string, args ...any) *TypeError {
	return &TypeError{name, fmt.Sprintf(format, args...)}
}

// RangeError is raised by the primitive codec when a value falls outside
// the value range of its declared type.
type RangeError struct {
	TypeName string
	Value    any
	Min      any
	Max      any
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("range error: value %v out of range [%v,%v] for type %s", e.Value, e.Min, e.Max, e.TypeName)
}

// WidthMismatchError is raised by the primitive codec when a decode buffer
// is not exactly the expected width.
type WidthMismatchError struct {
	Expected int
	Actual   int
}

func (e *WidthMismatchError) Error() string {
	return fmt.Sprintf("width mismatch: expected %d bytes, got %d", e.Expected, e.Actual)
}

// IndexError is raised by a Table when an index falls outside [0,count).
type IndexError struct {
	Index int
	Count int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range [0,%d)", e.Index, e.Count)
}

// StorageError is raised by a Table or StorageManager when an underlying
// I/O operation fails.  It wraps the originating error.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %s", e.Op, e.Path, e.Err)
}

// Unwrap allows errors.Is/errors.As to see through to the underlying I/O error.
func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err as a StorageError for the given operation/path.
func NewStorageError(op, path string, err error) *StorageError {
	return &StorageError{op, path, err}
}

// QueryError is raised by the query executor for a semantically invalid
// query: an unknown field, an aggregate mixed with a non-group column, or
// an unsupported comparison.
type QueryError struct {
	Message string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %s", e.Message)
}

// NewQueryError constructs a QueryError.
func NewQueryError(format string, args ...any) *QueryError {
	return &QueryError{fmt.Sprintf(format, args...)}
}

// UnresolvedTypeError is raised by the registry when a looked-up name is
// not defined, or when referenced or forward-declared names are still
// undefined at end-of-parse.
type UnresolvedTypeError struct {
	Names []string
}

func (e *UnresolvedTypeError) Error() string {
	return fmt.Sprintf("unresolved types: %v", e.Names)
}

package domain

import "fmt"

// InvalidQueryError indicates a query spec that fails validation. It is
// fatal for that query only; other queries in the same file proceed.
type InvalidQueryError struct {
	Field   string
	Message string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("invalid query: %s: %s", e.Field, e.Message)
}

// ExecutionError indicates the storage engine rejected or crashed on a
// statement. The plan selector treats it as a signal to fall through to the
// next candidate when one exists.
type ExecutionError struct {
	SQL     string
	Message string
}

func (e *ExecutionError) Error() string { return e.Message }

// BuildError indicates an index or rollup creation directive failed. The
// build continues with the remaining directives; the failed object is
// treated as absent from the catalog of available artifacts.
type BuildError struct {
	Object  string
	Message string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build %s: %s", e.Object, e.Message)
}

// ErrInvalidQuery creates an InvalidQueryError naming the offending field.
func ErrInvalidQuery(field, format string, args ...interface{}) *InvalidQueryError {
	return &InvalidQueryError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ErrExecution creates an ExecutionError for the given statement.
func ErrExecution(sql, format string, args ...interface{}) *ExecutionError {
	return &ExecutionError{SQL: sql, Message: fmt.Sprintf(format, args...)}
}

// ErrBuild creates a BuildError for the given object name.
func ErrBuild(object, format string, args ...interface{}) *BuildError {
	return &BuildError{Object: object, Message: fmt.Sprintf(format, args...)}
}

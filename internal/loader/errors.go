package loader

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// Error codes, stable across input formats.
const (
	ErrCodeGeneric        = "E001" // Generic/unknown error
	ErrCodeUnsupported    = "E002" // Unsupported file extension
	ErrCodeLoadFailed     = "E004" // File could not be read
	ErrCodeNotFound       = "E005" // Path not found
	ErrCodeBuildFailed    = "E006" // CUE evaluation failed
	ErrCodeParseFailed    = "E007" // YAML or CUE decoding failed
	ErrCodeMissingField   = "E010" // Required field absent
	ErrCodeDuplicateName  = "E011" // Name declared twice
	ErrCodeUnknownType    = "E012" // Object type reference does not resolve
	ErrCodeUnknownRole    = "E013" // Role or relationship reference does not resolve
	ErrCodeInvalidKind    = "E014" // Unknown object type or constraint kind
	ErrCodeInvalidValue   = "E015" // Value, range or bound is invalid
	ErrCodeInvalidJoin    = "E016" // Join path is malformed
	ErrCodeInvalidNesting = "E017" // Objectified type does not nest a relationship
)

// LoadError is one problem found while loading a schema. CUE input
// carries a token.Pos; YAML input carries a line and column.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos

	File   string
	Line   int
	Column int
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Code, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.File, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// location addresses a field of a document entry, e.g. constraints[3].roles.
type location struct {
	section string
	index   int
	field   string
}

func (l location) String() string {
	if l.section == "" {
		return "document"
	}
	if l.field == "" {
		return fmt.Sprintf("%s[%d]", l.section, l.index)
	}
	return fmt.Sprintf("%s[%d].%s", l.section, l.index, l.field)
}

// buildError is a format-independent problem; the format front ends turn
// it into a LoadError with a source position.
type buildError struct {
	code    string
	message string
	at      location
}

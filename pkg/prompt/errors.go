package prompt

import "fmt"

// MissingTemplateError is returned when the template file cannot be read.
type MissingTemplateError struct {
	Path string
	Err  error
}

func (e *MissingTemplateError) Error() string {
	return fmt.Sprintf("cannot read prompt template %s: %v", e.Path, e.Err)
}

func (e *MissingTemplateError) Unwrap() error { return e.Err }

// FormatError is returned when a template lacks the placeholder or cannot
// be formatted.
type FormatError struct {
	Origin string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("prompt template %s: %s: %v", e.Origin, e.Reason, e.Err)
	}
	return fmt.Sprintf("prompt template %s: %s", e.Origin, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

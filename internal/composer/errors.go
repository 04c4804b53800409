package composer

import "fmt"

// Code identifies a failure category. Every code maps to one user-visible
// notification at the boundary where the failure originates.
type Code string

const (
	CodePermissionDenied   Code = "permission_denied"
	CodeEmptyFile          Code = "empty_file"
	CodeSizeExceeded       Code = "size_exceeded"
	CodeUnsupportedType    Code = "unsupported_type"
	CodeUploadFailed       Code = "upload_failed"
	CodeNoUsableResult     Code = "no_usable_result"
	CodeExternalFlowFailed Code = "external_flow_failed"
	CodeExternalInitFailed Code = "external_init_failed"
	CodeUploadWarning      Code = "upload_warning"
)

// FlowError is a classified failure of one intake or upload flow. It never
// propagates past the composer; it exists so call sites can build the
// matching notification and tests can assert on the classification.
type FlowError struct {
	Code    Code
	Message string
	Err     error
}

func (e *FlowError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *FlowError) Unwrap() error { return e.Err }

// Notification converts the failure into its user-visible form.
func (e *FlowError) Notification() Notification {
	return Notification{Severity: SeverityError, Code: e.Code, Message: e.Message}
}

func flowErrorf(code Code, err error, format string, args ...any) *FlowError {
	return &FlowError{Code: code, Message: fmt.Sprintf(format, args...), Err: err}
}

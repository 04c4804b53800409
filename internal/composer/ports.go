package composer

import (
	"context"
	"io"
)

// RawFile is the intake representation of a user-selected file before any
// network activity. Content is read exactly once, by the uploader.
type RawFile struct {
	Name      string
	ByteSize  int64
	MediaType string
	Content   io.Reader
}

// Metadata carries opaque upload hints (e.g. a speech-to-text language for
// audio files). Keys and values are passed through to the upload service.
type Metadata map[string]string

// UploadMeta is the nested metadata block some upload responses carry.
type UploadMeta struct {
	CollectionName string `json:"collection_name,omitempty"`
}

// UploadResult is the upload service's answer for one file. A nil result with
// a nil error models a server that accepted the request but returned nothing
// usable. Error is populated when the server returns a record that still
// reports a failure; Message carries a non-fatal warning.
type UploadResult struct {
	ID             string      `json:"id"`
	CollectionName string      `json:"collection_name,omitempty"`
	Meta           *UploadMeta `json:"meta,omitempty"`
	Error          string      `json:"error,omitempty"`
	Message        string      `json:"message,omitempty"`
}

// ResolvedCollection returns the collection name from whichever field the
// server populated. Legacy single-document uploads leave both empty.
func (r *UploadResult) ResolvedCollection() string {
	if r == nil {
		return ""
	}
	if r.Meta != nil && r.Meta.CollectionName != "" {
		return r.Meta.CollectionName
	}
	return r.CollectionName
}

// Uploader is the external upload service contract.
type Uploader interface {
	Upload(ctx context.Context, file RawFile, meta Metadata) (*UploadResult, error)
}

// PickedFile is the outcome of an external single-file selection flow.
type PickedFile struct {
	Name      string
	MediaType string
	Data      []byte
}

// Picker runs an external, user-interactive file-selection flow. A (nil, nil)
// return means the user selected nothing.
type Picker interface {
	Pick(ctx context.Context) (*PickedFile, error)
}

// PickerFactory builds a Picker for one selection attempt. Construction
// failure is reported distinctly from a failure of the flow itself.
type PickerFactory func(ctx context.Context) (Picker, error)

// Severity classifies a user-visible notification.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Notification is a discrete, user-visible message. Every failure in the
// composer surfaces as exactly one of these; none escape as errors.
type Notification struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	Message  string   `json:"message"`
}

// Notifier delivers notifications to the user. Implementations must be safe
// for concurrent use.
type Notifier interface {
	Notify(n Notification)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(Notification) {}

// Instrumentation records the composer's lifecycle metrics. Implementations
// must be safe for concurrent use.
type Instrumentation interface {
	UploadStarted(ctx context.Context)
	UploadSucceeded(ctx context.Context, seconds float64)
	UploadFailed(ctx context.Context, code string)
	IntakeRejected(ctx context.Context, code string)
	ItemsSelected(ctx context.Context, delta int64)
}

// NopInstrumentation discards all measurements.
type NopInstrumentation struct{}

func (NopInstrumentation) UploadStarted(context.Context)            {}
func (NopInstrumentation) UploadSucceeded(context.Context, float64) {}
func (NopInstrumentation) UploadFailed(context.Context, string)     {}
func (NopInstrumentation) IntakeRejected(context.Context, string)   {}
func (NopInstrumentation) ItemsSelected(context.Context, int64)     {}

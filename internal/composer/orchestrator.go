package composer

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"satchel/internal/observability"
)

// metadata key the upload service understands for transcription hints.
const metaSpeechLanguage = "stt_language"

// UploadOrchestrator drives one raw file from selection to a resolved
// AttachmentItem. Every Submit call is independent: concurrent submissions
// share nothing but the SelectionStore, whose operations interleave safely in
// any completion order.
type UploadOrchestrator struct {
	store    *SelectionStore
	uploader Uploader
	notifier Notifier
	settings Settings
	user     UserContext
	logger   *observability.Logger
	metrics  Instrumentation
}

func NewUploadOrchestrator(store *SelectionStore, uploader Uploader, notifier Notifier, settings Settings, user UserContext, logger *observability.Logger, metrics Instrumentation) *UploadOrchestrator {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if metrics == nil {
		metrics = NopInstrumentation{}
	}
	return &UploadOrchestrator{
		store:    store,
		uploader: uploader,
		notifier: notifier,
		settings: settings,
		user:     user,
		logger:   logger.With("component", "UploadOrchestrator"),
		metrics:  metrics,
	}
}

// Submit validates the file, inserts it optimistically in uploading status,
// and blocks until the upload resolves. All failures are converted into a
// single notification; none are returned. Callers that want fan-out run
// Submit in its own goroutine.
func (o *UploadOrchestrator) Submit(ctx context.Context, file RawFile, fullContext bool) {
	if !CanUpload(o.user) {
		o.reject(flowErrorf(CodePermissionDenied, nil, "you do not have permission to upload files"))
		return
	}
	if file.ByteSize == 0 {
		o.reject(flowErrorf(CodeEmptyFile, nil, "%s is empty and cannot be uploaded", file.Name))
		return
	}

	// Optimistic insertion: the UI reflects the selection instantly,
	// regardless of network latency.
	itemID := uuid.NewString()
	o.store.Insert(AttachmentItem{
		ItemID:      itemID,
		Kind:        KindFile,
		DisplayName: file.Name,
		ByteSize:    file.ByteSize,
		Status:      StatusUploading,
		FullContext: fullContext,
	})

	meta := o.uploadMetadata(file)
	o.metrics.UploadStarted(ctx)
	start := time.Now()

	res, err := o.uploader.Upload(ctx, file, meta)
	switch {
	case err != nil:
		// Transport-level failure: roll back the optimistic insertion.
		o.store.RemoveByItemID(itemID)
		o.metrics.UploadFailed(ctx, string(CodeUploadFailed))
		o.logger.Warn("upload failed", "file", file.Name, "error", err)
		o.notifier.Notify(flowErrorf(CodeUploadFailed, err, "upload of %s failed: %v", file.Name, err).Notification())

	case res == nil || res.ID == "":
		// Server accepted the request but returned nothing usable.
		o.store.RemoveByItemID(itemID)
		o.metrics.UploadFailed(ctx, string(CodeNoUsableResult))
		o.logger.Warn("upload returned no usable result", "file", file.Name)
		o.notifier.Notify(flowErrorf(CodeNoUsableResult, nil, "upload of %s returned no result", file.Name).Notification())

	case res.Error != "":
		// The server returned a record that still reports a failure: keep
		// the item visible in error status so the user can inspect and
		// remove it.
		o.store.UpdateInPlace(itemID, func(it *AttachmentItem) {
			it.Status = StatusError
			it.ErrorMessage = res.Error
		})
		o.metrics.UploadFailed(ctx, string(CodeUploadFailed))
		o.logger.Warn("upload rejected by server", "file", file.Name, "error", res.Error)
		o.notifier.Notify(flowErrorf(CodeUploadFailed, nil, "upload of %s failed: %s", file.Name, res.Error).Notification())

	default:
		o.store.UpdateInPlace(itemID, func(it *AttachmentItem) {
			it.Status = StatusUploaded
			it.ServerID = res.ID
			it.CollectionName = res.ResolvedCollection()
			it.ResourceURL = resourceURL(o.settings.ResourceURLBase, res.ID)
		})
		o.metrics.UploadSucceeded(ctx, time.Since(start).Seconds())
		o.logger.Info("upload complete", "file", file.Name, "server_id", res.ID)
		if res.Message != "" {
			o.notifier.Notify(Notification{Severity: SeverityWarning, Code: CodeUploadWarning, Message: res.Message})
		}
	}
}

// uploadMetadata derives per-file upload hints. Audio and video carry the
// configured speech-to-text language so the server transcribes them in the
// user's language.
func (o *UploadOrchestrator) uploadMetadata(file RawFile) Metadata {
	lang := o.settings.SpeechToTextLanguage
	if lang == "" {
		return nil
	}
	mt := strings.ToLower(file.MediaType)
	if !strings.HasPrefix(mt, "audio/") && !strings.HasPrefix(mt, "video/") {
		return nil
	}
	return Metadata{metaSpeechLanguage: lang}
}

func (o *UploadOrchestrator) reject(err *FlowError) {
	o.metrics.IntakeRejected(context.Background(), string(err.Code))
	o.logger.Debug("submission rejected", "code", err.Code, "reason", err.Message)
	o.notifier.Notify(err.Notification())
}

package composer

import (
	"context"
	"strings"
	"sync"

	"satchel/internal/async"
	"satchel/internal/observability"
)

// BatchIntake applies per-file policy to a dropped or picked batch and fans
// every accepted file out to the orchestrator. Files are fully independent:
// rejection or completion of one never blocks another.
type BatchIntake struct {
	orchestrator *UploadOrchestrator
	notifier     Notifier
	settings     Settings
	logger       *observability.Logger
	metrics      Instrumentation
}

func NewBatchIntake(orchestrator *UploadOrchestrator, notifier Notifier, settings Settings, logger *observability.Logger, metrics Instrumentation) *BatchIntake {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if metrics == nil {
		metrics = NopInstrumentation{}
	}
	return &BatchIntake{
		orchestrator: orchestrator,
		notifier:     notifier,
		settings:     settings,
		logger:       logger.With("component", "BatchIntake"),
		metrics:      metrics,
	}
}

// AcceptBatch validates and submits each file in its own goroutine and waits
// for the whole batch to resolve. Per-file rejections surface as
// notifications; nothing is returned.
func (b *BatchIntake) AcceptBatch(ctx context.Context, files []RawFile) {
	var wg sync.WaitGroup
	for _, file := range files {
		wg.Add(1)
		async.Go(b.logger, "intake:"+file.Name, func() {
			defer wg.Done()
			b.acceptOne(ctx, file)
		})
	}
	wg.Wait()
}

func (b *BatchIntake) acceptOne(ctx context.Context, file RawFile) {
	if limit := b.settings.MaxFileBytes(); limit > 0 && file.ByteSize > limit {
		b.metrics.IntakeRejected(ctx, string(CodeSizeExceeded))
		b.logger.Debug("file exceeds size limit", "file", file.Name, "bytes", file.ByteSize, "limit", limit)
		b.notifier.Notify(flowErrorf(CodeSizeExceeded, nil,
			"%s exceeds the %.0f MB size limit", file.Name, *b.settings.MaxFileSizeMB).Notification())
		return
	}
	if strings.HasPrefix(strings.ToLower(file.MediaType), "image/") {
		b.metrics.IntakeRejected(ctx, string(CodeUnsupportedType))
		b.logger.Debug("image rejected at intake", "file", file.Name, "media_type", file.MediaType)
		b.notifier.Notify(flowErrorf(CodeUnsupportedType, nil,
			"%s is an image; images are not supported here", file.Name).Notification())
		return
	}
	b.orchestrator.Submit(ctx, file, false)
}

package composer

import (
	"bytes"
	"context"

	"satchel/internal/observability"
)

// ExternalPickerAdapter bridges a third-party single-file selection flow
// (e.g. Google Drive) into the normal upload path. No item is ever created
// for a failed or abandoned flow.
type ExternalPickerAdapter struct {
	orchestrator *UploadOrchestrator
	notifier     Notifier
	factory      PickerFactory
	logger       *observability.Logger
}

func NewExternalPickerAdapter(orchestrator *UploadOrchestrator, notifier Notifier, factory PickerFactory, logger *observability.Logger) *ExternalPickerAdapter {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &ExternalPickerAdapter{
		orchestrator: orchestrator,
		notifier:     notifier,
		factory:      factory,
		logger:       logger.With("component", "ExternalPicker"),
	}
}

// Import runs one external selection flow. A nil selection is a silent
// no-op; flow and initialization failures surface as distinct notifications.
func (a *ExternalPickerAdapter) Import(ctx context.Context) {
	if a.factory == nil {
		a.notifier.Notify(flowErrorf(CodeExternalInitFailed, nil, "the external file picker is not available").Notification())
		return
	}

	picker, err := a.factory(ctx)
	if err != nil {
		// Initialization failed before any selection attempt: generic error.
		a.logger.Warn("picker initialization failed", "error", err)
		a.notifier.Notify(flowErrorf(CodeExternalInitFailed, err, "the external file picker could not be started").Notification())
		return
	}

	picked, err := picker.Pick(ctx)
	if err != nil {
		a.logger.Warn("picker flow failed", "error", err)
		a.notifier.Notify(flowErrorf(CodeExternalFlowFailed, err, "picking a file failed: %v", err).Notification())
		return
	}
	if picked == nil {
		// The user closed the picker without selecting anything.
		return
	}

	a.orchestrator.Submit(ctx, RawFile{
		Name:      picked.Name,
		ByteSize:  int64(len(picked.Data)),
		MediaType: picked.MediaType,
		Content:   bytes.NewReader(picked.Data),
	}, false)
}

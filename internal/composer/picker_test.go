package composer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"satchel/internal/observability"
)

type pickerFunc func(ctx context.Context) (*PickedFile, error)

func (f pickerFunc) Pick(ctx context.Context) (*PickedFile, error) { return f(ctx) }

func staticFactory(p Picker, err error) PickerFactory {
	return func(context.Context) (Picker, error) { return p, err }
}

func newTestAdapter(t *testing.T, up Uploader, factory PickerFactory) (*ExternalPickerAdapter, *SelectionStore, *recordingNotifier) {
	t.Helper()
	store := NewSelectionStore()
	notifier := &recordingNotifier{}
	logger := observability.NewNopLogger()
	orch := NewUploadOrchestrator(store, up, notifier, Settings{}, UserContext{}, logger, nil)
	return NewExternalPickerAdapter(orch, notifier, factory, logger), store, notifier
}

func TestImportNoSelectionIsSilent(t *testing.T) {
	picker := pickerFunc(func(context.Context) (*PickedFile, error) { return nil, nil })
	adapter, store, notifier := newTestAdapter(t, acceptingUploader(), staticFactory(picker, nil))

	adapter.Import(context.Background())

	assert.Equal(t, 0, store.Len())
	assert.Empty(t, notifier.all())
}

func TestImportSubmitsPickedFile(t *testing.T) {
	picker := pickerFunc(func(context.Context) (*PickedFile, error) {
		return &PickedFile{Name: "notes.txt", MediaType: "text/plain", Data: []byte("hello")}, nil
	})
	adapter, store, notifier := newTestAdapter(t, acceptingUploader(), staticFactory(picker, nil))

	adapter.Import(context.Background())

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "notes.txt", items[0].DisplayName)
	assert.Equal(t, int64(5), items[0].ByteSize)
	assert.Equal(t, StatusUploaded, items[0].Status)
	assert.Empty(t, notifier.all())
}

func TestImportFlowFailureSurfacesNotification(t *testing.T) {
	picker := pickerFunc(func(context.Context) (*PickedFile, error) {
		return nil, errors.New("drive api quota exceeded")
	})
	adapter, store, notifier := newTestAdapter(t, acceptingUploader(), staticFactory(picker, nil))

	adapter.Import(context.Background())

	assert.Equal(t, 0, store.Len())
	failed := notifier.byCode(CodeExternalFlowFailed)
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].Message, "quota exceeded")
}

func TestImportInitFailureIsDistinctAndGeneric(t *testing.T) {
	adapter, store, notifier := newTestAdapter(t, acceptingUploader(), staticFactory(nil, errors.New("bad credentials")))

	adapter.Import(context.Background())

	assert.Equal(t, 0, store.Len())
	failed := notifier.byCode(CodeExternalInitFailed)
	require.Len(t, failed, 1)
	// The init failure message stays generic: credentials details belong in
	// logs, not user notifications.
	assert.NotContains(t, failed[0].Message, "bad credentials")
	assert.Empty(t, notifier.byCode(CodeExternalFlowFailed))
}

func TestImportWithoutFactoryReportsInitFailure(t *testing.T) {
	adapter, store, notifier := newTestAdapter(t, acceptingUploader(), nil)

	adapter.Import(context.Background())

	assert.Equal(t, 0, store.Len())
	require.Len(t, notifier.byCode(CodeExternalInitFailed), 1)
}

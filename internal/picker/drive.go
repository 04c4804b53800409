// Package picker implements the external file-selection flow against Google
// Drive. The interactive part of the flow runs in the client; this side
// receives the chosen file's identity and materializes its content.
package picker

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"satchel/internal/composer"
	"satchel/internal/observability"
)

// maxPickedFileBytes bounds how much of a Drive file is pulled into memory.
const maxPickedFileBytes int64 = 512 << 20

// DrivePicker fetches one selected file from Google Drive. It implements
// composer.Picker for a single selection attempt.
type DrivePicker struct {
	svc    *drive.Service
	fileID string
	logger *observability.Logger
}

// Config carriers the Drive credentials. CredentialsFile points at a service
// account or OAuth client JSON accepted by the Google API client.
type Config struct {
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`
}

// NewFactory returns a composer.PickerFactory that builds one DrivePicker
// per selection attempt. fileID comes from the client-side picker dialog; an
// empty fileID models the user closing the dialog without choosing.
func NewFactory(cfg Config, fileID string, logger *observability.Logger) composer.PickerFactory {
	return func(ctx context.Context) (composer.Picker, error) {
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		opts = append(opts, option.WithScopes(drive.DriveReadonlyScope))

		svc, err := drive.NewService(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("initialize drive service: %w", err)
		}
		return &DrivePicker{
			svc:    svc,
			fileID: fileID,
			logger: logger.With("component", "DrivePicker"),
		}, nil
	}
}

// Pick downloads the selected file's metadata and content. A nil, nil return
// means nothing was selected.
func (p *DrivePicker) Pick(ctx context.Context) (*composer.PickedFile, error) {
	if p.fileID == "" {
		return nil, nil
	}

	meta, err := p.svc.Files.Get(p.fileID).
		Fields("name", "mimeType", "size").
		SupportsAllDrives(true).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch drive file metadata: %w", err)
	}
	if meta.Size > maxPickedFileBytes {
		return nil, fmt.Errorf("drive file %s is too large to import (%d bytes)", meta.Name, meta.Size)
	}

	resp, err := p.svc.Files.Get(p.fileID).
		SupportsAllDrives(true).
		Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download drive file %s: %w", meta.Name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPickedFileBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read drive file %s: %w", meta.Name, err)
	}
	if int64(len(data)) > maxPickedFileBytes {
		return nil, fmt.Errorf("drive file %s exceeded the import size cap", meta.Name)
	}

	p.logger.Info("drive file imported", "name", meta.Name, "bytes", len(data))
	return &composer.PickedFile{
		Name:      meta.Name,
		MediaType: meta.MimeType,
		Data:      data,
	}, nil
}

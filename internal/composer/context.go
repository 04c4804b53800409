package composer

import "math"

// RoleAdmin bypasses the per-feature upload permission.
const RoleAdmin = "admin"

// Permissions is the per-feature permission set attached to a user. A nil
// FileUpload means the flag was never configured and defaults to allowed.
type Permissions struct {
	FileUpload *bool `json:"file_upload,omitempty"`
}

// UserContext is the immutable identity the composer is constructed with.
// It is read-only for the composer's lifetime; there is no ambient global.
type UserContext struct {
	Role        string      `json:"role"`
	Permissions Permissions `json:"permissions"`
}

// CanUpload reports whether the user may start file uploads. Admins always
// can; everyone else is gated on the file-upload permission flag.
func CanUpload(user UserContext) bool {
	if user.Role == RoleAdmin {
		return true
	}
	if user.Permissions.FileUpload == nil {
		return true
	}
	return *user.Permissions.FileUpload
}

// Settings is the read-only runtime configuration the composer consumes.
type Settings struct {
	// MaxFileSizeMB caps individual file size at intake; nil means unlimited.
	MaxFileSizeMB *float64
	// GoogleDriveEnabled gates the external-picker import path.
	GoogleDriveEnabled bool
	// SpeechToTextLanguage, when set, is attached as upload metadata for
	// audio and video files to steer server-side transcription.
	SpeechToTextLanguage string
	// ResourceURLBase is prepended to "/files/<id>" for uploaded items.
	ResourceURLBase string
}

// MaxFileBytes converts the megabyte limit to bytes; 0 means unlimited.
// Any non-nil limit is enforced: fractional limits round up, so a tiny
// positive value never truncates to the unlimited sentinel.
func (s Settings) MaxFileBytes() int64 {
	if s.MaxFileSizeMB == nil {
		return 0
	}
	limit := int64(math.Ceil(*s.MaxFileSizeMB * 1024 * 1024))
	if limit < 1 {
		limit = 1
	}
	return limit
}

// Package composer tracks the set of attachments a user has staged for their
// next message: freshly uploaded files and references to already-indexed
// knowledge bases. It owns the selection lifecycle — optimistic insertion,
// asynchronous upload resolution, and explicit removal — while the
// surrounding UI only ever observes immutable snapshots.
package composer

import "strings"

// Kind distinguishes a freshly uploaded file from a reference to a
// server-side knowledge base.
type Kind string

const (
	KindFile               Kind = "file"
	KindKnowledgeReference Kind = "knowledge_reference"
)

// Status tracks the upload lifecycle of a file item. Knowledge references are
// resolved at creation and carry no status.
type Status string

const (
	StatusUploading Status = "uploading"
	StatusUploaded  Status = "uploaded"
	StatusError     Status = "error"
)

// AttachmentItem is one entry in the user's selection. ItemID is generated
// client-side at creation and is never reused; ServerID arrives with the
// upload result and is set at most once.
type AttachmentItem struct {
	ItemID         string `json:"item_id"`
	Kind           Kind   `json:"kind"`
	ServerID       string `json:"server_id,omitempty"`
	DisplayName    string `json:"display_name"`
	ByteSize       int64  `json:"byte_size"`
	Status         Status `json:"status,omitempty"`
	ErrorMessage   string `json:"error_message,omitempty"`
	CollectionName string `json:"collection_name,omitempty"`
	ResourceURL    string `json:"resource_url,omitempty"`
	// FullContext marks that the file's entire content, not a derived
	// summary, should be attached downstream.
	FullContext bool `json:"full_context,omitempty"`
}

// Attachable reports whether the item may be included in a submit action.
// Failed uploads stay visible for inspection but are never attached.
func (it AttachmentItem) Attachable() bool {
	if it.Kind == KindKnowledgeReference {
		return true
	}
	return it.Status == StatusUploaded
}

// resourceURL derives the canonical location of an uploaded file from the
// configured base and the server-assigned identity.
func resourceURL(base, serverID string) string {
	if serverID == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/files/" + serverID
}

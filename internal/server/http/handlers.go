package http

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"satchel/internal/composer"
	"satchel/internal/knowledge"
	"satchel/internal/observability"
	"satchel/internal/picker"
)

// sniffLimit is how many leading bytes feed content-type detection when the
// client did not declare one.
const sniffLimit = 3072

// maxBufferBytes bounds how much of a single multipart file is held in memory
// when no size limit is configured.
const maxBufferBytes int64 = 1 << 30

type apiHandler struct {
	store        *composer.SelectionStore
	orchestrator *composer.UploadOrchestrator
	intake       *composer.BatchIntake
	knowledge    knowledge.Provider
	settings     composer.Settings
	driveCfg     picker.Config
	notifier     composer.Notifier
	logger       *observability.Logger
}

func newAPIHandler(deps Deps) *apiHandler {
	return &apiHandler{
		store:        deps.Store,
		orchestrator: deps.Orchestrator,
		intake:       deps.Intake,
		knowledge:    deps.Knowledge,
		settings:     deps.Settings,
		driveCfg:     deps.DriveConfig,
		notifier:     deps.Notifier,
		logger:       deps.Logger.With("component", "API"),
	}
}

func (h *apiHandler) listAttachments(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.store.Items()})
}

// uploadAttachments accepts a multipart batch under the "files" field and
// runs it through the intake policy. The response carries the selection as
// it stands once every file in the batch has resolved; per-file failures
// have already been surfaced as notifications.
func (h *apiHandler) uploadAttachments(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected multipart form: " + err.Error()})
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files in request"})
		return
	}

	limit := h.settings.MaxFileBytes()
	files := make([]composer.RawFile, 0, len(headers))
	for _, header := range headers {
		raw, err := rawFileFromHeader(header, limit)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "read " + header.Filename + ": " + err.Error()})
			return
		}
		files = append(files, raw)
	}

	h.intake.AcceptBatch(c.Request.Context(), files)
	c.JSON(http.StatusOK, gin.H{"items": h.store.Items()})
}

func (h *apiHandler) removeAttachment(c *gin.Context) {
	itemID := c.Param("itemId")
	if itemID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item id is required"})
		return
	}
	h.store.RemoveByItemID(itemID)
	c.JSON(http.StatusOK, gin.H{"items": h.store.Items()})
}

type driveImportRequest struct {
	FileID string `json:"file_id"`
}

// importFromDrive bridges a client-side Drive picker selection into the
// upload path. The file id may be empty: the user closed the dialog without
// choosing, which is a silent no-op.
func (h *apiHandler) importFromDrive(c *gin.Context) {
	if !h.settings.GoogleDriveEnabled {
		c.JSON(http.StatusNotFound, gin.H{"error": "drive integration is disabled"})
		return
	}

	var req driveImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	adapter := composer.NewExternalPickerAdapter(
		h.orchestrator,
		h.notifier,
		picker.NewFactory(h.driveCfg, req.FileID, h.logger),
		h.logger,
	)
	adapter.Import(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"items": h.store.Items()})
}

func (h *apiHandler) listKnowledgeBases(c *gin.Context) {
	bases, err := h.knowledge.ListKnowledgeBases(c.Request.Context())
	if err != nil {
		h.logger.Warn("knowledge list failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "knowledge bases are unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"knowledge_bases": bases})
}

type knowledgeSelectRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (h *apiHandler) selectKnowledgeBase(c *gin.Context) {
	var req knowledgeSelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "knowledge base id is required"})
		return
	}

	h.store.SelectKnowledgeReference(composer.KnowledgeEntry{ID: req.ID, Name: req.Name})
	c.JSON(http.StatusOK, gin.H{"items": h.store.Items()})
}

// rawFileFromHeader buffers one multipart file and resolves its media type,
// sniffing the content when the client declared none. A file whose declared
// size already exceeds the limit is passed through unread so intake rejects
// it on size without the handler buffering it first; reads are capped at
// maxBufferBytes when no limit is configured.
func rawFileFromHeader(header *multipart.FileHeader, limit int64) (composer.RawFile, error) {
	if limit > 0 && header.Size > limit {
		return composer.RawFile{
			Name:      header.Filename,
			ByteSize:  header.Size,
			MediaType: strings.TrimSpace(header.Header.Get("Content-Type")),
		}, nil
	}

	bufLimit := limit
	if bufLimit <= 0 || bufLimit > maxBufferBytes {
		bufLimit = maxBufferBytes
	}

	f, err := header.Open()
	if err != nil {
		return composer.RawFile{}, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(io.LimitReader(f, bufLimit+1))
	if err != nil {
		return composer.RawFile{}, err
	}
	if int64(len(data)) > bufLimit {
		return composer.RawFile{}, fmt.Errorf("file exceeds the %d byte buffer cap", bufLimit)
	}

	mediaType := strings.TrimSpace(header.Header.Get("Content-Type"))
	if mediaType == "" || mediaType == "application/octet-stream" {
		sniff := data
		if len(sniff) > sniffLimit {
			sniff = sniff[:sniffLimit]
		}
		mediaType = mimetype.Detect(sniff).String()
	}

	return composer.RawFile{
		Name:      header.Filename,
		ByteSize:  int64(len(data)),
		MediaType: mediaType,
		Content:   bytes.NewReader(data),
	}, nil
}

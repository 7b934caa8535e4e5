// Package uploader validates and submits document uploads. All
// validation happens locally before any network traffic, mirroring the
// service's own limits so a doomed upload never leaves the client.
package uploader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/medvault/medvault-go/internal/api"
	"github.com/medvault/medvault-go/internal/notify"
	"github.com/medvault/medvault-go/internal/session"
)

// MaxFileSize is the service's upload limit. A file of exactly this
// size is accepted.
const MaxFileSize = 10 * 1024 * 1024

// MediaTypePDF is the only media type the service accepts.
const MediaTypePDF = "application/pdf"

// Validation errors returned by Submit before any network call.
var (
	ErrNoFile      = errors.New("uploader: no file selected")
	ErrNoPatientID = errors.New("uploader: no patient ID")
	ErrNotPDF      = errors.New("uploader: not a PDF")
	ErrTooLarge    = errors.New("uploader: file too large")
)

// Candidate is a file staged for upload. Select stores it without
// validating; validation happens on Submit.
type Candidate struct {
	Filename  string
	PatientID string
	MediaType string
	Content   []byte
}

// UploadClient is the slice of the API client the controller needs.
type UploadClient interface {
	UploadDocument(ctx context.Context, filename, patientID, mediaType string,
		content io.Reader, progress api.ProgressFunc) (*api.Document, error)
}

// Refresher is notified after a successful upload so the document
// collection picks up the new entry.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// Controller stages one upload candidate and submits it. At most one
// upload is in flight; a Submit while one is running does nothing.
type Controller struct {
	mu        sync.Mutex
	candidate *Candidate
	inFlight  bool
	percent   int

	client    UploadClient
	session   *session.Manager
	registry  Refresher
	notifier  *notify.Notifier
	logger    *slog.Logger
	onPercent func(int)
}

// New builds a Controller bound to the given session. The staged
// candidate is dropped whenever the session ends. onPercent, when
// non-nil, is called with each progress update.
func New(client UploadClient, sess *session.Manager, registry Refresher,
	notifier *notify.Notifier, logger *slog.Logger, onPercent func(int)) *Controller {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		client:    client,
		session:   sess,
		registry:  registry,
		notifier:  notifier,
		logger:    logger,
		onPercent: onPercent,
	}
	sess.OnReset(c.clear)

	return c
}

// Select stages a candidate for upload, replacing any previous one.
// No validation happens here.
func (c *Controller) Select(candidate Candidate) {
	c.mu.Lock()
	c.candidate = &candidate
	c.mu.Unlock()
}

// Candidate returns the staged candidate, if any.
func (c *Controller) Candidate() (Candidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.candidate == nil {
		return Candidate{}, false
	}

	return *c.candidate, true
}

// Percent returns upload progress in [0, 100]. It never decreases while
// an upload is running.
func (c *Controller) Percent() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.percent
}

// Submit validates the staged candidate and uploads it. Validation
// failures raise a notification and return a sentinel error without
// touching the network. On success the candidate is cleared and the
// registry refreshed; on failure the candidate stays staged so the
// user can retry.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		c.logger.Debug("upload already in flight, ignoring submit")

		return nil
	}
	c.inFlight = true
	candidate := c.candidate
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	if err := validate(candidate); err != nil {
		c.notifyRejection(err)
		return err
	}

	epoch, err := c.session.Begin()
	if err != nil {
		return err
	}

	c.setPercent(0, true)

	doc, err := c.client.UploadDocument(ctx, candidate.Filename, candidate.PatientID,
		candidate.MediaType, bytes.NewReader(candidate.Content), c.trackProgress)

	if err != nil {
		c.setPercent(0, true)

		if errors.Is(err, api.ErrUnauthorized) {
			c.session.Invalidate()
			return err
		}

		c.notifier.Error("Upload failed")

		return err
	}

	if !c.session.Current(epoch) {
		c.logger.Debug("discarding upload completion", slog.String("id", doc.ID))
		return nil
	}

	c.mu.Lock()
	c.candidate = nil
	c.mu.Unlock()

	c.logger.Info("document uploaded",
		slog.String("id", doc.ID),
		slog.String("filename", doc.Filename),
	)
	c.notifier.Success("Upload successful")

	return c.registry.Refresh(ctx)
}

func validate(candidate *Candidate) error {
	switch {
	case candidate == nil || len(candidate.Content) == 0:
		return ErrNoFile
	case candidate.PatientID == "":
		return ErrNoPatientID
	case candidate.MediaType != MediaTypePDF:
		return ErrNotPDF
	case len(candidate.Content) > MaxFileSize:
		return ErrTooLarge
	}

	return nil
}

func (c *Controller) notifyRejection(err error) {
	switch {
	case errors.Is(err, ErrNoFile):
		c.notifier.Warning("Select a PDF to upload")
	case errors.Is(err, ErrNoPatientID):
		c.notifier.Warning("Enter a Patient ID")
	case errors.Is(err, ErrNotPDF):
		c.notifier.Error("Only PDF files allowed")
	case errors.Is(err, ErrTooLarge):
		c.notifier.Error("File size exceeds 10MB")
	}
}

// trackProgress converts byte counts to a percentage. The stored value
// only moves forward, so out-of-order callbacks can't make the bar
// jump backwards.
func (c *Controller) trackProgress(sent, total int64) {
	if total <= 0 {
		return
	}

	percent := int(sent * 100 / total)
	if percent > 100 {
		percent = 100
	}

	c.setPercent(percent, false)
}

// setPercent updates progress. force allows the reset to 0 after a
// failed upload; otherwise updates are monotonic. Resets are not
// announced through the callback.
func (c *Controller) setPercent(percent int, force bool) {
	c.mu.Lock()
	if !force && percent < c.percent {
		c.mu.Unlock()
		return
	}
	c.percent = percent
	cb := c.onPercent
	c.mu.Unlock()

	if cb != nil && !force {
		cb(percent)
	}
}

func (c *Controller) clear() {
	c.mu.Lock()
	c.candidate = nil
	c.percent = 0
	c.mu.Unlock()
}

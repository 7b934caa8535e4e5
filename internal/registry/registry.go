// Package registry holds the in-memory document collection and keeps it
// consistent with the service: every mutation is followed by a full
// refresh rather than an optimistic local edit.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/medvault/medvault-go/internal/api"
	"github.com/medvault/medvault-go/internal/notify"
	"github.com/medvault/medvault-go/internal/session"
)

// DocumentClient is the slice of the API client the registry needs.
type DocumentClient interface {
	ListDocuments(ctx context.Context) ([]api.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	DownloadDocument(ctx context.Context, id string, w io.Writer) (int64, error)
}

// SaveFunc opens the destination for a download. The registry writes the
// document bytes to the returned writer and closes it.
type SaveFunc func(filename string) (io.WriteCloser, error)

// Registry caches the document list for the active session. The cached
// slice is replaced wholesale on refresh; callers get copies.
type Registry struct {
	mu   sync.Mutex
	docs []api.Document

	client   DocumentClient
	session  *session.Manager
	notifier *notify.Notifier
	logger   *slog.Logger
}

// New builds a Registry bound to the given session. The collection is
// cleared whenever the session ends.
func New(client DocumentClient, sess *session.Manager, notifier *notify.Notifier, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Registry{
		client:   client,
		session:  sess,
		notifier: notifier,
		logger:   logger,
	}
	sess.OnReset(r.clear)

	return r
}

// Refresh fetches the document list and replaces the cached snapshot.
// A result that arrives after the initiating session has ended is
// discarded. Success is silent; failure raises a notification.
func (r *Registry) Refresh(ctx context.Context) error {
	epoch, err := r.session.Begin()
	if err != nil {
		return err
	}

	docs, err := r.client.ListDocuments(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			r.session.Invalidate()
			return err
		}

		r.notifier.Error("Failed to fetch documents")

		return err
	}

	if !r.session.Current(epoch) {
		r.logger.Debug("discarding stale document list")
		return nil
	}

	r.mu.Lock()
	r.docs = docs
	r.mu.Unlock()

	r.logger.Debug("document list refreshed", slog.Int("count", len(docs)))

	return nil
}

// Delete removes a document on the service and, on success, refreshes
// the collection. The cached snapshot is never edited locally, so a
// failed delete leaves it untouched.
func (r *Registry) Delete(ctx context.Context, id string) error {
	epoch, err := r.session.Begin()
	if err != nil {
		return err
	}

	if err := r.client.DeleteDocument(ctx, id); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			r.session.Invalidate()
			return err
		}

		r.notifier.Error("Delete failed")

		return err
	}

	if !r.session.Current(epoch) {
		r.logger.Debug("discarding delete completion", slog.String("id", id))
		return nil
	}

	r.notifier.Success("Deleted successfully")

	return r.Refresh(ctx)
}

// Download streams a document's bytes to the writer opened by save.
// Nothing is retained in the registry afterwards.
func (r *Registry) Download(ctx context.Context, id, filename string, save SaveFunc) error {
	if _, err := r.session.Begin(); err != nil {
		return err
	}

	w, err := save(filename)
	if err != nil {
		r.notifier.Error("Download failed")
		return fmt.Errorf("opening %s: %w", filename, err)
	}

	_, err = r.client.DownloadDocument(ctx, id, w)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			r.session.Invalidate()
			return err
		}

		r.notifier.Error("Download failed")

		return err
	}

	return nil
}

// Lookup returns the cached document with the given ID.
func (r *Registry) Lookup(id string) (api.Document, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.docs {
		if d.ID == id {
			return d, true
		}
	}

	return api.Document{}, false
}

// Documents returns a copy of the cached snapshot in service order
// (newest first).
func (r *Registry) Documents() []api.Document {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]api.Document, len(r.docs))
	copy(out, r.docs)

	return out
}

func (r *Registry) clear() {
	r.mu.Lock()
	r.docs = nil
	r.mu.Unlock()
}

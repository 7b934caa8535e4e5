package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

// documentsPath is the document collection endpoint, relative to the
// service root.
const documentsPath = "/documents"

// Timestamp validation bounds — timestamps outside this range are replaced
// with the current time and a warning is logged.
const (
	minValidYear = 1970
	maxValidYear = 2100
)

// Document is a stored document's metadata, normalized from the service
// JSON — callers never see raw wire data. The service assigns IDs; they
// are opaque to the client.
type Document struct {
	ID         string
	Filename   string
	PatientID  string
	Size       int64
	UploadedAt time.Time
}

// documentResponse mirrors the service's document JSON exactly.
// Unexported — callers use Document via toDocument() normalization.
type documentResponse struct {
	ID         int64  `json:"id"`
	Filename   string `json:"filename"`
	PatientID  string `json:"patient_id"`
	FileSize   int64  `json:"file_size"`
	UploadedAt string `json:"uploaded_at"`
}

// toDocument normalizes a service document response into our Document type.
func (d *documentResponse) toDocument(logger *slog.Logger) Document {
	id := strconv.FormatInt(d.ID, 10)

	return Document{
		ID:         id,
		Filename:   d.Filename,
		PatientID:  d.PatientID,
		Size:       d.FileSize,
		UploadedAt: parseTimestamp(d.UploadedAt, id, logger),
	}
}

// parseTimestamp parses an RFC3339 timestamp and validates the year range.
// Invalid or out-of-range timestamps are replaced with time.Now().UTC()
// and logged.
func parseTimestamp(raw, docID string, logger *slog.Logger) time.Time {
	if raw == "" {
		logger.Warn("empty uploaded_at timestamp, using current time",
			slog.String("document_id", docID),
		)

		return time.Now().UTC()
	}

	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		logger.Warn("invalid uploaded_at timestamp, using current time",
			slog.String("document_id", docID),
			slog.String("raw", raw),
			slog.String("error", err.Error()),
		)

		return time.Now().UTC()
	}

	if t.Year() < minValidYear || t.Year() > maxValidYear {
		logger.Warn("uploaded_at timestamp out of valid range, using current time",
			slog.String("document_id", docID),
			slog.String("raw", raw),
		)

		return time.Now().UTC()
	}

	return t
}

// ListDocuments returns all documents for the authenticated user in the
// order the service returns them (newest first).
func (c *Client) ListDocuments(ctx context.Context) ([]Document, error) {
	c.logger.Info("listing documents")

	resp, err := c.Do(ctx, http.MethodGet, documentsPath+"/", "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var drs []documentResponse
	if decErr := json.NewDecoder(resp.Body).Decode(&drs); decErr != nil {
		return nil, fmt.Errorf("api: decoding document list: %w", decErr)
	}

	docs := make([]Document, 0, len(drs))
	for i := range drs {
		docs = append(docs, drs[i].toDocument(c.logger))
	}

	c.logger.Info("listed documents", slog.Int("count", len(docs)))

	return docs, nil
}

// DeleteDocument deletes a stored document by ID.
func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	c.logger.Info("deleting document", slog.String("document_id", id))

	resp, err := c.Do(ctx, http.MethodDelete, fmt.Sprintf("%s/%s/", documentsPath, id), "", nil)
	if err != nil {
		return err
	}

	return drain(resp)
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// ProgressFunc receives transfer progress: bytes sent so far out of total.
// Called synchronously from the request body reader; implementations must
// be fast and must not block.
type ProgressFunc func(sent, total int64)

// progressReader wraps a reader and reports cumulative bytes read.
// Because reads only ever advance, reported progress is monotonically
// non-decreasing for a single upload attempt.
type progressReader struct {
	r        io.Reader
	sent     int64
	total    int64
	progress ProgressFunc
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)

	if n > 0 {
		p.sent += int64(n)

		if p.progress != nil {
			p.progress(p.sent, p.total)
		}
	}

	return n, err
}

// UploadDocument uploads a document via multipart POST, carrying the file
// content under "file" and the patient identifier under "patient_id".
// The file part is sent with the given media type so the service can
// enforce its PDF-only policy. progress may be nil.
//
// Uploads are not retried — retrying a partially-consumed body is not safe.
func (c *Client) UploadDocument(
	ctx context.Context, filename, patientID, mediaType string,
	content io.Reader, progress ProgressFunc,
) (*Document, error) {
	c.logger.Info("uploading document",
		slog.String("filename", filename),
		slog.String("patient_id", patientID),
	)

	body, formContentType, err := buildUploadBody(filename, patientID, mediaType, content)
	if err != nil {
		return nil, err
	}

	total := int64(body.Len())
	reader := &progressReader{r: body, total: total, progress: progress}

	resp, err := c.Do(ctx, http.MethodPost, documentsPath+"/upload/", formContentType, reader)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var dr documentResponse
	if decErr := json.NewDecoder(resp.Body).Decode(&dr); decErr != nil {
		return nil, fmt.Errorf("api: decoding upload response: %w", decErr)
	}

	doc := dr.toDocument(c.logger)

	c.logger.Info("upload complete",
		slog.String("document_id", doc.ID),
		slog.Int64("size", total),
	)

	return &doc, nil
}

// buildUploadBody assembles the multipart form in memory and returns it
// with its content type. In-memory assembly is fine here: upload policy
// caps file size well below anything worth streaming.
func buildUploadBody(filename, patientID, mediaType string, content io.Reader) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)

	// CreateFormFile would hardcode application/octet-stream; the service
	// checks the part's declared media type, so set it explicitly.
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", mediaType)

	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("api: creating file part: %w", err)
	}

	if _, err := io.Copy(part, content); err != nil {
		return nil, "", fmt.Errorf("api: writing file part: %w", err)
	}

	if err := mw.WriteField("patient_id", patientID); err != nil {
		return nil, "", fmt.Errorf("api: writing patient_id field: %w", err)
	}

	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("api: finalizing multipart body: %w", err)
	}

	return &buf, mw.FormDataContentType(), nil
}

package api

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadDocument_Success(t *testing.T) {
	content := []byte("%PDF-1.4 fake pdf content")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/documents/upload/", r.URL.Path)
		assert.Equal(t, "Bearer abc123", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "P123", r.FormValue("patient_id"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()

		assert.Equal(t, "report.pdf", header.Filename)
		assert.Equal(t, "application/pdf", header.Header.Get("Content-Type"))

		got, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, content, got)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 9, "filename": "report.pdf", "patient_id": "P123", "file_size": 25, "uploaded_at": "2026-03-01T10:00:00Z"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	doc, err := client.UploadDocument(
		context.Background(), "report.pdf", "P123", "application/pdf",
		bytes.NewReader(content), nil,
	)
	require.NoError(t, err)
	assert.Equal(t, "9", doc.ID)
	assert.Equal(t, "report.pdf", doc.Filename)
	assert.Equal(t, "P123", doc.PatientID)
}

func TestUploadDocument_ProgressMonotonicAndComplete(t *testing.T) {
	content := bytes.Repeat([]byte("x"), 64*1024)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 1, "filename": "big.pdf", "patient_id": "P1", "file_size": 65536, "uploaded_at": "2026-03-01T10:00:00Z"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	var (
		calls    int
		lastSent int64
		total    int64
	)

	progress := func(sent, totalBytes int64) {
		calls++
		assert.GreaterOrEqual(t, sent, lastSent)
		lastSent = sent
		total = totalBytes
	}

	_, err := client.UploadDocument(
		context.Background(), "big.pdf", "P1", "application/pdf",
		bytes.NewReader(content), progress,
	)
	require.NoError(t, err)
	assert.Positive(t, calls)
	assert.Equal(t, total, lastSent)
	assert.Greater(t, total, int64(len(content))) // multipart framing overhead
}

func TestUploadDocument_ServerRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "Only PDF files are allowed."}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)

	_, err := client.UploadDocument(
		context.Background(), "notes.txt", "P1", "text/plain",
		bytes.NewReader([]byte("hello")), nil,
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestProgressReader_ReportsCumulativeBytes(t *testing.T) {
	var reports []int64

	pr := &progressReader{
		r:     bytes.NewReader([]byte("abcdef")),
		total: 6,
		progress: func(sent, _ int64) {
			reports = append(reports, sent)
		},
	}

	buf := make([]byte, 2)
	for {
		_, err := pr.Read(buf)
		if err == io.EOF {
			break
		}

		require.NoError(t, err)
	}

	assert.Equal(t, []int64{2, 4, 6}, reports)
}

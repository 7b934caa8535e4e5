package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/medvault/medvault-go/internal/uploader"
)

func TestDetectMediaType(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		content []byte
		want    string
	}{
		{"pdf extension", "scan.pdf", nil, "application/pdf"},
		{"uppercase extension", "SCAN.PDF", nil, "application/pdf"},
		{"text extension", "notes.txt", nil, "text/plain; charset=utf-8"},
		{"no extension, pdf magic", "scan", []byte("%PDF-1.4 ..."), "application/pdf"},
		{"no extension, plain text", "notes", []byte("just some words"), "text/plain; charset=utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectMediaType(tt.path, tt.content))
		})
	}
}

func TestIsValidationError(t *testing.T) {
	assert.True(t, isValidationError(uploader.ErrNoFile))
	assert.True(t, isValidationError(uploader.ErrNoPatientID))
	assert.True(t, isValidationError(uploader.ErrNotPDF))
	assert.True(t, isValidationError(uploader.ErrTooLarge))
	assert.False(t, isValidationError(assert.AnError))
}

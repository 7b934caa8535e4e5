package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/medvault/medvault-go/internal/api"
	"github.com/medvault/medvault-go/internal/uploader"
)

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List documents",
		Args:  cobra.NoArgs,
		RunE:  runLs,
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <document-id> [local-path]",
		Short: "Download a document",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runGet,
	}
}

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <local-path>",
		Short: "Upload a PDF document",
		Args:  cobra.ExactArgs(1),
		RunE:  runPut,
	}

	cmd.Flags().StringP("patient", "p", "", "patient ID for the document (required)")

	return cmd
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <document-id>",
		Short: "Delete a document",
		Args:  cobra.ExactArgs(1),
		RunE:  runRm,
	}
}

func runLs(cmd *cobra.Command, _ []string) error {
	a, err := buildApp()
	if err != nil {
		return err
	}

	if err := a.requireSession(); err != nil {
		return err
	}

	if err := a.registry.Refresh(cmd.Context()); err != nil {
		return fmt.Errorf("listing documents: %w", err)
	}

	docs := a.registry.Documents()

	if flagJSON {
		return printDocumentsJSON(docs)
	}

	printDocumentsTable(docs)

	return nil
}

// lsJSONItem is the JSON output schema for a single document in ls output.
type lsJSONItem struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	PatientID  string `json:"patient_id"`
	Size       int64  `json:"size"`
	UploadedAt string `json:"uploaded_at"`
}

func printDocumentsJSON(docs []api.Document) error {
	out := make([]lsJSONItem, 0, len(docs))
	for i := range docs {
		out = append(out, lsJSONItem{
			ID:         docs[i].ID,
			Filename:   docs[i].Filename,
			PatientID:  docs[i].PatientID,
			Size:       docs[i].Size,
			UploadedAt: docs[i].UploadedAt.Format("2006-01-02T15:04:05Z"),
		})
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	return enc.Encode(out)
}

func printDocumentsTable(docs []api.Document) {
	// Service order is newest first; keep it.
	headers := []string{"ID", "FILENAME", "PATIENT", "SIZE", "UPLOADED"}
	rows := make([][]string, 0, len(docs))

	for i := range docs {
		rows = append(rows, []string{
			docs[i].ID,
			docs[i].Filename,
			docs[i].PatientID,
			formatSize(docs[i].Size),
			formatTime(docs[i].UploadedAt),
		})
	}

	printTable(os.Stdout, headers, rows)
}

func runGet(cmd *cobra.Command, args []string) error {
	id := args[0]
	ctx := cmd.Context()

	a, err := buildApp()
	if err != nil {
		return err
	}

	if err := a.requireSession(); err != nil {
		return err
	}

	// The registry knows the document's filename; fetch the list first.
	if err := a.registry.Refresh(ctx); err != nil {
		return fmt.Errorf("fetching document list: %w", err)
	}

	doc, ok := a.registry.Lookup(id)
	if !ok {
		return fmt.Errorf("no document with ID %q", id)
	}

	localPath := doc.Filename
	if len(args) > 1 {
		localPath = args[1]
	}

	// Download to a .partial file, then rename into place so an
	// interrupted download never leaves a truncated target.
	partialPath := localPath + ".partial"

	err = a.registry.Download(ctx, id, doc.Filename, func(string) (io.WriteCloser, error) {
		return os.Create(partialPath)
	})
	if err != nil {
		os.Remove(partialPath)
		return fmt.Errorf("downloading %q: %w", doc.Filename, err)
	}

	if err := os.Rename(partialPath, localPath); err != nil {
		return fmt.Errorf("renaming download to %q: %w", localPath, err)
	}

	fi, statErr := os.Stat(localPath)
	if statErr != nil {
		return fmt.Errorf("stat after download: %w", statErr)
	}

	a.logger.Debug("download complete", "local_path", localPath, "bytes", fi.Size())
	statusf("Downloaded %s (%s)\n", localPath, formatSize(fi.Size()))

	return nil
}

func runPut(cmd *cobra.Command, args []string) error {
	localPath := args[0]
	ctx := cmd.Context()

	patientID, err := cmd.Flags().GetString("patient")
	if err != nil {
		return err
	}

	a, err := buildApp()
	if err != nil {
		return err
	}

	if err := a.requireSession(); err != nil {
		return err
	}

	content, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("reading local file: %w", err)
	}

	a.logger.Debug("put", "local_path", localPath, "patient_id", patientID, "size", len(content))

	a.uploader.Select(uploader.Candidate{
		Filename:  filepath.Base(localPath),
		PatientID: patientID,
		MediaType: detectMediaType(localPath, content),
		Content:   content,
	})

	if err := a.uploader.Submit(ctx); err != nil {
		// Validation errors already raised a notification with the detail.
		if isValidationError(err) {
			return fmt.Errorf("upload rejected")
		}

		return fmt.Errorf("uploading %q: %w", localPath, err)
	}

	return nil
}

func isValidationError(err error) bool {
	return errors.Is(err, uploader.ErrNoFile) ||
		errors.Is(err, uploader.ErrNoPatientID) ||
		errors.Is(err, uploader.ErrNotPDF) ||
		errors.Is(err, uploader.ErrTooLarge)
}

// detectMediaType resolves the media type from the file extension,
// falling back to content sniffing for extensionless files.
func detectMediaType(path string, content []byte) string {
	if mt := mime.TypeByExtension(filepath.Ext(path)); mt != "" {
		return mt
	}

	return http.DetectContentType(content)
}

// rmJSONOutput is the JSON output schema for the rm command.
type rmJSONOutput struct {
	Deleted string `json:"deleted"`
}

func runRm(cmd *cobra.Command, args []string) error {
	id := args[0]

	a, err := buildApp()
	if err != nil {
		return err
	}

	if err := a.requireSession(); err != nil {
		return err
	}

	if err := a.registry.Delete(cmd.Context(), id); err != nil {
		return fmt.Errorf("deleting document %q: %w", id, err)
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")

		return enc.Encode(rmJSONOutput{Deleted: id})
	}

	return nil
}

package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// DownloadDocument streams a stored document's content to the given writer.
// Returns the number of bytes written. Nothing is buffered client-side;
// the caller owns the destination.
func (c *Client) DownloadDocument(ctx context.Context, id string, w io.Writer) (int64, error) {
	c.logger.Info("downloading document", slog.String("document_id", id))

	resp, err := c.Do(ctx, http.MethodGet, fmt.Sprintf("%s/%s/download/", documentsPath, id), "", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, copyErr := io.Copy(w, resp.Body)
	if copyErr != nil {
		c.logger.Error("streaming download content failed",
			slog.String("document_id", id),
			slog.Int64("bytes_before_error", n),
			slog.String("error", copyErr.Error()),
		)

		return n, fmt.Errorf("api: streaming download content: %w", copyErr)
	}

	c.logger.Debug("download complete",
		slog.String("document_id", id),
		slog.Int64("bytes_written", n),
	)

	return n, nil
}

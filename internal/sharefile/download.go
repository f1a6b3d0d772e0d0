package sharefile

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/sharefile-samples/sharefile-go/internal/itemid"
)

// Download streams the content of an item to w and returns the number of
// bytes written. The Download endpoint answers with a redirect to the
// content URL; the client's redirect policy follows it (see RedirectPolicy)
// and the final body is copied verbatim. The content URL is never logged.
// Only the request/response cycle is retried; a failure while streaming is
// returned to the caller with the partial byte count.
func (c *Client) Download(ctx context.Context, id itemid.ID, w io.Writer) (int64, error) {
	c.logger.Info("downloading item", slog.String("item_id", id.String()))

	resp, err := c.Do(ctx, http.MethodGet, "/"+id.PathSegment()+"/Download", nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, copyErr := io.Copy(w, resp.Body)
	if copyErr != nil {
		c.logger.Error("streaming download content failed",
			slog.String("item_id", id.String()),
			slog.String("error", copyErr.Error()),
			slog.Int64("bytes_before_error", n),
		)

		return n, fmt.Errorf("sharefile: streaming download content: %w", copyErr)
	}

	c.logger.Debug("download complete",
		slog.String("item_id", id.String()),
		slog.Int64("bytes_written", n),
	)

	return n, nil
}

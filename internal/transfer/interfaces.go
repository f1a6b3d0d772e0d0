package transfer

import (
	"context"
	"io"

	"github.com/sharefile-samples/sharefile-go/internal/itemid"
	"github.com/sharefile-samples/sharefile-go/internal/sharefile"
)

// Downloader streams an item's content. Satisfied by *sharefile.Client.
type Downloader interface {
	Download(ctx context.Context, id itemid.ID, w io.Writer) (int64, error)
}

// Uploader uploads content with one of the upload strategies. Satisfied by
// *sharefile.Client. content must be an io.ReaderAt for retry safety.
type Uploader interface {
	Upload(
		ctx context.Context, folderID itemid.ID, name string,
		content io.ReaderAt, size int64, opts sharefile.UploadOptions,
	) (*sharefile.UploadResult, error)
}

package transfer

import (
	"context"
	"crypto/md5" //nolint:gosec // ShareFile reports MD5 content hashes
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/sharefile-samples/sharefile-go/internal/itemid"
	"github.com/sharefile-samples/sharefile-go/internal/sharefile"
)

// ErrHashMismatch is returned when downloaded content does not match the
// MD5 the server reported for the item.
var ErrHashMismatch = errors.New("transfer: hash mismatch")

const partialSuffix = ".partial"

// DownloadOpts configures a single download operation.
type DownloadOpts struct {
	ExpectedHash string // md5 hex; empty = skip verification
	ExpectedSize int64  // bytes; 0 = don't validate
}

// DownloadResult reports the outcome of a successful download.
type DownloadResult struct {
	LocalHash string
	Size      int64
}

// UploadOpts configures a single upload operation.
type UploadOpts struct {
	Name        string // remote file name; defaults to the local base name
	Strategy    sharefile.Strategy
	ChunkSize   int64
	ThreadCount int
	Overwrite   bool
}

// UploadResult reports the outcome of a successful upload.
type UploadResult struct {
	Remote    *sharefile.UploadResult
	Name      string
	LocalHash string // empty when the strategy did not need one
	Size      int64
}

// Manager provides whole-file download and upload for the CLI.
type Manager struct {
	downloads Downloader
	uploads   Uploader
	logger    *slog.Logger
	hashFunc  func(string) (string, error)
}

// NewManager creates a Manager. Either side may be nil when only one
// direction is needed.
func NewManager(dl Downloader, ul Uploader, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		downloads: dl,
		uploads:   ul,
		logger:    logger,
		hashFunc:  ComputeMD5,
	}
}

// DownloadToFile downloads an item to targetPath with .partial safety:
// stream to targetPath.partial while hashing, verify, then rename atomically.
// On any failure the partial file is removed and targetPath is untouched.
func (m *Manager) DownloadToFile(
	ctx context.Context, id itemid.ID, targetPath string, opts DownloadOpts,
) (*DownloadResult, error) {
	if targetPath == "" {
		return nil, fmt.Errorf("download: target path must not be empty")
	}

	if id.IsZero() {
		return nil, fmt.Errorf("download: item ID must not be empty")
	}

	m.logger.Debug("DownloadToFile",
		slog.String("item_id", id.String()),
		slog.String("target", targetPath),
	)

	if err := os.MkdirAll(filepath.Dir(targetPath), 0o700); err != nil { //nolint:mnd // owner-only dir perms
		return nil, fmt.Errorf("creating parent dir for %s: %w", targetPath, err)
	}

	partialPath := targetPath + partialSuffix

	f, err := os.OpenFile(partialPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600) //nolint:mnd // owner-only file perms
	if err != nil {
		return nil, fmt.Errorf("creating partial file %s: %w", partialPath, err)
	}

	h := md5.New() //nolint:gosec // ShareFile reports MD5 content hashes

	n, dlErr := m.downloads.Download(ctx, id, io.MultiWriter(f, h))
	closeErr := f.Close()

	if dlErr != nil {
		os.Remove(partialPath)

		return nil, fmt.Errorf("downloading to %s: %w", partialPath, dlErr)
	}

	if closeErr != nil {
		os.Remove(partialPath)

		return nil, fmt.Errorf("closing partial file %s: %w", partialPath, closeErr)
	}

	localHash := hex.EncodeToString(h.Sum(nil))

	if opts.ExpectedSize > 0 && opts.ExpectedSize != n {
		os.Remove(partialPath)

		return nil, fmt.Errorf("download: %s: got %d bytes, expected %d", id, n, opts.ExpectedSize)
	}

	if opts.ExpectedHash != "" && !strings.EqualFold(opts.ExpectedHash, localHash) {
		os.Remove(partialPath)

		m.logger.Warn("download hash mismatch",
			slog.String("item_id", id.String()),
			slog.String("local_hash", localHash),
			slog.String("remote_hash", opts.ExpectedHash),
		)

		return nil, fmt.Errorf("%w: %s", ErrHashMismatch, id)
	}

	// Atomic rename: .partial -> target.
	if err := os.Rename(partialPath, targetPath); err != nil {
		os.Remove(partialPath)

		return nil, fmt.Errorf("renaming partial to %s: %w", targetPath, err)
	}

	m.logger.Debug("download complete",
		slog.String("item_id", id.String()),
		slog.String("target", targetPath),
		slog.Int64("size", n),
	)

	return &DownloadResult{LocalHash: localHash, Size: n}, nil
}

// UploadFile uploads a local file into folderID. The remote name is
// NFC-normalized so names typed on macOS match names created elsewhere.
func (m *Manager) UploadFile(
	ctx context.Context, folderID itemid.ID, localPath string, opts UploadOpts,
) (*UploadResult, error) {
	if folderID.IsZero() {
		return nil, fmt.Errorf("upload: folder ID must not be empty")
	}

	if localPath == "" {
		return nil, fmt.Errorf("upload: local path must not be empty")
	}

	info, err := os.Stat(localPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", localPath, err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("upload: %s is a directory", localPath)
	}

	name := opts.Name
	if name == "" {
		name = filepath.Base(localPath)
	}

	name = norm.NFC.String(name)
	size := info.Size()

	m.logger.Debug("UploadFile",
		slog.String("path", localPath),
		slog.String("name", name),
		slog.String("method", string(opts.Strategy)),
		slog.Int64("size", size),
	)

	var localHash string

	if opts.Strategy.SendsFileHash() {
		localHash, err = m.hashFunc(localPath)
		if err != nil {
			return nil, fmt.Errorf("hashing %s: %w", localPath, err)
		}
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s for upload: %w", localPath, err)
	}
	defer f.Close()

	remote, err := m.uploads.Upload(ctx, folderID, name, f, size, sharefile.UploadOptions{
		Strategy:    opts.Strategy,
		ChunkSize:   opts.ChunkSize,
		ThreadCount: opts.ThreadCount,
		FileHash:    localHash,
		Overwrite:   opts.Overwrite,
	})
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", localPath, err)
	}

	if remote.MD5 != "" && localHash != "" && !strings.EqualFold(remote.MD5, localHash) {
		m.logger.Warn("upload hash mismatch",
			slog.String("path", localPath),
			slog.String("local_hash", localHash),
			slog.String("remote_hash", remote.MD5),
		)
	}

	m.logger.Debug("upload complete",
		slog.String("path", localPath),
		slog.String("item_id", remote.ID.String()),
		slog.Int64("size", size),
	)

	return &UploadResult{Remote: remote, Name: name, LocalHash: localHash, Size: size}, nil
}

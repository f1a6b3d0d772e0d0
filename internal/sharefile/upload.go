package sharefile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sharefile-samples/sharefile-go/internal/itemid"
)

// Upload errors.
var (
	ErrNoChunkURI     = errors.New("sharefile: upload specification has no ChunkUri")
	ErrNoFinishURI    = errors.New("sharefile: threaded upload specification has no FinishUri")
	ErrUploadRejected = errors.New("sharefile: upload rejected")
	ErrUnknownMethod  = errors.New("sharefile: unknown upload method")
)

// Form field names the upload endpoints expect.
const (
	standardFileField = "File1"
	threadedFileField = "Filedata"
	octetStream       = "application/octet-stream"
)

// Strategy selects one of the upload flows.
type Strategy string

// Upload strategies.
const (
	// StrategyStandard posts a single multipart form to the chunk URI.
	StrategyStandard Strategy = "standard"
	// StrategyRaw posts the raw file body to the chunk URI.
	StrategyRaw Strategy = "raw"
	// StrategyThreaded posts raw byte ranges, then calls the finish URI.
	StrategyThreaded Strategy = "threaded"
	// StrategyThreadedMultipart posts multipart byte ranges, then calls the finish URI.
	StrategyThreadedMultipart Strategy = "threaded_multipart"
)

// Strategies lists every strategy in display order.
var Strategies = []Strategy{StrategyStandard, StrategyRaw, StrategyThreaded, StrategyThreadedMultipart}

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	for _, st := range Strategies {
		if string(st) == s {
			return st, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// SendsFileHash reports whether the strategy sends a whole-file MD5 when
// requesting the upload specification.
func (s Strategy) SendsFileHash() bool {
	return s == StrategyRaw || s == StrategyThreaded
}

// UploadOptions tunes Upload.
type UploadOptions struct {
	Strategy    Strategy
	ChunkSize   int64  // threaded only; <= 0 splits the file into two halves
	ThreadCount int    // threaded only; concurrent chunk posts, minimum 1
	FileHash    string // whole-file MD5 hex; computed from content when empty
	Overwrite   bool
}

// UploadRequest holds the query parameters of GET Items(folder)/Upload.
// An empty Method sends no parameters, which selects the plain multipart
// standard upload.
type UploadRequest struct {
	Method      string // "standard" or "threaded"
	Raw         bool
	FileName    string
	FileSize    int64
	FileHash    string
	Overwrite   bool
	ThreadCount int
}

func (r UploadRequest) query() string {
	if r.Method == "" {
		return ""
	}

	v := url.Values{}
	v.Set("method", r.Method)
	v.Set("raw", formatBool(r.Raw))
	v.Set("fileName", r.FileName)
	v.Set("fileSize", strconv.FormatInt(r.FileSize, 10))
	v.Set("overwrite", formatBool(r.Overwrite))

	if r.FileHash != "" {
		v.Set("filehash", r.FileHash)
	}

	if r.ThreadCount > 0 {
		v.Set("threadCount", strconv.Itoa(r.ThreadCount))
	}

	return v.Encode()
}

func formatBool(b bool) string {
	if b {
		return "True"
	}

	return "False"
}

// UploadSession is the upload specification returned by the server. It is
// scoped to a single upload. ChunkURI and FinishURI carry their own
// credentials and are never logged.
type UploadSession struct {
	Method    string
	ChunkURI  string
	FinishURI string
	Raw       bool
}

type uploadSpecResponse struct {
	Method    string `json:"Method"`
	ChunkURI  string `json:"ChunkUri"`
	FinishURI string `json:"FinishUri"`
}

// uploadResponse is returned by the chunk URI of standard uploads and by the
// finish URI of threaded uploads when fmt=json is requested.
type uploadResponse struct {
	Error        bool           `json:"error"`
	ErrorMessage string         `json:"errorMessage"`
	ErrorCode    int            `json:"errorCode"`
	Value        []uploadedFile `json:"value"`
}

type uploadedFile struct {
	ID          string `json:"id"`
	FileName    string `json:"filename"`
	DisplayName string `json:"displayname"`
	Size        int64  `json:"size"`
	MD5         string `json:"md5"`
}

// CreateUploadSession requests an upload specification for a file in folderID.
func (c *Client) CreateUploadSession(ctx context.Context, folderID itemid.ID, req UploadRequest) (*UploadSession, error) {
	c.logger.Info("creating upload session",
		slog.String("folder_id", folderID.String()),
		slog.String("method", req.Method),
		slog.Bool("raw", req.Raw),
		slog.String("name", req.FileName),
		slog.Int64("size", req.FileSize),
	)

	path := "/" + folderID.PathSegment() + "/Upload"
	if qs := req.query(); qs != "" {
		path += "?" + qs
	}

	var spec uploadSpecResponse
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &spec); err != nil {
		return nil, err
	}

	if spec.ChunkURI == "" {
		return nil, ErrNoChunkURI
	}

	return &UploadSession{
		Method:    spec.Method,
		ChunkURI:  spec.ChunkURI,
		FinishURI: spec.FinishURI,
		Raw:       req.Raw,
	}, nil
}

// Upload uploads size bytes of content as name into folderID using the
// strategy in opts.
func (c *Client) Upload(
	ctx context.Context, folderID itemid.ID, name string, content io.ReaderAt, size int64, opts UploadOptions,
) (*UploadResult, error) {
	if name == "" {
		return nil, fmt.Errorf("sharefile: upload file name is empty")
	}

	if opts.Strategy.SendsFileHash() && opts.FileHash == "" {
		sum, err := HashRange(content, 0, size)
		if err != nil {
			return nil, err
		}

		opts.FileHash = sum
	}

	switch opts.Strategy {
	case StrategyStandard, "":
		return c.UploadStandard(ctx, folderID, name, content, size)
	case StrategyRaw:
		return c.UploadRaw(ctx, folderID, name, content, size, opts)
	case StrategyThreaded:
		return c.UploadThreaded(ctx, folderID, name, content, size, opts)
	case StrategyThreadedMultipart:
		return c.UploadThreadedMultipart(ctx, folderID, name, content, size, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, opts.Strategy)
	}
}

// UploadStandard posts the file as a single multipart form (field File1).
func (c *Client) UploadStandard(
	ctx context.Context, folderID itemid.ID, name string, content io.ReaderAt, size int64,
) (*UploadResult, error) {
	session, err := c.CreateUploadSession(ctx, folderID, UploadRequest{})
	if err != nil {
		return nil, err
	}

	form, err := newMultipartForm(standardFileField, name, size, false)
	if err != nil {
		return nil, err
	}

	body, err := c.postContent(ctx, session.ChunkURI, "standard upload", retryOnRequest, form.contentType,
		func() io.Reader { return form.reader(content, 0, size) }, form.size(size))
	if err != nil {
		return nil, err
	}

	return c.uploadResult(body, name)
}

// UploadRaw posts the raw file body in a single request.
func (c *Client) UploadRaw(
	ctx context.Context, folderID itemid.ID, name string, content io.ReaderAt, size int64, opts UploadOptions,
) (*UploadResult, error) {
	session, err := c.CreateUploadSession(ctx, folderID, UploadRequest{
		Method:    "standard",
		Raw:       true,
		FileName:  name,
		FileSize:  size,
		FileHash:  opts.FileHash,
		Overwrite: opts.Overwrite,
	})
	if err != nil {
		return nil, err
	}

	body, err := c.postContent(ctx, session.ChunkURI, "raw upload", retryOnRequest, octetStream,
		func() io.Reader { return io.NewSectionReader(content, 0, size) }, size)
	if err != nil {
		return nil, err
	}

	return c.uploadResult(body, name)
}

// UploadThreaded posts raw byte ranges concurrently, then finishes the upload.
func (c *Client) UploadThreaded(
	ctx context.Context, folderID itemid.ID, name string, content io.ReaderAt, size int64, opts UploadOptions,
) (*UploadResult, error) {
	threads := max(opts.ThreadCount, 1)

	session, err := c.CreateUploadSession(ctx, folderID, UploadRequest{
		Method:      "threaded",
		Raw:         true,
		FileName:    name,
		FileSize:    size,
		FileHash:    opts.FileHash,
		Overwrite:   opts.Overwrite,
		ThreadCount: threads,
	})
	if err != nil {
		return nil, err
	}

	return c.uploadChunks(ctx, session, name, content, size, opts.ChunkSize, threads)
}

// UploadThreadedMultipart posts multipart byte ranges (field Filedata)
// concurrently, then finishes the upload.
func (c *Client) UploadThreadedMultipart(
	ctx context.Context, folderID itemid.ID, name string, content io.ReaderAt, size int64, opts UploadOptions,
) (*UploadResult, error) {
	threads := max(opts.ThreadCount, 1)

	session, err := c.CreateUploadSession(ctx, folderID, UploadRequest{
		Method:      "threaded",
		Raw:         false,
		FileName:    name,
		FileSize:    size,
		Overwrite:   opts.Overwrite,
		ThreadCount: threads,
	})
	if err != nil {
		return nil, err
	}

	return c.uploadChunks(ctx, session, name, content, size, opts.ChunkSize, threads)
}

// uploadChunks posts every part and calls the finish URI only after all of
// them succeeded. The finish call is the commit point: on any chunk error
// the server never assembles the file.
func (c *Client) uploadChunks(
	ctx context.Context, session *UploadSession, name string, content io.ReaderAt, size, chunkSize int64, threads int,
) (*UploadResult, error) {
	if session.FinishURI == "" {
		return nil, ErrNoFinishURI
	}

	parts := PlanChunks(size, chunkSize)
	if err := HashParts(content, parts); err != nil {
		return nil, err
	}

	c.logger.Info("uploading chunks",
		slog.String("name", name),
		slog.Int("parts", len(parts)),
		slog.Int("threads", threads),
		slog.Bool("raw", session.Raw),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)

	for _, part := range parts {
		g.Go(func() error {
			return c.UploadChunk(gctx, session, name, content, part)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("sharefile: uploading chunks of %s: %w", name, err)
	}

	return c.FinishUpload(ctx, session, name)
}

// UploadChunk posts one part to the session's chunk URI. The range is
// re-read from content on every attempt.
func (c *Client) UploadChunk(
	ctx context.Context, session *UploadSession, name string, content io.ReaderAt, part ChunkPart,
) error {
	target, err := chunkURL(session.ChunkURI, part)
	if err != nil {
		return err
	}

	label := fmt.Sprintf("chunk %d", part.Index)

	c.logger.Debug("uploading chunk",
		slog.Int("index", part.Index),
		slog.Int64("offset", part.Offset),
		slog.Int64("length", part.Length),
	)

	if session.Raw {
		_, err = c.postContent(ctx, target, label, retryIdempotent, octetStream,
			func() io.Reader { return io.NewSectionReader(content, part.Offset, part.Length) }, part.Length)

		return err
	}

	form, err := newMultipartForm(threadedFileField, name, part.Length, true)
	if err != nil {
		return err
	}

	_, err = c.postContent(ctx, target, label, retryIdempotent, form.contentType,
		func() io.Reader { return form.reader(content, part.Offset, part.Length) }, form.size(part.Length))

	return err
}

// FinishUpload calls the finish URI, which assembles the uploaded chunks.
func (c *Client) FinishUpload(ctx context.Context, session *UploadSession, name string) (*UploadResult, error) {
	if session.FinishURI == "" {
		return nil, ErrNoFinishURI
	}

	target, err := appendQuery(session.FinishURI, "fmt", "json")
	if err != nil {
		return nil, err
	}

	resp, err := c.doRetry(ctx, http.MethodGet, "finish upload", retryIdempotent, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sharefile: reading finish response: %w", err)
	}

	return c.uploadResult(body, name)
}

// postContent POSTs a body produced by open to a pre-built upload URI and
// returns the response body. open is called once per attempt. Chunk posts
// are idempotent (the server keys them by index and offset); whole-file
// posts are not.
func (c *Client) postContent(
	ctx context.Context, target, label string, policy retryPolicy, contentType string,
	open func() io.Reader, length int64,
) ([]byte, error) {
	resp, err := c.doRetry(ctx, http.MethodPost, label, policy, func() (*http.Request, error) {
		var body io.Reader = http.NoBody
		if length > 0 {
			body = open()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, body)
		if err != nil {
			return nil, err
		}

		req.ContentLength = length
		req.Header.Set("Content-Type", contentType)

		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sharefile: reading %s response: %w", label, err)
	}

	return data, nil
}

// uploadResult interprets an upload response body. Plain-text bodies (the
// default for standard uploads) carry no file details; JSON bodies may
// report a rejection.
func (c *Client) uploadResult(body []byte, name string) (*UploadResult, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		c.logger.Info("upload complete", slog.String("name", name))

		return &UploadResult{FileName: name}, nil
	}

	var ur uploadResponse
	if err := json.Unmarshal(trimmed, &ur); err != nil {
		return nil, fmt.Errorf("sharefile: decoding upload response: %w", err)
	}

	if ur.Error {
		return nil, fmt.Errorf("%w: %s (code %d)", ErrUploadRejected, ur.ErrorMessage, ur.ErrorCode)
	}

	result := &UploadResult{FileName: name}

	if len(ur.Value) > 0 {
		f := ur.Value[0]
		result.ID = itemid.New(f.ID)
		result.Size = f.Size
		result.MD5 = f.MD5

		if f.FileName != "" {
			result.FileName = f.FileName
		}
	}

	c.logger.Info("upload complete",
		slog.String("name", result.FileName),
		slog.String("item_id", result.ID.String()),
	)

	return result, nil
}

// chunkURL appends the part's index, byte offset and hash to the chunk URI.
func chunkURL(chunkURI string, part ChunkPart) (string, error) {
	return appendQuery(chunkURI,
		"index", strconv.Itoa(part.Index),
		"byteOffset", strconv.FormatInt(part.Offset, 10),
		"hash", part.Hash,
	)
}

// appendQuery adds key/value pairs to the end of a server-issued URI. The
// existing query is kept byte for byte, since upload URIs may be signed.
func appendQuery(rawURL string, kv ...string) (string, error) {
	if _, err := url.Parse(rawURL); err != nil {
		return "", fmt.Errorf("sharefile: parsing upload URI: %w", err)
	}

	var b strings.Builder

	b.WriteString(rawURL)

	switch {
	case !strings.Contains(rawURL, "?"):
		b.WriteByte('?')
	case !strings.HasSuffix(rawURL, "?") && !strings.HasSuffix(rawURL, "&"):
		b.WriteByte('&')
	}

	for i := 0; i+1 < len(kv); i += 2 {
		if i > 0 {
			b.WriteByte('&')
		}

		b.WriteString(url.QueryEscape(kv[i]))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(kv[i+1]))
	}

	return b.String(), nil
}

// multipartForm is a single-file multipart envelope whose file content is
// supplied separately, so the same envelope can wrap any byte range and be
// rebuilt for every retry.
type multipartForm struct {
	head        []byte
	tail        []byte
	contentType string
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func newMultipartForm(field, fileName string, length int64, partLength bool) (*multipartForm, error) {
	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	if err := mw.SetBoundary("----------" + strings.ReplaceAll(uuid.NewString(), "-", "")); err != nil {
		return nil, fmt.Errorf("sharefile: multipart boundary: %w", err)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(field), quoteEscaper.Replace(fileName)))
	h.Set("Content-Type", octetStream)

	if partLength {
		h.Set("Content-Length", strconv.FormatInt(length, 10))
	}

	if _, err := mw.CreatePart(h); err != nil {
		return nil, fmt.Errorf("sharefile: multipart header: %w", err)
	}

	head := bytes.Clone(buf.Bytes())
	buf.Reset()

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("sharefile: multipart trailer: %w", err)
	}

	return &multipartForm{
		head:        head,
		tail:        bytes.Clone(buf.Bytes()),
		contentType: mw.FormDataContentType(),
	}, nil
}

func (f *multipartForm) reader(content io.ReaderAt, off, n int64) io.Reader {
	return io.MultiReader(bytes.NewReader(f.head), io.NewSectionReader(content, off, n), bytes.NewReader(f.tail))
}

func (f *multipartForm) size(n int64) int64 {
	return int64(len(f.head)+len(f.tail)) + n
}

package sharefile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sharefile-samples/sharefile-go/internal/itemid"
)

// ErrNoChanges is returned by UpdateItem when the update carries no fields.
var ErrNoChanges = errors.New("sharefile: update has no changes")

// localTimestamp is the zone-less layout some endpoints use for CreationDate.
const localTimestamp = "2006-01-02T15:04:05.999999999"

// itemResponse mirrors the ShareFile Item JSON. Every field is optional
// because $select can trim any of them. Unexported; callers use Item via
// toItem() normalization.
type itemResponse struct {
	ODataType     string         `json:"odata.type"`
	ID            string         `json:"Id"`
	Name          string         `json:"Name"`
	FileName      string         `json:"FileName"`
	Description   string         `json:"Description"`
	CreationDate  string         `json:"CreationDate"`
	FileSizeBytes *int64         `json:"FileSizeBytes"`
	Hash          string         `json:"Hash"`
	Parent        *parentRef     `json:"Parent"`
	Children      []itemResponse `json:"Children"`
}

type parentRef struct {
	ID string `json:"Id"`
}

type folderRequest struct {
	Name        string `json:"Name"`
	Description string `json:"Description"`
}

type updateRequest struct {
	Name        string `json:"Name,omitempty"`
	Description string `json:"Description,omitempty"`
}

// toItem normalizes an API item into our Item type.
func (r *itemResponse) toItem(logger *slog.Logger) Item {
	item := Item{
		ID:          itemid.New(r.ID),
		Name:        r.Name,
		FileName:    r.FileName,
		Description: r.Description,
		Hash:        strings.ToLower(r.Hash),
		CreatedAt:   parseTimestamp(r.CreationDate, r.ID, logger),
	}

	if r.FileSizeBytes != nil {
		item.Size = *r.FileSizeBytes
	}

	if r.Parent != nil {
		item.ParentID = itemid.New(r.Parent.ID)
	}

	// odata.type is dropped by some $select projections; fall back to the id prefix.
	if r.ODataType != "" {
		item.IsFolder = strings.HasSuffix(r.ODataType, ".Models.Folder")
	} else {
		item.IsFolder = item.ID.Kind() == itemid.KindFolder
	}

	if r.Children != nil {
		item.Children = make([]Item, 0, len(r.Children))
		for i := range r.Children {
			item.Children = append(item.Children, r.Children[i].toItem(logger))
		}
	}

	return item
}

// parseTimestamp parses CreationDate. Absent values yield the zero time;
// unparseable values yield the zero time and a warning.
func parseTimestamp(raw, itemID string, logger *slog.Logger) time.Time {
	if raw == "" {
		return time.Time{}
	}

	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t
	}

	t, err := time.Parse(localTimestamp, raw)
	if err != nil {
		logger.Warn("invalid timestamp, leaving unset",
			slog.String("field", "CreationDate"),
			slog.String("item_id", itemID),
			slog.String("raw", raw),
			slog.String("error", err.Error()),
		)

		return time.Time{}
	}

	return t.UTC()
}

// fetchItem fetches a single item from the given API path and decodes it.
func (c *Client) fetchItem(ctx context.Context, apiPath string) (*Item, error) {
	var ir itemResponse
	if err := c.doJSON(ctx, http.MethodGet, apiPath, nil, &ir); err != nil {
		return nil, err
	}

	item := ir.toItem(c.logger)

	return &item, nil
}

// GetRoot fetches the caller's root item, optionally with its children.
func (c *Client) GetRoot(ctx context.Context, withChildren bool) (*Item, error) {
	c.logger.Debug("getting root", slog.Bool("children", withChildren))

	path := "/Items"
	if withChildren {
		path += "?$expand=Children"
	}

	return c.fetchItem(ctx, path)
}

// GetItem fetches a single item by id.
func (c *Client) GetItem(ctx context.Context, id itemid.ID) (*Item, error) {
	c.logger.Debug("getting item", slog.String("item_id", id.String()))

	return c.fetchItem(ctx, "/"+id.PathSegment())
}

// GetItemWithQuery fetches an item with OData $expand/$select applied.
func (c *Client) GetItemWithQuery(ctx context.Context, id itemid.ID, q Query) (*Item, error) {
	qs, err := q.Encode()
	if err != nil {
		return nil, err
	}

	c.logger.Debug("getting item with query",
		slog.String("item_id", id.String()),
		slog.String("query", qs),
	)

	path := "/" + id.PathSegment()
	if qs != "" {
		path += "?" + qs
	}

	return c.fetchItem(ctx, path)
}

// GetFolderWithQuery fetches a folder with its children's id, name and
// creation date.
func (c *Client) GetFolderWithQuery(ctx context.Context, id itemid.ID) (*Item, error) {
	return c.GetItemWithQuery(ctx, id, FolderQuery)
}

// CreateFolder creates a folder under parentID and returns it.
func (c *Client) CreateFolder(ctx context.Context, parentID itemid.ID, name, description string) (*Item, error) {
	if name == "" {
		return nil, fmt.Errorf("sharefile: folder name is empty")
	}

	c.logger.Info("creating folder",
		slog.String("parent_id", parentID.String()),
		slog.String("name", name),
	)

	var ir itemResponse
	path := "/" + parentID.PathSegment() + "/Folder"

	if err := c.doJSON(ctx, http.MethodPost, path, folderRequest{Name: name, Description: description}, &ir); err != nil {
		return nil, err
	}

	item := ir.toItem(c.logger)

	return &item, nil
}

// UpdateItem changes an item's name and/or description.
func (c *Client) UpdateItem(ctx context.Context, id itemid.ID, upd ItemUpdate) (*Item, error) {
	if upd.Name == "" && upd.Description == "" {
		return nil, ErrNoChanges
	}

	c.logger.Info("updating item",
		slog.String("item_id", id.String()),
		slog.String("name", upd.Name),
	)

	var ir itemResponse
	req := updateRequest{Name: upd.Name, Description: upd.Description}

	if err := c.doJSON(ctx, http.MethodPatch, "/"+id.PathSegment(), req, &ir); err != nil {
		return nil, err
	}

	item := ir.toItem(c.logger)

	return &item, nil
}

// DeleteItem deletes an item. Only 204 No Content counts as success.
func (c *Client) DeleteItem(ctx context.Context, id itemid.ID) error {
	c.logger.Info("deleting item", slog.String("item_id", id.String()))

	resp, err := c.Do(ctx, http.MethodDelete, "/"+id.PathSegment(), nil)
	if err != nil {
		return err
	}

	// Drain and close to reuse connection.
	defer resp.Body.Close()

	if _, copyErr := io.Copy(io.Discard, resp.Body); copyErr != nil {
		return fmt.Errorf("sharefile: draining delete response body: %w", copyErr)
	}

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: DELETE %s returned %d", ErrUnexpectedStatus, id.PathSegment(), resp.StatusCode)
	}

	return nil
}

package main

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sharefile-samples/sharefile-go/internal/sharefile"
)

// sizeUnits are the binary multiples formatSize steps through.
var sizeUnits = []string{"KB", "MB", "GB", "TB"}

// formatSize renders a byte count with one decimal in the largest unit
// that keeps the value at or above 1 (e.g. "1.5 KB").
func formatSize(n int64) string {
	if n < 1024 { //nolint:mnd // one KiB
		return fmt.Sprintf("%d B", n)
	}

	v := float64(n) / 1024 //nolint:mnd // one KiB
	unit := 0

	for v >= 1024 && unit < len(sizeUnits)-1 {
		v /= 1024
		unit++
	}

	return fmt.Sprintf("%.1f %s", v, sizeUnits[unit])
}

// formatTime renders t like ls -l does: time of day within the current
// year, the year otherwise. The zero time prints as "-".
func formatTime(t time.Time) string {
	switch {
	case t.IsZero():
		return "-"
	case t.Year() == time.Now().Year():
		return t.Format("Jan _2 15:04")
	default:
		return t.Format("Jan _2  2006")
	}
}

// printTable writes headers and rows as space-aligned columns.
func printTable(w io.Writer, headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0) //nolint:mnd // two-space gutter

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// itemJSON is the JSON output schema for a single item.
type itemJSON struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	FileName    string     `json:"file_name,omitempty"`
	Description string     `json:"description,omitempty"`
	ParentID    string     `json:"parent_id,omitempty"`
	Size        int64      `json:"size"`
	IsFolder    bool       `json:"is_folder"`
	Hash        string     `json:"md5,omitempty"`
	CreatedAt   string     `json:"created_at,omitempty"`
	Children    []itemJSON `json:"children,omitempty"`
}

func toItemJSON(item *sharefile.Item) itemJSON {
	out := itemJSON{
		ID:          item.ID.String(),
		Name:        item.Name,
		FileName:    item.FileName,
		Description: item.Description,
		ParentID:    item.ParentID.String(),
		Size:        item.Size,
		IsFolder:    item.IsFolder,
		Hash:        item.Hash,
	}

	if !item.CreatedAt.IsZero() {
		out.CreatedAt = item.CreatedAt.UTC().Format(time.RFC3339)
	}

	for i := range item.Children {
		out.Children = append(out.Children, toItemJSON(&item.Children[i]))
	}

	return out
}

// printItemsTable prints items folders-first, then by name.
func printItemsTable(w io.Writer, items []sharefile.Item) {
	sorted := slices.Clone(items)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].IsFolder != sorted[j].IsFolder {
			return sorted[i].IsFolder
		}

		return sorted[i].Name < sorted[j].Name
	})

	headers := []string{"NAME", "SIZE", "CREATED", "ID"}
	rows := make([][]string, 0, len(sorted))

	for i := range sorted {
		name := sorted[i].Name
		size := formatSize(sorted[i].Size)

		if sorted[i].IsFolder {
			name += "/"
			size = "-"
		}

		rows = append(rows, []string{name, size, formatTime(sorted[i].CreatedAt), sorted[i].ID.String()})
	}

	printTable(w, headers, rows)
}

// printItemText prints the metadata of a single item.
func printItemText(w io.Writer, item *sharefile.Item) {
	kind := "file"
	if item.IsFolder {
		kind = "folder"
	}

	fmt.Fprintf(w, "Name:        %s\n", item.Name)
	fmt.Fprintf(w, "ID:          %s\n", item.ID)
	fmt.Fprintf(w, "Type:        %s\n", kind)

	if item.FileName != "" && item.FileName != item.Name {
		fmt.Fprintf(w, "File name:   %s\n", item.FileName)
	}

	if !item.IsFolder {
		fmt.Fprintf(w, "Size:        %s (%d bytes)\n", formatSize(item.Size), item.Size)
	}

	if item.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", item.Description)
	}

	if !item.ParentID.IsZero() {
		fmt.Fprintf(w, "Parent:      %s\n", item.ParentID)
	}

	if item.Hash != "" {
		fmt.Fprintf(w, "MD5:         %s\n", item.Hash)
	}

	fmt.Fprintf(w, "Created:     %s\n", formatTime(item.CreatedAt))
}

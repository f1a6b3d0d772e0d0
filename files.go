package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sharefile-samples/sharefile-go/internal/config"
	"github.com/sharefile-samples/sharefile-go/internal/itemid"
	"github.com/sharefile-samples/sharefile-go/internal/sharefile"
	"github.com/sharefile-samples/sharefile-go/internal/transfer"
)

func newLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls [folder-id]",
		Short: "List a folder's children (the home folder by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLs,
	}
}

func newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat <item-id>",
		Short: "Display file or folder metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  runStat,
	}
}

func newFolderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder <folder-id>",
		Short: "Fetch a folder with OData $expand/$select parameters",
		Long: `Fetch a folder and its children. Without --expand or --select the folder is
requested with Children expanded and only Id, Name and CreationDate selected.`,
		Args: cobra.ExactArgs(1),
		RunE: runFolder,
	}

	cmd.Flags().StringSlice("expand", nil, "navigation properties to expand (e.g., Children,Parent)")
	cmd.Flags().StringSlice("select", nil, "properties to select (e.g., Id,Name,Children/Name)")

	return cmd
}

func newMkdirCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mkdir <parent-id> <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(2), //nolint:mnd // parent and name
		RunE:  runMkdir,
	}

	cmd.Flags().String("description", "", "folder description")

	return cmd
}

func newUpdateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <item-id>",
		Short: "Rename an item or change its description",
		Args:  cobra.ExactArgs(1),
		RunE:  runUpdate,
	}

	cmd.Flags().String("name", "", "new name")
	cmd.Flags().String("description", "", "new description")

	return cmd
}

func newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <item-id>",
		Short: "Delete a file or folder",
		Args:  cobra.ExactArgs(1),
		RunE:  runRm,
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <item-id> [local-path]",
		Short: "Download a file",
		Args:  cobra.RangeArgs(1, 2), //nolint:mnd // id and optional target
		RunE:  runGet,
	}
}

func newPutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put <local-path> <folder-id>",
		Short: "Upload a file into a folder",
		Long: `Upload a file into a folder using one of the upload methods:

  standard            single multipart POST
  raw                 single raw POST of the file body
  threaded            raw chunks posted in parallel, then finished
  threaded_multipart  multipart chunks posted in parallel, then finished

A chunk size of 0 splits the file into two halves.`,
		Args: cobra.ExactArgs(2), //nolint:mnd // source and folder
		RunE: runPut,
	}

	cmd.Flags().String(flagNameMethod, "", "upload method: "+strings.Join(config.UploadMethods, ", "))
	cmd.Flags().String(flagNameChunkSize, "", "chunk size for threaded methods (e.g., 4MiB; 0 = two halves)")
	cmd.Flags().Int(flagNameThreads, 0, "concurrent chunk uploads for threaded methods")
	cmd.Flags().String("name", "", "remote file name (defaults to the local base name)")

	return cmd
}

// parseItemID parses a command-line item id argument.
func parseItemID(arg string) (itemid.ID, error) {
	id, err := itemid.Parse(arg)
	if err != nil {
		return itemid.ID{}, fmt.Errorf("invalid item id %q: %w", arg, err)
	}

	return id, nil
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	sess, err := newSession(ctx)
	if err != nil {
		return err
	}

	var folder *sharefile.Item

	if len(args) == 0 {
		sess.Logger.Debug("ls", "folder", "root")

		folder, err = sess.Client.GetRoot(ctx, true)
	} else {
		id, parseErr := parseItemID(args[0])
		if parseErr != nil {
			return parseErr
		}

		sess.Logger.Debug("ls", "folder", id.String())

		folder, err = sess.Client.GetItemWithQuery(ctx, id, sharefile.Query{Expand: []string{"Children"}})
	}

	if err != nil {
		return fmt.Errorf("listing folder: %w", err)
	}

	return printFolder(cmd.OutOrStdout(), folder)
}

func runFolder(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := parseItemID(args[0])
	if err != nil {
		return err
	}

	expand, err := cmd.Flags().GetStringSlice("expand")
	if err != nil {
		return err
	}

	sel, err := cmd.Flags().GetStringSlice("select")
	if err != nil {
		return err
	}

	sess, err := newSession(ctx)
	if err != nil {
		return err
	}

	var folder *sharefile.Item

	if len(expand) == 0 && len(sel) == 0 {
		folder, err = sess.Client.GetFolderWithQuery(ctx, id)
	} else {
		folder, err = sess.Client.GetItemWithQuery(ctx, id, sharefile.Query{Expand: expand, Select: sel})
	}

	if err != nil {
		return fmt.Errorf("fetching folder %s: %w", id, err)
	}

	return printFolder(cmd.OutOrStdout(), folder)
}

// printFolder prints a folder and its children in the selected format.
func printFolder(w io.Writer, folder *sharefile.Item) error {
	if flagJSON {
		return printJSON(w, toItemJSON(folder))
	}

	fmt.Fprintf(w, "%s (%s)\n", folder.Name, folder.ID)

	if len(folder.Children) == 0 {
		fmt.Fprintln(w, "(empty)")

		return nil
	}

	printItemsTable(w, folder.Children)

	return nil
}

func runStat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := parseItemID(args[0])
	if err != nil {
		return err
	}

	sess, err := newSession(ctx)
	if err != nil {
		return err
	}

	item, err := sess.Client.GetItem(ctx, id)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", id, err)
	}

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), toItemJSON(item))
	}

	printItemText(cmd.OutOrStdout(), item)

	return nil
}

func runMkdir(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	parentID, err := parseItemID(args[0])
	if err != nil {
		return err
	}

	description, err := cmd.Flags().GetString("description")
	if err != nil {
		return err
	}

	sess, err := newSession(ctx)
	if err != nil {
		return err
	}

	item, err := sess.Client.CreateFolder(ctx, parentID, args[1], description)
	if err != nil {
		return fmt.Errorf("creating folder %q: %w", args[1], err)
	}

	sess.Logger.Debug("mkdir complete", "item_id", item.ID.String())

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), toItemJSON(item))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created folder %s (%s)\n", item.Name, item.ID)

	return nil
}

func runUpdate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := parseItemID(args[0])
	if err != nil {
		return err
	}

	var upd sharefile.ItemUpdate

	if cmd.Flags().Changed("name") {
		if upd.Name, err = cmd.Flags().GetString("name"); err != nil {
			return err
		}
	}

	if cmd.Flags().Changed("description") {
		if upd.Description, err = cmd.Flags().GetString("description"); err != nil {
			return err
		}
	}

	if upd.Name == "" && upd.Description == "" {
		return fmt.Errorf("nothing to update: pass --name or --description")
	}

	sess, err := newSession(ctx)
	if err != nil {
		return err
	}

	item, err := sess.Client.UpdateItem(ctx, id, upd)
	if err != nil {
		return fmt.Errorf("updating %s: %w", id, err)
	}

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), toItemJSON(item))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Updated %s (%s)\n", item.Name, item.ID)

	return nil
}

func runRm(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := parseItemID(args[0])
	if err != nil {
		return err
	}

	sess, err := newSession(ctx)
	if err != nil {
		return err
	}

	if err := sess.Client.DeleteItem(ctx, id); err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}

	statusf("Deleted %s\n", id)

	return nil
}

func runGet(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	id, err := parseItemID(args[0])
	if err != nil {
		return err
	}

	sess, err := newSession(ctx)
	if err != nil {
		return err
	}

	item, err := sess.Client.GetItem(ctx, id)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", id, err)
	}

	if item.IsFolder {
		return fmt.Errorf("%s is a folder, not a file", id)
	}

	var localPath string

	if len(args) > 1 {
		localPath = args[1]
	} else if localPath, err = localName(item); err != nil {
		return fmt.Errorf("%s: %w; pass a local path", id, err)
	}

	result, err := sess.Files.DownloadToFile(ctx, id, localPath, transfer.DownloadOpts{
		ExpectedHash: item.Hash,
		ExpectedSize: item.Size,
	})
	if err != nil {
		if errors.Is(err, transfer.ErrHashMismatch) {
			return fmt.Errorf("downloaded content of %s does not match its MD5 (discarded, try again): %w", id, err)
		}

		return err
	}

	statusf("Downloaded %s (%s)\n", localPath, formatSize(result.Size))

	return nil
}

// localName picks a file name in the working directory for a downloaded
// item. Only the last element of the server-supplied name is used.
func localName(item *sharefile.Item) (string, error) {
	name := item.FileName
	if name == "" {
		name = item.Name
	}

	if name == "" {
		return "", fmt.Errorf("item has no name")
	}

	base := filepath.Base(filepath.FromSlash(name))

	switch base {
	case ".", "..", string(filepath.Separator):
		return "", fmt.Errorf("no usable file name in %q", name)
	}

	return base, nil
}

// uploadJSON is the JSON output schema for `put --json`.
type uploadJSON struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`
	MD5    string `json:"md5,omitempty"`
	Method string `json:"method"`
}

func runPut(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	localPath := args[0]

	folderID, err := parseItemID(args[1])
	if err != nil {
		return err
	}

	name, err := cmd.Flags().GetString("name")
	if err != nil {
		return err
	}

	strategy, err := sharefile.ParseStrategy(resolvedCfg.Transfers.UploadMethod)
	if err != nil {
		return err
	}

	sess, err := newSession(ctx)
	if err != nil {
		return err
	}

	sess.Logger.Debug("put",
		"local_path", localPath,
		"folder_id", folderID.String(),
		"method", string(strategy),
	)

	result, err := sess.Files.UploadFile(ctx, folderID, localPath, transfer.UploadOpts{
		Name:        name,
		Strategy:    strategy,
		ChunkSize:   resolvedCfg.ChunkSizeBytes,
		ThreadCount: resolvedCfg.Transfers.ThreadCount,
		Overwrite:   resolvedCfg.Transfers.Overwrite,
	})
	if err != nil {
		return err
	}

	md5 := result.LocalHash
	if result.Remote.MD5 != "" {
		md5 = result.Remote.MD5
	}

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), uploadJSON{
			ID:     result.Remote.ID.String(),
			Name:   result.Name,
			Size:   result.Size,
			MD5:    md5,
			Method: string(strategy),
		})
	}

	statusf("Uploaded %s as %s (%s)\n", filepath.Base(localPath), result.Name, formatSize(result.Size))

	return nil
}

package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alecgard/socialsync/internal/social"
)

var (
	fileURL    string
	fileType   string
	fileRename string
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage the media library",
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded files",
	RunE:  withApp(runFilesList),
}

var filesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one file record",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runFilesGet),
}

var filesAddCmd = &cobra.Command{
	Use:   "add <path>",
	Short: "Register a local file in the media library",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runFilesAdd),
}

var filesRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a file record",
	Args:  cobra.ExactArgs(2),
	RunE:  withApp(runFilesRename),
}

var filesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a file record",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runFilesDelete),
}

func init() {
	filesAddCmd.Flags().StringVar(&fileURL, "url", "", "public URL of the uploaded file")
	filesAddCmd.Flags().StringVar(&fileType, "type", "", "MIME type (default: guessed from the extension)")
	filesAddCmd.Flags().StringVar(&fileRename, "name", "", "display name (default: the base name)")

	filesCmd.AddCommand(filesListCmd, filesGetCmd, filesAddCmd, filesRenameCmd, filesDeleteCmd)
	rootCmd.AddCommand(filesCmd)
}

func runFilesList(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	files, err := a.svc.Files(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSIZE\tUPLOADED")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", f.ID, f.Name, f.Type, f.Size, f.UploadedAt)
	}
	return tw.Flush()
}

func runFilesGet(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	f, err := a.svc.File(ctx, social.ID(args[0]))
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), f)
}

// fileRecord describes the file at path without reading its contents.
func fileRecord(path, name, typ, url string) (social.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return social.File{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		return social.File{}, fmt.Errorf("%s is a directory", path)
	}
	if name == "" {
		name = filepath.Base(path)
	}
	if typ == "" {
		typ = mime.TypeByExtension(filepath.Ext(path))
	}
	if typ == "" {
		typ = "application/octet-stream"
	}
	return social.File{Name: name, Type: typ, Size: info.Size(), URL: url}, nil
}

func runFilesAdd(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	rec, err := fileRecord(args[0], fileRename, fileType, fileURL)
	if err != nil {
		return err
	}
	f, err := a.svc.CreateFile(ctx, rec)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), f)
}

func runFilesRename(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	id := social.ID(args[0])
	cur, err := a.svc.File(ctx, id)
	if err != nil {
		return err
	}
	cur.Name = args[1]
	f, err := a.svc.UpdateFile(ctx, id, *cur)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), f)
}

func runFilesDelete(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	if err := a.svc.DeleteFile(ctx, social.ID(args[0])); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted file %s\n", args[0])
	return nil
}

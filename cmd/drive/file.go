package main

import (
	"fmt"
	"io"
	"os"

	"drive-go/internal/app"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func formatSize(n int64) string {
	return humanize.IBytes(uint64(n))
}

var fileCmd = &cobra.Command{
	Use:   "file",
	Short: "Manage files",
}

var filePutCmd = &cobra.Command{
	Use:   "put PATH|-",
	Short: "Upload a file or directory, or stdin with - and --name",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		folderID, err := optionalID(cmd, "folder")
		if err != nil {
			return err
		}
		name, _ := cmd.Flags().GetString("name")
		if args[0] == "-" && name == "" {
			return fmt.Errorf("--name is required when reading from stdin")
		}

		a, err := newApp(cmd.Context(), "file put", args)
		if err != nil {
			return err
		}
		defer a.Close()

		if args[0] == "-" {
			f, err := a.UploadStream(cmd.Context(), owner, folderID, name, os.Stdin)
			if err != nil {
				return err
			}
			fmt.Printf("Uploaded %s (%d, %s)\n", f.Name, f.ID, formatSize(f.Size))
			return nil
		}

		files, err := a.UploadPath(cmd.Context(), owner, folderID, args[0])
		for _, f := range files {
			fmt.Printf("Uploaded %s (%d, %s)\n", f.Name, f.ID, formatSize(f.Size))
		}
		return err
	},
}

var fileVersionCmd = &cobra.Command{
	Use:   "version FILE_ID PATH",
	Short: "Upload new content for an existing file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := app.ParseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "file version", args)
		if err != nil {
			return err
		}
		defer a.Close()

		h, err := a.UploadVersion(cmd.Context(), id, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("Stored version %s (%s)\n", h.S3Key, formatSize(h.Size))
		return nil
	},
}

var fileGetCmd = &cobra.Command{
	Use:   "get FILE_ID",
	Short: "Download a file to stdout or --out",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := app.ParseID(args[0])
		if err != nil {
			return err
		}
		version, _ := cmd.Flags().GetString("version")
		out, _ := cmd.Flags().GetString("out")

		a, err := newApp(cmd.Context(), "file get", args)
		if err != nil {
			return err
		}
		defer a.Close()

		var passphrase string
		if a.EncryptionEnabled() {
			passphrase, err = readPassphrase("Passphrase: ")
			if err != nil {
				return err
			}
		}

		var w io.Writer = os.Stdout
		if out != "" {
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating %s: %w", out, err)
			}
			defer f.Close()
			w = f
		}

		return a.DownloadFile(cmd.Context(), id, version, w, passphrase)
	},
}

var fileLogCmd = &cobra.Command{
	Use:   "log FILE_ID",
	Short: "View file version history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := app.ParseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "file log", args)
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.GetFileHistory(cmd.Context(), id)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No versions.")
			return nil
		}

		for _, e := range entries {
			current := ""
			if e.IsCurrent {
				current = "  [current]"
			}
			fmt.Printf("%s  %s  %-9s  %s%s\n",
				e.Key,
				e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
				formatSize(e.Size),
				humanize.Time(e.CreatedAt),
				current,
			)
		}
		return nil
	},
}

var fileRmCmd = &cobra.Command{
	Use:   "rm FILE_ID",
	Short: "Delete a file and every stored version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := app.ParseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "file rm", args)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.DeleteFile(cmd.Context(), id)
	},
}

var fileMvCmd = &cobra.Command{
	Use:   "mv FILE_ID",
	Short: "Move a file into a folder, or to the top level with --root",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := app.ParseID(args[0])
		if err != nil {
			return err
		}
		folderID, err := optionalID(cmd, "folder")
		if err != nil {
			return err
		}
		toRoot, _ := cmd.Flags().GetBool("root")
		if (folderID == nil) == !toRoot {
			return fmt.Errorf("exactly one of --folder or --root is required")
		}

		a, err := newApp(cmd.Context(), "file mv", args)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.MoveFile(cmd.Context(), id, folderID)
	},
}

var fileRenameCmd = &cobra.Command{
	Use:   "rename FILE_ID NAME",
	Short: "Rename a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := app.ParseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "file rename", args)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.RenameFile(cmd.Context(), id, args[1])
	},
}

func init() {
	filePutCmd.Flags().StringP("folder", "f", "", "Target folder id (default: top level)")
	filePutCmd.Flags().String("name", "", "File name when reading from stdin")
	fileGetCmd.Flags().String("version", "", "Version key (default: current)")
	fileGetCmd.Flags().StringP("out", "o", "", "Write to this path instead of stdout")
	fileMvCmd.Flags().StringP("folder", "f", "", "Target folder id")
	fileMvCmd.Flags().Bool("root", false, "Move to the owner's top level")

	fileCmd.AddCommand(filePutCmd)
	fileCmd.AddCommand(fileVersionCmd)
	fileCmd.AddCommand(fileGetCmd)
	fileCmd.AddCommand(fileLogCmd)
	fileCmd.AddCommand(fileRmCmd)
	fileCmd.AddCommand(fileMvCmd)
	fileCmd.AddCommand(fileRenameCmd)
}

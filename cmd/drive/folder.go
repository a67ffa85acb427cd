package main

import (
	"fmt"
	"strings"

	"drive-go/internal/app"
	"drive-go/internal/drive"

	"github.com/spf13/cobra"
)

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Manage folders",
}

var folderCreateCmd = &cobra.Command{
	Use:   "create NAME",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parent, err := optionalID(cmd, "parent")
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "folder create", args)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.CreateFolder(cmd.Context(), args[0], parent, owner)
		if err != nil {
			return err
		}
		fmt.Printf("Created folder %d\n", id)
		return nil
	},
}

var folderMvCmd = &cobra.Command{
	Use:   "mv ID",
	Short: "Move a folder under another folder, or to the top level with --root",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := app.ParseID(args[0])
		if err != nil {
			return err
		}
		parent, err := optionalID(cmd, "parent")
		if err != nil {
			return err
		}
		toRoot, _ := cmd.Flags().GetBool("root")
		if (parent == nil) == !toRoot {
			return fmt.Errorf("exactly one of --parent or --root is required")
		}

		a, err := newApp(cmd.Context(), "folder mv", args)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.MoveFolder(cmd.Context(), id, parent)
	},
}

var folderRmCmd = &cobra.Command{
	Use:   "rm ID",
	Short: "Delete a folder and everything below it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := app.ParseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "folder rm", args)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.DeleteFolder(cmd.Context(), id)
	},
}

var folderRenameCmd = &cobra.Command{
	Use:   "rename ID NAME",
	Short: "Rename a folder",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := app.ParseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "folder rename", args)
		if err != nil {
			return err
		}
		defer a.Close()

		return a.RenameFolder(cmd.Context(), id, args[1])
	},
}

var folderAncestorsCmd = &cobra.Command{
	Use:   "ancestors ID",
	Short: "List a folder's ancestors, top level first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := app.ParseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "folder ancestors", args)
		if err != nil {
			return err
		}
		defer a.Close()

		ancestors, err := a.GetAncestors(cmd.Context(), id)
		if err != nil {
			return err
		}
		for _, row := range ancestors {
			fmt.Printf("%d\t%d\t%s\n", row.Depth, row.FolderID, row.Name)
		}
		return nil
	},
}

var folderTreeCmd = &cobra.Command{
	Use:   "tree ID",
	Short: "Print the subtree below a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := app.ParseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "folder tree", args)
		if err != nil {
			return err
		}
		defer a.Close()

		tree, err := a.GetTree(cmd.Context(), id, owner)
		if err != nil {
			return err
		}
		printTree(tree)
		return nil
	},
}

func printTree(root *drive.TreeNode) {
	root.Walk(func(n *drive.TreeNode) {
		indent := strings.Repeat("  ", int(n.Depth))
		fmt.Printf("%s%s/  (%d)\n", indent, n.Name, n.ID)
		for _, f := range n.Files {
			fmt.Printf("%s  %s  (%d)\n", indent, f.Name, f.ID)
		}
	})
}

var folderPathsCmd = &cobra.Command{
	Use:   "paths ID",
	Short: "Print the full path of every folder below a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := app.ParseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "folder paths", args)
		if err != nil {
			return err
		}
		defer a.Close()

		tree, err := a.GetTree(cmd.Context(), id, owner)
		if err != nil {
			return err
		}
		paths, err := a.GetPaths(cmd.Context(), id, owner)
		if err != nil {
			return err
		}
		tree.Walk(func(n *drive.TreeNode) {
			fmt.Printf("%d\t%s\n", n.ID, paths[n.ID])
		})
		return nil
	},
}

var folderLsCmd = &cobra.Command{
	Use:   "ls [ID]",
	Short: "List a folder, or the top level",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var folderID *int64
		if len(args) == 1 {
			id, err := app.ParseID(args[0])
			if err != nil {
				return err
			}
			folderID = &id
		}

		a, err := newApp(cmd.Context(), "folder ls", args)
		if err != nil {
			return err
		}
		defer a.Close()

		listing, err := a.List(cmd.Context(), owner, folderID)
		if err != nil {
			return err
		}
		if len(listing.Folders) == 0 && len(listing.Files) == 0 {
			fmt.Println("Empty.")
			return nil
		}
		for _, f := range listing.Folders {
			fmt.Printf("d  %6d  %s/\n", f.ID, f.Name)
		}
		for _, f := range listing.Files {
			fmt.Printf("-  %6d  %s  %s\n", f.ID, f.Name, formatSize(f.Size))
		}
		return nil
	},
}

// template command
var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Propagate folder templates",
}

var templateApplyCmd = &cobra.Command{
	Use:   "apply TEMPLATE_ID OWNER...",
	Short: "Copy a folder structure to the top level of each owner",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := app.ParseID(args[0])
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "template apply", args)
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.PropagateTemplate(cmd.Context(), id, args[1:])
		if res != nil {
			for _, root := range res.Roots {
				note := ""
				if root.Renamed {
					note = "  [renamed]"
				}
				fmt.Printf("%s\t%d\t%s%s\n", root.OwnerID, root.FolderID, root.Name, note)
			}
		}
		return err
	},
}

func init() {
	folderCreateCmd.Flags().StringP("parent", "p", "", "Parent folder id (default: top level)")
	folderMvCmd.Flags().StringP("parent", "p", "", "New parent folder id")
	folderMvCmd.Flags().Bool("root", false, "Move to the owner's top level")

	folderCmd.AddCommand(folderCreateCmd)
	folderCmd.AddCommand(folderMvCmd)
	folderCmd.AddCommand(folderRmCmd)
	folderCmd.AddCommand(folderRenameCmd)
	folderCmd.AddCommand(folderAncestorsCmd)
	folderCmd.AddCommand(folderTreeCmd)
	folderCmd.AddCommand(folderPathsCmd)
	folderCmd.AddCommand(folderLsCmd)

	templateCmd.AddCommand(templateApplyCmd)
}

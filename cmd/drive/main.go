package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"drive-go/internal/app"
	"drive-go/internal/config"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// owner is the account the folder and file commands act for.
var owner string

// newApp reads the config and creates a DriveApp. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "folder create").
func newApp(ctx context.Context, operation string, args []string) (*app.DriveApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewDriveApp(ctx, cfg, operation, strings.Join(args, " "))
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

// readPassphrase prompts on stderr and reads a passphrase without echo.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

// optionalID reads an id flag; unset means nil.
func optionalID(cmd *cobra.Command, name string) (*int64, error) {
	s, _ := cmd.Flags().GetString(name)
	if s == "" {
		return nil, nil
	}
	id, err := app.ParseID(s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

var rootCmd = &cobra.Command{
	Use:          "drive",
	Short:        "Hierarchical file storage",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration and storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		encrypt, _ := cmd.Flags().GetBool("encrypt")

		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		instanceID := uuid.New().String()
		cfg := config.NewConfig(instanceID, defaults["base_dir"])

		var passphrase string
		if encrypt {
			cfg.Encryption.Type = "age"
			passphrase, err = readPassphrase("New passphrase: ")
			if err != nil {
				return err
			}
			confirm, err := readPassphrase("Confirm passphrase: ")
			if err != nil {
				return err
			}
			if passphrase != confirm {
				return fmt.Errorf("passphrases do not match")
			}
		}

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}
		if err := app.Initialize(cmd.Context(), cfg, passphrase); err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Instance ID: %s\n", instanceID)
		fmt.Printf("Base Dir:    %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Instance ID:      %s\n", cfg.InstanceID)
		fmt.Printf("Base Dir:         %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:          %s\n", cfg.LogDir)
		fmt.Printf("Database:         %s\n", cfg.Database.Type)
		fmt.Printf("Blob Store:       %s\n", cfg.BlobStore.Type)
		fmt.Printf("Encryption:       %s\n", cfg.Encryption.Type)
		fmt.Printf("On Folder Delete: %s\n", cfg.Files.OnFolderDelete)
		return nil
	},
}

// fsck command
var fsckCmd = &cobra.Command{
	Use:   "fsck",
	Short: "Check the closure table against folder parent links",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "fsck", args)
		if err != nil {
			return err
		}
		defer a.Close()

		violations, err := a.Fsck(cmd.Context())
		if err != nil {
			return err
		}
		if len(violations) == 0 {
			fmt.Println("No problems found.")
			return nil
		}
		for _, v := range violations {
			fmt.Printf("folder %d: %s\n", v.FolderID, v.Problem)
		}
		return fmt.Errorf("%d problem(s) found", len(violations))
	},
}

// ops command
var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "View operation history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp(cmd.Context(), "ops", nil)
		if err != nil {
			return err
		}
		defer a.Close()

		ops, err := a.GetHistory(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(ops) == 0 {
			fmt.Println("No operations recorded.")
			return nil
		}

		for _, op := range ops {
			duration := ""
			if op.FinishedAt.Valid {
				duration = op.FinishedAt.Time.Sub(op.StartedAt).String()
			}
			fmt.Printf("#%d  %-15s  %s  %-8s  %-10s  %s\n",
				op.ID,
				op.Operation,
				op.StartedAt.Local().Format("2006-01-02 15:04:05"),
				op.Status,
				duration,
				op.Parameters,
			)
		}
		return nil
	},
}

func init() {
	configInitCmd.Flags().Bool("encrypt", false, "Encrypt stored content with a passphrase-protected age key")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	rootCmd.PersistentFlags().StringVarP(&owner, "owner", "u", os.Getenv("DRIVE_OWNER"), "Owner to act for (default $DRIVE_OWNER)")

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(folderCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(fsckCmd)
	rootCmd.AddCommand(opsCmd)
	opsCmd.Flags().IntP("limit", "n", 50, "Maximum number of operations to show")
}

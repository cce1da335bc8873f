package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"snapkeep/internal/app"
	"snapkeep/internal/backup"
	"snapkeep/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config file and builds an App. The caller must defer
// a.Close().
func newApp() (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if cfg.LogDir == "" {
		cfg.LogDir = defaults["log_dir"]
	}

	a, err := app.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "snapkeep",
	Short: "Incremental, snapshot-based file backup",
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}

		hostID := uuid.New().String()
		cfg := config.NewConfig(hostID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("initializing config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Host ID: %s\n", hostID)
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("getting defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Host ID:     %s\n", cfg.HostID)
		fmt.Printf("Base Dir:    %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Source Dir:  %s\n", cfg.SourceDir)
		fmt.Printf("Backup Root: %s\n", cfg.BackupRoot)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backup",
	RunE: func(cmd *cobra.Command, args []string) error {
		source, _ := cmd.Flags().GetString("source")
		backupRoot, _ := cmd.Flags().GetString("backup")
		verbose, _ := cmd.Flags().GetBool("verbose")
		catalogueOverride, _ := cmd.Flags().GetString("catalogue")

		if source == "" || backupRoot == "" {
			return fmt.Errorf("both --source and --backup are required")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var report backup.ProgressReporter
		if verbose {
			report = func(stage backup.ProgressStage, processed, total int64, file string) {
				fmt.Printf("%s\t%s\n", stage, file)
			}
		}

		success, err := a.RunBackup(source, backupRoot, catalogueOverride, verbose, report)
		if err != nil {
			return fmt.Errorf("run failed: %w", err)
		}
		if !success {
			fmt.Fprintln(os.Stderr, "backup completed with errors")
			os.Exit(1)
		}

		fmt.Println("backup completed successfully")
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View backup run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		backupRoot, _ := cmd.Flags().GetString("backup")
		limit, _ := cmd.Flags().GetInt("limit")

		if backupRoot == "" {
			return fmt.Errorf("--backup is required")
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(backupRoot, limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No backup runs recorded.")
			return nil
		}

		for _, r := range runs {
			status := "running"
			if r.Success.Valid {
				if r.Success.Bool {
					status = "success"
				} else {
					status = "failed"
				}
			}
			fmt.Printf("#%d  %s  %-10s  %s\n", r.ID, r.StartedAt.Format("2006-01-02 15:04:05"), status, r.Source)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	rootCmd.AddCommand(configCmd)

	runCmd.Flags().StringP("source", "s", "", "Source path (required)")
	runCmd.Flags().StringP("backup", "b", "", "Backup root path (required)")
	runCmd.Flags().BoolP("verbose", "v", false, "Verbose progress output")
	runCmd.Flags().StringP("catalogue", "c", "", "Override catalogue location")
	rootCmd.AddCommand(runCmd)

	historyCmd.Flags().StringP("backup", "b", "", "Backup root path (required)")
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

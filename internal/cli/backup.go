package cli

import (
	"fmt"
	"sort"
	"strings"

	"momentum-cli/internal/store"

	"github.com/spf13/cobra"
)

func newBackupCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore the whole workspace as JSONL",
	}
	cmd.AddCommand(newBackupExportCmd(app))
	cmd.AddCommand(newBackupRestoreCmd(app))
	return cmd
}

func newBackupExportCmd(app *App) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every record to a JSONL file (or stdout with --to -)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			if strings.TrimSpace(to) == "-" {
				_, err := s.WriteBackup(cmd.Context(), cmd.OutOrStdout())
				if err != nil {
					return writeErr(cmd, app, err)
				}
				return nil
			}
			if strings.TrimSpace(to) == "" {
				return writeErr(cmd, app, usagef("--to is required (use - for stdout)"))
			}
			sum, err := s.WriteBackupFile(cmd.Context(), to)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, map[string]any{"path": to, "summary": sum}, func() string { return backupText("exported", sum) })
		},
	}
	cmd.Flags().StringVar(&to, "to", "", "Output file, or - for stdout")
	return cmd
}

func newBackupRestoreCmd(app *App) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "restore <file|->",
		Short: "Replace the workspace with the records of a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return writeErr(cmd, app, usagef("restore replaces all data; pass --yes to confirm"))
			}
			s, _, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			var sum store.BackupSummary
			if args[0] == "-" {
				sum, err = s.RestoreBackup(cmd.Context(), cmd.InOrStdin())
			} else {
				sum, err = s.RestoreBackupFile(cmd.Context(), args[0])
			}
			if err != nil {
				return writeErr(cmd, app, usagef("restore: %v", err))
			}
			return writeData(cmd, app, sum, func() string { return backupText("restored", sum) }, "momentum doctor")
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm replacing the workspace")
	return cmd
}

func backupText(verb string, sum store.BackupSummary) string {
	names := make([]string, 0, len(sum.Collections))
	for n := range sum.Collections {
		names = append(names, n)
	}
	sort.Strings(names)
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d records\n", verb, sum.Records)
	for _, n := range names {
		fmt.Fprintf(&b, "  %-12s %d\n", n, sum.Collections[n])
	}
	return b.String()
}

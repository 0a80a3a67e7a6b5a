package cli

import (
	"fmt"
	"strings"

	"momentum-cli/internal/store"

	"github.com/spf13/cobra"
)

func newDoctorCmd(app *App) *cobra.Command {
	var fail bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the workspace for dangling records and invalid definitions",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			report, err := s.Doctor(cmd.Context())
			if err != nil {
				return writeErr(cmd, app, err)
			}
			if err := writeData(cmd, app, report, func() string { return doctorText(report) }, "momentum progress", "momentum timeline"); err != nil {
				return err
			}
			if fail && report.HasErrors() {
				return store.ErrDoctorIssuesFound
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with non-zero status if errors are found")
	return cmd
}

func doctorText(r store.DoctorReport) string {
	if len(r.Issues) == 0 {
		return "No issues found."
	}
	var b strings.Builder
	for _, it := range r.Issues {
		fmt.Fprintf(&b, "%-5s %s: %s", it.Level, it.Code, it.Message)
		if it.EntityID != "" {
			fmt.Fprintf(&b, " (%s)", it.EntityID)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

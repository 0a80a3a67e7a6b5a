package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"momentum-cli/internal/mutate"

	"github.com/spf13/cobra"
)

func newDataCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Submit and edit form data for data-entry actions and steps",
	}
	cmd.AddCommand(newDataSubmitCmd(app))
	cmd.AddCommand(newDataUpdateCmd(app))
	cmd.AddCommand(newDataListCmd(app))
	return cmd
}

// formDataFlags merges --json (applied first) with --set pairs.
func formDataFlags(jsonData string, sets []string) (map[string]any, error) {
	out := map[string]any{}
	if strings.TrimSpace(jsonData) != "" {
		if err := json.Unmarshal([]byte(jsonData), &out); err != nil {
			return nil, usagef("--json: %v", err)
		}
	}
	kv, err := parseKeyValues(sets)
	if err != nil {
		return nil, err
	}
	for k, v := range kv {
		out[k] = v
	}
	return out, nil
}

func formDataText(data map[string]any) string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s: %v\n", k, data[k])
	}
	return b.String()
}

func newDataSubmitCmd(app *App) *cobra.Command {
	var (
		stepID   string
		jsonData string
		sets     []string
	)
	cmd := &cobra.Command{
		Use:   "submit <action-id>",
		Short: "Validate and store a form submission",
		Example: strings.TrimSpace(`
  momentum data submit act-... --set mood=calm --set hours=7.5
  momentum data submit act-... --step stp-... --json '{"kg": 80}'
`),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			data, err := formDataFlags(jsonData, sets)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			in := mutate.SubmitDataEntryInput{ActionDefinitionID: args[0], FormData: data}
			if strings.TrimSpace(stepID) != "" {
				in.StepID = &stepID
			}
			res, err := mutate.SubmitDataEntry(cmd.Context(), st, in)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, res, func() string {
				return fmt.Sprintf("saved %s (+%d pts, level %d)\n%s", res.Entry.ID, res.Entry.PointsAwarded, res.Progress.Level, formDataText(res.Entry.Data))
			})
		},
	}
	cmd.Flags().StringVar(&stepID, "step", "", "Data-entry step id (multi-step actions)")
	cmd.Flags().StringVar(&jsonData, "json", "", "Form data as a JSON object")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Field value as name=value (repeatable)")
	return cmd
}

func newDataUpdateCmd(app *App) *cobra.Command {
	var (
		jsonData string
		sets     []string
	)
	cmd := &cobra.Command{
		Use:   "update <entry-id>",
		Short: "Replace a stored submission's data (points are unchanged)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			data, err := formDataFlags(jsonData, sets)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			entry, err := mutate.UpdateDataEntry(cmd.Context(), st, args[0], data)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, entry, func() string {
				return fmt.Sprintf("updated %s\n%s", entry.ID, formDataText(entry.Data))
			})
		},
	}
	cmd.Flags().StringVar(&jsonData, "json", "", "Form data as a JSON object")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "Field value as name=value (repeatable)")
	return cmd
}

func newDataListCmd(app *App) *cobra.Command {
	var actionID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List submissions in the current space",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadStore(cmd, app)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			defer s.Close()

			sp, err := currentSpace(cmd, app, st)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			entries, err := mutate.ListDataEntries(cmd.Context(), st, sp.ID, actionID)
			if err != nil {
				return writeErr(cmd, app, err)
			}
			return writeData(cmd, app, entries, nil)
		},
	}
	cmd.Flags().StringVar(&actionID, "action", "", "Only submissions for this action id")
	return cmd
}

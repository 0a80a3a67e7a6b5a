package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"momentum-cli/internal/format"
	"momentum-cli/internal/model"
	"momentum-cli/internal/mutate"
	"momentum-cli/internal/render"
	"momentum-cli/internal/store"

	"github.com/spf13/cobra"
)

type App struct {
	Dir        string
	Workspace  string
	Space      string
	PrettyJSON bool
	Format     string
	LogLevel   string

	cfg    store.GlobalConfig
	logger *slog.Logger
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:           "momentum",
		Short:         "Momentum: local-first habit actions, checklists and progression",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Create a space and make it current
  momentum spaces create --name Home --use

  # Define a two-step checklist
  momentum actions create --name "Morning routine" --variant multi-step --points 20 \
    --step "Stretch:5" --step "Journal:5"

  # Log a step
  momentum log <action-id> --step <step-id>

  # What happened lately
  momentum timeline --format text

  # Direct action lookup (shortcut for: momentum actions show <action-id>)
  momentum act-1b9d...
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := store.LoadConfig()
		if err != nil {
			return writeErr(cmd, app, fmt.Errorf("load config: %w", err))
		}
		app.cfg = cfg.WithDefaults()
		if app.LogLevel == "" {
			app.LogLevel = app.cfg.Log.Level
		}
		app.logger = newLogger(cmd, app.LogLevel)
		if strings.EqualFold(strings.TrimSpace(app.Format), "text") {
			render.Setup()
		}
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.Dir, "dir", envOr("MOMENTUM_DIR", ""), "Path to store dir (advanced: overrides workspace resolution)")
	cmd.PersistentFlags().StringVar(&app.Workspace, "workspace", envOr("MOMENTUM_WORKSPACE", ""), "Workspace name (default: currentWorkspace from config, else 'default')")
	cmd.PersistentFlags().StringVar(&app.Space, "space", envOr("MOMENTUM_SPACE", ""), "Space id or name (default: currentSpace from config)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("MOMENTUM_FORMAT", "json"), "Output format (json|text)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", envOr("MOMENTUM_LOG_LEVEL", ""), "Log level for stderr diagnostics (debug|info|warn|error)")

	cmd.AddCommand(newInitCmd(app))
	cmd.AddCommand(newWorkspaceCmd(app))
	cmd.AddCommand(newSpacesCmd(app))
	cmd.AddCommand(newActionsCmd(app))
	cmd.AddCommand(newLogCmd(app))
	cmd.AddCommand(newDataCmd(app))
	cmd.AddCommand(newProgressCmd(app))
	cmd.AddCommand(newTimelineCmd(app))
	cmd.AddCommand(newTodosCmd(app))
	cmd.AddCommand(newProblemsCmd(app))
	cmd.AddCommand(newEventsCmd(app))
	cmd.AddCommand(newResetCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newDocsCmd(app))
	cmd.AddCommand(newPublishCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newBackupCmd(app))

	return cmd
}

func newLogger(cmd *cobra.Command, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: lvl}))
}

// resolveDir picks the store directory:
// 1) --dir / MOMENTUM_DIR
// 2) --workspace / MOMENTUM_WORKSPACE
// 3) currentWorkspace from config.yaml
// 4) the implicit "default" workspace
func resolveDir(app *App) (string, error) {
	if app.Dir != "" {
		return app.Dir, nil
	}
	switch {
	case app.Workspace != "":
	case app.cfg.CurrentWorkspace != "":
		app.Workspace = app.cfg.CurrentWorkspace
	default:
		app.Workspace = "default"
	}
	dir, err := store.WorkspaceDir(app.Workspace)
	if err != nil {
		return "", err
	}
	app.Dir = dir
	return dir, nil
}

func loadStore(cmd *cobra.Command, app *App) (*store.Store, mutate.Stores, error) {
	dir, err := resolveDir(app)
	if err != nil {
		return nil, mutate.Stores{}, err
	}
	s, err := store.Open(cmd.Context(), dir, app.logger)
	if err != nil {
		return nil, mutate.Stores{}, err
	}
	return s, mutate.FromStore(s, app.cfg.Progression.BaseUnit), nil
}

// currentSpace resolves --space, then currentSpace from config.
func currentSpace(cmd *cobra.Command, app *App, st mutate.Stores) (model.Space, error) {
	ref := strings.TrimSpace(app.Space)
	if ref == "" {
		ref = strings.TrimSpace(app.cfg.CurrentSpace)
	}
	if ref == "" {
		return model.Space{}, mutate.InvalidInputError{Reason: "no space selected; run `momentum spaces use <name>` or pass --space"}
	}
	return mutate.ResolveSpace(cmd.Context(), st, ref)
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	return format.Write(cmd.OutOrStdout(), v, app.Format, app.PrettyJSON)
}

// textView pairs an envelope with its terminal rendering.
type textView struct {
	envelope map[string]any
	text     func() string
}

func (v textView) Text() string                 { return strings.TrimRight(v.text(), "\n") }
func (v textView) MarshalJSON() ([]byte, error) { return marshalEnvelope(v.envelope) }

// writeData writes {"data": data} in JSON, or the given rendering in text mode.
func writeData(cmd *cobra.Command, app *App, data any, text func() string, hints ...string) error {
	env := map[string]any{"data": data}
	if len(hints) > 0 {
		env["_hints"] = hints
	}
	if text == nil {
		return writeOut(cmd, app, env)
	}
	return writeOut(cmd, app, textView{envelope: env, text: text})
}

func writeErr(cmd *cobra.Command, app *App, err error) error {
	code := errorCode(err)
	if app != nil && strings.EqualFold(strings.TrimSpace(app.Format), "text") {
		fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
		return err
	}
	_ = format.WriteJSON(cmd.ErrOrStderr(), map[string]any{
		"error": map[string]any{"code": code, "message": err.Error()},
	}, false)
	return err
}

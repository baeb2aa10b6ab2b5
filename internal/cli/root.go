package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"taskboard/internal/config"
	"taskboard/internal/format"
	"taskboard/internal/logging"
	"taskboard/internal/querycache"
	"taskboard/internal/taskapi"
	"taskboard/internal/tui"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type App struct {
	ConfigFile string
	APIURL     string
	Env        string
	LogLevel   string
	LogFile    string
	PrettyJSON bool
	Format     string

	cfg     *config.Config
	log     *log.Logger
	closers []io.Closer
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "taskboard",
		Short:        "Kanban task board (TUI + CLI)",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the interactive board
  taskboard

  # Scriptable commands
  taskboard tasks list --search fix
  taskboard tasks add --title "Write docs" --column review
  taskboard tasks move 3 done

  # Direct task lookup (shortcut for: taskboard tasks show <id>)
  taskboard 3

  # Local task server on http://localhost:3000/tasks
  taskboard serve
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			// No subcommand => interactive TUI.
			if cmd.HasSubCommands() && len(args) == 0 {
				return runTUI(cmd, app)
			}
			return cmd.Help()
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.init(cmd, cmd == cmd.Root())
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		app.close()
		return nil
	}

	cmd.PersistentFlags().StringVar(&app.ConfigFile, "config", envOr("TASKBOARD_CONFIG", ""), "Config file (default: $XDG_CONFIG_HOME/taskboard/config.yaml)")
	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", "", "Task collection URL; replaces endpoint selection (env TASKBOARD_API_URL)")
	cmd.PersistentFlags().StringVar(&app.Env, "env", "", "Environment: development|production (env TASKBOARD_ENVIRONMENT)")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	cmd.PersistentFlags().StringVar(&app.LogFile, "log-file", "", "Log file (the TUI always logs to a file)")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")
	cmd.PersistentFlags().StringVar(&app.Format, "format", envOr("TASKBOARD_FORMAT", "json"), "Output format (json|table)")

	cmd.AddCommand(newTasksCmd(app))
	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newDoctorCmd(app))
	cmd.AddCommand(newDocsCmd(app))

	return cmd
}

// init loads configuration and sets up logging. The TUI logs to a file so log lines
// never land on the screen; every other command logs to stderr.
func (app *App) init(cmd *cobra.Command, tuiMode bool) error {
	cfg, err := config.Load(app.ConfigFile, cmd.Flags())
	if err != nil {
		return writeErr(cmd, err)
	}
	app.cfg = cfg

	var out io.Writer = cmd.ErrOrStderr()
	path := cfg.Log.File
	if tuiMode && path == "" {
		path = logging.DefaultFilePath()
	}
	if path != "" {
		f, err := logging.OpenFile(path)
		if err != nil {
			if tuiMode {
				out = io.Discard
			}
		} else {
			app.closers = append(app.closers, f)
			out = f
		}
	}
	app.log = logging.Setup(cfg.Log, out)
	return nil
}

func (app *App) close() {
	for _, c := range app.closers {
		_ = c.Close()
	}
	app.closers = nil
}

// client builds the repository client for the configured endpoints.
func (app *App) client() (*taskapi.Client, error) {
	ep := app.cfg.Endpoints()
	return taskapi.New(taskapi.Options{
		Primary:  ep.Primary,
		Fallback: ep.Fallback,
		Timeout:  app.cfg.API.Timeout,
		Logger:   app.log,
	})
}

func runTUI(cmd *cobra.Command, app *App) error {
	c, err := app.client()
	if err != nil {
		return writeErr(cmd, err)
	}
	primary, _ := c.Endpoints()
	return tui.Run(tui.Options{
		Cache:   querycache.New(c, app.log),
		Config:  app.cfg,
		Logger:  app.log,
		Primary: primary,
	})
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

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}

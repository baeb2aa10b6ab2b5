package cli

import (
	"context"
	"errors"
	"strconv"
	"time"

	"taskboard/internal/taskapi"

	"github.com/spf13/cobra"
)

var errDoctorIssuesFound = errors.New("doctor: unreachable endpoints")

type endpointReport struct {
	Role      string `json:"role"`
	URL       string `json:"url"`
	OK        bool   `json:"ok"`
	Tasks     int    `json:"tasks,omitempty"`
	LatencyMs int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

type doctorOutput struct {
	Data  []endpointReport `json:"data"`
	Meta  map[string]any   `json:"meta"`
	Hints []string         `json:"_hints,omitempty"`
}

func (doctorOutput) Header() []string { return []string{"ROLE", "URL", "OK", "TASKS", "LATENCY", "ERROR"} }

func (o doctorOutput) Rows() [][]string {
	var rows [][]string
	for _, r := range o.Data {
		ok := "no"
		if r.OK {
			ok = "yes"
		}
		rows = append(rows, []string{r.Role, r.URL, ok, strconv.Itoa(r.Tasks), strconv.FormatInt(r.LatencyMs, 10) + "ms", cell(r.Error)})
	}
	return rows
}

func newDoctorCmd(app *App) *cobra.Command {
	var fail bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the primary and fallback task endpoints",
		RunE: func(cmd *cobra.Command, args []string) error {
			ep := app.cfg.Endpoints()

			out := doctorOutput{}
			out.Data = append(out.Data, checkEndpoint(cmd.Context(), app, "primary", ep.Primary))
			if ep.Fallback != "" {
				out.Data = append(out.Data, checkEndpoint(cmd.Context(), app, "fallback", ep.Fallback))
			}

			healthy := 0
			for _, r := range out.Data {
				if r.OK {
					healthy++
				}
			}
			out.Meta = map[string]any{
				"environment": app.cfg.Environment,
				"healthy":     healthy,
				"endpoints":   len(out.Data),
			}
			if len(out.Data) > 0 && !out.Data[0].OK {
				out.Hints = append(out.Hints, "taskboard serve")
			}

			if err := writeOut(cmd, app, out); err != nil {
				return err
			}
			if fail && healthy < len(out.Data) {
				return errDoctorIssuesFound
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fail, "fail", false, "Exit with non-zero status if an endpoint is unreachable")
	return cmd
}

// checkEndpoint lists tasks from one endpoint with no fallback.
func checkEndpoint(ctx context.Context, app *App, role, url string) endpointReport {
	r := endpointReport{Role: role, URL: url}
	c, err := taskapi.New(taskapi.Options{Primary: url, Timeout: app.cfg.API.Timeout, Logger: app.log})
	if err != nil {
		r.Error = err.Error()
		return r
	}
	start := time.Now()
	tasks, err := c.List(ctx)
	r.LatencyMs = time.Since(start).Milliseconds()
	if err != nil {
		r.Error = err.Error()
		return r
	}
	r.OK = true
	r.Tasks = len(tasks)
	return r
}

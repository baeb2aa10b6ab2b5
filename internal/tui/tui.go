// Package tui is the interactive Kanban board.
package tui

import (
	"errors"

	"taskboard/internal/config"
	"taskboard/internal/querycache"

	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
)

type Options struct {
	Cache  *querycache.Cache
	Config *config.Config
	Logger log.FieldLogger
	// Primary is the collection URL shown when the first load fails.
	Primary string
}

func Run(opts Options) error {
	if opts.Cache == nil {
		return errors.New("tui: no task cache")
	}
	if opts.Config == nil {
		opts.Config = config.Default()
	}

	applyColorProfilePreference()
	applyThemePreference()
	applyGlyphPreference(opts.Config.TUI.Glyphs)

	progOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Config.TUI.Mouse {
		progOpts = append(progOpts, tea.WithMouseCellMotion())
	}

	m := newAppModel(opts)
	m.log.WithField("primary", opts.Primary).Info("board started")
	_, err := tea.NewProgram(m, progOpts...).Run()
	return err
}

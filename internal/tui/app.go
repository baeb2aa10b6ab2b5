package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"taskboard/internal/board"
	"taskboard/internal/config"
	"taskboard/internal/dnd"
	"taskboard/internal/logging"
	"taskboard/internal/model"
	"taskboard/internal/querycache"
	"taskboard/internal/taskapi"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"
)

type appModel struct {
	cache   *querycache.Cache
	cfg     *config.Config
	log     log.FieldLogger
	primary string

	width  int
	height int

	// tasks is the last list delivered for the current generation. Read and write
	// pending flags and errors are read from the cache.
	tasks  []model.Task
	gen    uint64
	loaded bool

	spinner   spinner.Model
	search    textinput.Model
	searching bool

	pager    *board.Pager
	view     board.View
	focusCol int
	focusRow int

	nav  *dnd.ViewNavigator
	drag *dnd.Controller

	form    *taskForm
	confirm *deleteConfirm
	viewing *model.Task

	// bannerDismissed hides the update warning until the next update error.
	bannerDismissed bool
	minibufferText  string
	minibufferSeq   int
	flashFor        time.Duration
}

func newAppModel(opts Options) appModel {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)

	si := textinput.New()
	si.Prompt = "/ "
	si.Placeholder = "Search tasks..."
	si.CharLimit = 100

	nav := &dnd.ViewNavigator{}
	m := appModel{
		cache:   opts.Cache,
		cfg:     cfg,
		log:     logger.WithField("component", "tui"),
		primary: opts.Primary,
		width:   120,
		height:  40,
		spinner: sp,
		search:  si,
		pager:   board.NewPager(board.Options{PageSize: board.DefaultPageSize, AlwaysShowPagination: cfg.Board.AlwaysShowPagination}),
		nav:     nav,
		drag: dnd.NewController(
			dnd.NewPointerSensor(float64(cfg.TUI.DragThreshold)),
			dnd.NewKeyboardSensor(nav),
		),
		flashFor: 3 * time.Second,
	}
	m.rederive()
	return m
}

func (m appModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, fetchTasks(m.cache), tickRefresh(m.cfg.TUI.RefreshInterval))
}

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		// The spinner only runs on the loading screen.
		if m.loaded {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tasksLoadedMsg:
		return m.handleLoaded(msg)

	case taskSavedMsg:
		return m.handleSaved(msg)

	case taskDeletedMsg:
		return m.handleDeleted(msg)

	case clearMinibufferMsg:
		if msg.seq == m.minibufferSeq {
			m.minibufferText = ""
		}
		return m, nil

	case refreshTickMsg:
		m.cache.Invalidate()
		return m, tea.Batch(fetchTasks(m.cache), tickRefresh(m.cfg.TUI.RefreshInterval))

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m appModel) handleLoaded(msg tasksLoadedMsg) (tea.Model, tea.Cmd) {
	if cur := m.cache.Generation(); msg.gen < cur {
		m.log.WithFields(log.Fields{"gen": msg.gen, "current": cur}).Debug("discarding stale task list")
		return m, nil
	}
	if msg.err != nil {
		m.log.WithError(msg.err).Warn("load tasks")
		return m, nil
	}
	m.tasks = msg.tasks
	m.gen = msg.gen
	m.loaded = true
	if st := m.drag.State(); st.Phase == dnd.Dragging {
		if _, ok := model.FindTask(m.tasks, st.Active); !ok {
			m.drag.Cancel()
		}
	}
	m.rederive()
	return m, nil
}

func (m appModel) handleSaved(msg taskSavedMsg) (tea.Model, tea.Cmd) {
	var flash tea.Cmd
	switch {
	case msg.err == nil && msg.op == opCreate:
		m.form = nil
		flash = m.flash(fmt.Sprintf("Created %q", msg.task.Title))
	case msg.err == nil && msg.op == opUpdate:
		m.form = nil
		flash = m.flash(fmt.Sprintf("Saved %q", msg.task.Title))
	case msg.err == nil:
		flash = m.flash(fmt.Sprintf("Moved %q to %s", msg.task.Title, msg.task.Column.Title()))
	case msg.op == opCreate:
		// The form stays open and shows the cache's create error inline.
		m.log.WithError(msg.err).Warn("create task")
		if m.form != nil {
			m.form.submitted = false
			m.form.setFocus(fieldTitle)
		}
	default:
		// The banner text comes from the cache's update error; a new error re-arms it.
		m.log.WithError(msg.err).WithField("id", msg.task.ID.String()).Warn("update task")
		m.form = nil
		m.bannerDismissed = false
	}
	// The cache invalidated itself when the write settled, successful or not.
	return m, tea.Batch(fetchTasks(m.cache), flash)
}

func (m appModel) handleDeleted(msg taskDeletedMsg) (tea.Model, tea.Cmd) {
	var flash tea.Cmd
	if msg.err != nil {
		m.log.WithError(msg.err).WithField("id", msg.id.String()).Warn("delete task")
		flash = m.flash("Delete failed: " + msg.err.Error())
	} else {
		flash = m.flash("Task deleted")
	}
	return m, tea.Batch(fetchTasks(m.cache), flash)
}

// loadFailed reports a failed list read that is not being retried.
func (m appModel) loadFailed() bool {
	return m.cache.Err() != nil && !m.cache.Pending()
}

// bannerText is the update warning to show, if any.
func (m appModel) bannerText() (string, bool) {
	if m.bannerDismissed {
		return "", false
	}
	err := m.cache.Update.Err()
	if err == nil {
		return "", false
	}
	return updateWarning(err), true
}

// formStatus combines the form's submission with the matching mutation's state.
func (m appModel) formStatus() formStatus {
	f := m.form
	if f == nil {
		return formStatus{}
	}
	var pending bool
	var err error
	if f.isEdit() {
		pending = m.cache.Update.Pending()
	} else {
		pending, err = m.cache.Create.Pending(), m.cache.Create.Err()
	}
	st := formStatus{saving: f.submitted || pending}
	if !st.saving && err != nil {
		st.err = "Could not create task: " + err.Error()
	}
	return st
}

func updateWarning(err error) string {
	if errors.Is(err, taskapi.ErrNotFound) {
		return "That task no longer exists. The board will refresh automatically."
	}
	return fmt.Sprintf("Could not update the task (%v). The board will refresh automatically.", err)
}

// flash shows a transient minibuffer message.
func (m *appModel) flash(text string) tea.Cmd {
	m.minibufferSeq++
	m.minibufferText = text
	seq := m.minibufferSeq
	return tea.Tick(m.flashFor, func(time.Time) tea.Msg { return clearMinibufferMsg{seq: seq} })
}

func (m *appModel) rederive() {
	m.view = m.pager.Derive(m.tasks)
	m.nav.View = m.view
	m.clampFocus()
}

func (m *appModel) clampFocus() {
	n := len(m.view.Columns)
	if n == 0 {
		m.focusCol, m.focusRow = 0, 0
		return
	}
	m.focusCol = min(max(m.focusCol, 0), n-1)
	rows := len(m.view.Columns[m.focusCol].Tasks)
	m.focusRow = min(max(m.focusRow, 0), max(rows-1, 0))
}

func (m appModel) focusedColumn() model.Column {
	if m.focusCol < len(m.view.Columns) {
		return m.view.Columns[m.focusCol].Config.Key
	}
	return model.ColumnBacklog
}

func (m appModel) focusedTask() (model.Task, bool) {
	if m.focusCol >= len(m.view.Columns) {
		return model.Task{}, false
	}
	tasks := m.view.Columns[m.focusCol].Tasks
	if m.focusRow < 0 || m.focusRow >= len(tasks) {
		return model.Task{}, false
	}
	return tasks[m.focusRow], true
}

func (m *appModel) focusTask(id model.ID) {
	for ci, cv := range m.view.Columns {
		for ti, t := range cv.Tasks {
			if t.ID == id {
				m.focusCol, m.focusRow = ci, ti
				return
			}
		}
	}
}

func (m *appModel) focusColumn(c model.Column) {
	if i := model.ColumnIndex(c); i >= 0 && i != m.focusCol {
		m.focusCol, m.focusRow = i, 0
		m.clampFocus()
	}
}

func (m *appModel) openForm(t model.Task) tea.Cmd {
	m.cache.Create.Reset()
	m.form = newTaskForm(t, m.width)
	return textinput.Blink
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	switch {
	case m.form != nil:
		return m.handleFormKey(msg)
	case m.confirm != nil:
		return m.handleConfirmKey(msg)
	case m.viewing != nil:
		return m.handleViewerKey(msg)
	case !m.loaded || m.loadFailed():
		switch {
		case key.Matches(msg, keys.Refresh):
			return m.retry()
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		}
		return m, nil
	case m.searching:
		return m.handleSearchKey(msg)
	}

	if m.drag.Dragging() || key.Matches(msg, keys.Lift) {
		focused, _ := m.focusedTask()
		res := m.drag.Feed(dnd.KeyInput{Key: msg.String(), Focused: focused.ID}, m.tasks)
		if res.Consumed {
			return m.afterDrag(res)
		}
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.Dismiss):
		m.bannerDismissed = true
	case key.Matches(msg, keys.Search):
		m.searching = true
		return m, m.search.Focus()
	case key.Matches(msg, keys.Left):
		m.focusCol--
		m.clampFocus()
	case key.Matches(msg, keys.Right):
		m.focusCol++
		m.clampFocus()
	case key.Matches(msg, keys.Up):
		m.focusRow--
		m.clampFocus()
	case key.Matches(msg, keys.Down):
		m.focusRow++
		m.clampFocus()
	case key.Matches(msg, keys.PrevPage):
		if m.pager.Step(m.view, m.focusedColumn(), -1) {
			m.rederive()
		}
	case key.Matches(msg, keys.NextPage):
		if m.pager.Step(m.view, m.focusedColumn(), 1) {
			m.rederive()
		}
	case key.Matches(msg, keys.New):
		return m, m.openForm(model.Task{Column: m.focusedColumn()})
	case key.Matches(msg, keys.Edit):
		if t, ok := m.focusedTask(); ok {
			return m, m.openForm(t)
		}
	case key.Matches(msg, keys.Delete):
		if t, ok := m.focusedTask(); ok {
			m.confirm = newDeleteConfirm(t)
		}
	case key.Matches(msg, keys.View):
		if t, ok := m.focusedTask(); ok {
			m.viewing = &t
		}
	case key.Matches(msg, keys.Refresh):
		return m.retry()
	}
	return m, nil
}

// retry drops the cached list and reads it again.
func (m appModel) retry() (tea.Model, tea.Cmd) {
	m.cache.Invalidate()
	if !m.loaded {
		return m, tea.Batch(fetchTasks(m.cache), m.spinner.Tick)
	}
	return m, fetchTasks(m.cache)
}

func (m appModel) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.String() {
	case "esc", "enter":
		m.searching = false
		m.search.Blur()
		return m, nil
	case "ctrl+u":
		m.search.SetValue("")
	default:
		m.search, cmd = m.search.Update(msg)
	}
	if m.pager.SetSearch(m.search.Value()) {
		m.rederive()
	}
	return m, cmd
}

func (m appModel) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	if m.formStatus().saving {
		return m, nil
	}
	switch {
	case key.Matches(msg, keys.Dismiss):
		m.form = nil
		return m, nil
	case key.Matches(msg, keys.Save), msg.String() == "enter" && f.focus != fieldDescription:
		in, ok := f.submit()
		if !ok {
			return m, nil
		}
		if f.isEdit() {
			return m, updateTask(m.cache, opUpdate, f.editing.WithInput(in))
		}
		return m, createTask(m.cache, in)
	}
	return m, f.update(msg)
}

func (m appModel) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	c := m.confirm
	switch msg.String() {
	case "y", "Y":
		return m.deleteConfirmed()
	case "n", "N", "esc", "q":
		m.confirm = nil
	case "tab", "shift+tab", "left", "right", "h", "l":
		c.toggle()
	case "enter":
		if c.focus == confirmFocusConfirm {
			return m.deleteConfirmed()
		}
		m.confirm = nil
	}
	return m, nil
}

func (m appModel) deleteConfirmed() (tea.Model, tea.Cmd) {
	id := m.confirm.task.ID
	m.confirm = nil
	flash := m.flash("Deleting...")
	return m, tea.Batch(deleteTask(m.cache, id), flash)
}

func (m appModel) handleViewerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Dismiss), key.Matches(msg, keys.View), key.Matches(msg, keys.Quit):
		m.viewing = nil
	case msg.String() == "e":
		t := *m.viewing
		m.viewing = nil
		return m, m.openForm(t)
	}
	return m, nil
}

func (m appModel) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.form != nil || m.confirm != nil || m.viewing != nil || !m.loaded || m.loadFailed() {
		return m, nil
	}
	_, regions := m.renderScreen()
	hit, onRegion := hitAt(regions, msg.X, msg.Y)
	in := dnd.PointerInput{X: msg.X, Y: msg.Y, Hit: hit.dndHit()}
	if !onRegion {
		in.Hit = dnd.Hit{}
	}

	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
			if onRegion && hit.column != "" && !m.drag.Dragging() {
				delta := 1
				if msg.Button == tea.MouseButtonWheelUp {
					delta = -1
				}
				if m.pager.Step(m.view, hit.column, delta) {
					m.rederive()
				}
			}
			return m, nil
		case tea.MouseButtonLeft:
		default:
			return m, nil
		}

		if m.searching {
			m.searching = false
			m.search.Blur()
		}
		in.Action = dnd.PointerPress
		if res := m.drag.Feed(in, m.tasks); res.Consumed {
			return m.afterDrag(res)
		}
		if !onRegion {
			return m, nil
		}
		switch hit.kind {
		case hitBanner:
			m.bannerDismissed = true
		case hitEdit:
			if t, ok := model.FindTask(m.tasks, hit.task); ok {
				return m, m.openForm(t)
			}
		case hitDelete:
			if t, ok := model.FindTask(m.tasks, hit.task); ok {
				m.confirm = newDeleteConfirm(t)
			}
		case hitPage:
			m.pager.SetPage(hit.column, hit.page)
			m.rederive()
		case hitCard:
			m.focusTask(hit.task)
		case hitColumn:
			m.focusColumn(hit.column)
		}
		return m, nil

	case tea.MouseActionMotion:
		in.Action = dnd.PointerMotion
	case tea.MouseActionRelease:
		in.Action = dnd.PointerRelease
	default:
		return m, nil
	}
	return m.afterDrag(m.drag.Feed(in, m.tasks))
}

// afterDrag applies a drag result: a cross-column drop persists the new column.
func (m appModel) afterDrag(res dnd.Result) (tea.Model, tea.Cmd) {
	if res.Event == nil {
		return m, nil
	}
	switch res.Event.Kind {
	case dnd.EventStart:
		m.log.WithField("id", res.Event.Task.String()).Debug("drag start")
	case dnd.EventCancel:
		m.log.Debug("drag cancelled")
	case dnd.EventDrop:
		if res.Update == nil {
			return m, nil
		}
		t := *res.Update
		m.log.WithFields(log.Fields{"id": t.ID.String(), "column": string(t.Column)}).Info("move task")
		m.focusColumn(t.Column)
		flash := m.flash(fmt.Sprintf("Moving %q to %s...", t.Title, t.Column.Title()))
		return m, tea.Batch(updateTask(m.cache, opMove, t), flash)
	}
	return m, nil
}

func (m appModel) View() string {
	snap := m.cache.Snapshot()
	switch {
	case snap.Err != nil && !snap.Fetching:
		return m.renderError(snap.Err)
	case !m.loaded:
		return m.renderLoading()
	}

	out, _ := m.renderScreen()
	switch {
	case m.form != nil:
		out = overlayCenter(out, m.form.view(m.width, m.formStatus()), m.width, m.height)
	case m.confirm != nil:
		out = overlayCenter(out, m.confirm.view(m.width), m.width, m.height)
	case m.viewing != nil:
		out = overlayCenter(out, renderTaskView(*m.viewing, m.width, m.height), m.width, m.height)
	}
	return out
}

// renderScreen draws the board and records its clickable regions.
func (m appModel) renderScreen() (string, []hitRegion) {
	var regions []hitRegion
	lines := []string{m.renderHeader(), m.renderSearch()}
	if text, ok := m.bannerText(); ok {
		regions = append(regions, hitRegion{kind: hitBanner, x: 0, y: len(lines), w: m.width, h: 1})
		lines = append(lines, m.renderBanner(text))
	}
	lines = append(lines, "")

	top := len(lines)
	boardH := max(1, m.height-top-1)
	b, br := m.renderBoard(m.width, boardH, top)
	regions = append(regions, br...)
	lines = append(lines, b, m.renderFooter())

	out := strings.Join(lines, "\n")
	if st := m.drag.State(); st.Phase == dnd.Dragging && st.Source == dnd.SourcePointer {
		if t, ok := model.FindTask(m.tasks, st.Active); ok {
			out = overlayAt(out, renderGhost(t), st.X+1, st.Y)
		}
	}
	return out, regions
}

func (m appModel) renderHeader() string {
	parts := []string{
		lipgloss.NewStyle().Bold(true).Render("Task Board"),
		styleMuted().Render("n: add task"),
	}
	if m.view.Hidden > 0 {
		parts = append(parts, styleMuted().Render(fmt.Sprintf("%d task(s) in unknown columns", m.view.Hidden)))
	}
	switch {
	case m.cache.Pending():
		parts = append(parts, styleMuted().Render("refreshing"+glyphEllipsis()))
	case m.cache.Create.Pending(), m.cache.Update.Pending(), m.cache.Delete.Pending():
		parts = append(parts, styleMuted().Render("saving"+glyphEllipsis()))
	}
	return normalizePane(strings.Join(parts, "   "), m.width, 1)
}

func (m appModel) renderSearch() string {
	return renderInputLine(min(m.width, 48), m.search.View())
}

func (m appModel) renderBanner(text string) string {
	text = glyphWarning() + " " + text + "  (esc to dismiss)"
	return lipgloss.NewStyle().
		Foreground(colorWarningFg).
		Background(colorWarningBg).
		Render(fitWidth(text, m.width))
}

func (m appModel) renderFooter() string {
	if st := m.drag.State(); st.Phase == dnd.Dragging {
		t, _ := model.FindTask(m.tasks, st.Active)
		target := "(nowhere)"
		if c, ok := dnd.ResolveColumn(st.Over, m.tasks); ok {
			target = c.Title()
		}
		hint := "release to drop"
		if st.Source == dnd.SourceKeyboard {
			hint = "arrows: choose   space/enter: drop   esc: cancel"
		}
		return normalizePane(fmt.Sprintf("Moving %q %s %s   %s", t.Title, glyphArrow(), target, styleMuted().Render(hint)), m.width, 1)
	}
	if m.minibufferText != "" {
		return normalizePane(m.minibufferText, m.width, 1)
	}
	var help []string
	for _, b := range boardHelp() {
		h := b.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	return normalizePane(styleMuted().Render(strings.Join(help, "  ")), m.width, 1)
}

func (m appModel) renderLoading() string {
	body := m.spinner.View() + " Loading tasks" + glyphEllipsis()
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

func (m appModel) renderError(err error) string {
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(colorErrorFg).Render("Could not load tasks"),
		"",
		err.Error(),
		"",
		fmt.Sprintf("Is the task server running at %s?", m.primary),
		styleMuted().Render("Start one with `taskboard serve`, or set TASKBOARD_API_URL."),
		"",
		styleMuted().Render("r: retry   q: quit"),
	}
	body := lipgloss.NewStyle().Width(min(m.width-4, 80)).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, body)
}

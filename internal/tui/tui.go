package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	goerrors "github.com/go-errors/errors"
	"github.com/jesseduffield/gocui"

	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/query"
	"github.com/Joseda-hg/lazytodo/internal/reminder"
	"github.com/Joseda-hg/lazytodo/internal/reorder"
	"github.com/Joseda-hg/lazytodo/internal/store"
)

const (
	viewHeader  = "header"
	viewFooter  = "footer"
	viewTasks   = "tasks"
	viewDetail  = "detail"
	viewHistory = "history"
	viewSearch  = "search"
	viewForm    = "form"
	viewHelp    = "help"
	viewConfirm = "confirm"
)

type Deps struct {
	Store        *store.Store
	History      *db.HistoryLog
	Sink         reminder.Sink
	ReminderOpts []reminder.Option
	Logger       *slog.Logger
}

type UI struct {
	store   *store.Store
	history *db.HistoryLog
	drag    *reorder.Controller
	gui     *gocui.Gui
	logger  *slog.Logger
	now     func() time.Time

	filter   model.Filter
	tasks    []model.Task
	stats    model.Stats
	selected int

	historyEntries  []model.HistoryEntry
	selectedHistory int
	focus           string

	form          *formState
	formEditor    *formEditor
	searchActive  bool
	helpActive    bool
	confirmDelete model.TaskID
	status        string
	banner        string
}

type formState struct {
	taskID model.TaskID
	fields []formField
	index  int
}

type formEditor struct {
	ui *UI
}

func newUI(st *store.Store, history *db.HistoryLog, logger *slog.Logger) *UI {
	if logger == nil {
		logger = slog.Default()
	}
	ui := &UI{
		store:   st,
		history: history,
		drag:    reorder.New(st),
		logger:  logger,
		now:     time.Now,
		focus:   viewTasks,
		filter:  model.Filter{Category: model.CategoryAll},
	}
	ui.formEditor = &formEditor{ui: ui}
	return ui
}

func Run(ctx context.Context, deps Deps) error {
	gui, err := gocui.NewGui(gocui.NewGuiOpts{OutputMode: gocui.OutputNormal})
	if err != nil {
		return err
	}
	defer gui.Close()

	ui := newUI(deps.Store, deps.History, deps.Logger)
	ui.gui = gui
	gui.Mouse = true

	gui.SetManagerFunc(ui.layout)
	if err := ui.bindKeys(gui); err != nil {
		return err
	}
	if err := ui.loadTasks(); err != nil {
		return err
	}

	unsubscribe := deps.Store.Subscribe(func(change store.Change) {
		if change.Kind == store.ChangeNotified {
			return
		}
		gui.Update(func(*gocui.Gui) error { return ui.loadTasks() })
	})
	defer unsubscribe()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sinks := reminder.MultiSink{reminder.SinkFunc(ui.notify)}
	if deps.Sink != nil {
		sinks = append(sinks, deps.Sink)
	}
	opts := append([]reminder.Option{reminder.WithLogger(ui.logger)}, deps.ReminderOpts...)
	engine := reminder.New(deps.Store, sinks, opts...)
	go func() {
		if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			ui.logger.Error("reminder engine stopped", "error", err)
		}
	}()

	if err := gui.MainLoop(); err != nil && !goerrors.Is(err, gocui.ErrQuit) {
		return err
	}

	return nil
}

// notify shows a reminder in the footer banner.
func (u *UI) notify(_ context.Context, event reminder.Event) {
	message := event.Message()
	if u.gui == nil {
		u.banner = message
		return
	}
	u.gui.Update(func(*gocui.Gui) error {
		u.banner = message
		return nil
	})
}

func (u *UI) bindKeys(gui *gocui.Gui) error {
	global := []struct {
		key     interface{}
		handler func(*gocui.Gui, *gocui.View) error
	}{
		{gocui.KeyCtrlC, u.quit},
		{'q', u.quit},
		{'a', u.addTask},
		{'e', u.editTask},
		{'d', u.deleteTask},
		{'x', u.toggleComplete},
		{'/', u.startSearch},
		{'g', u.clearFilters},
		{'c', u.nextCategory},
		{'C', u.prevCategory},
		{'m', u.grabOrDrop},
		{'?', u.toggleHelp},
		{gocui.KeyTab, u.switchFocus},
	}
	for _, binding := range global {
		if err := gui.SetKeybinding("", binding.key, gocui.ModNone, binding.handler); err != nil {
			return err
		}
	}

	for index, name := range filterOrder {
		category := name
		key := rune('0' + index)
		if err := gui.SetKeybinding("", key, gocui.ModNone, func(gui *gocui.Gui, _ *gocui.View) error {
			return u.setCategory(gui, category)
		}); err != nil {
			return err
		}
	}

	lists := []string{viewTasks, viewHistory}
	for _, name := range lists {
		if err := gui.SetKeybinding(name, gocui.KeyArrowDown, gocui.ModNone, u.moveDown); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, 'j', gocui.ModNone, u.moveDown); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, gocui.KeyArrowUp, gocui.ModNone, u.moveUp); err != nil {
			return err
		}
		if err := gui.SetKeybinding(name, 'k', gocui.ModNone, u.moveUp); err != nil {
			return err
		}
	}
	if err := gui.SetKeybinding(viewTasks, gocui.KeySpace, gocui.ModNone, u.toggleComplete); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, gocui.KeyEnter, gocui.ModNone, u.grabOrDrop); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewTasks, gocui.KeyEsc, gocui.ModNone, u.cancelDrag); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewSearch, gocui.KeyEnter, gocui.ModNone, u.submitSearch); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewSearch, gocui.KeyEsc, gocui.ModNone, u.cancelSearch); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyEnter, gocui.ModNone, u.submitForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyTab, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyBacktab, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowDown, gocui.ModNone, u.nextFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyArrowUp, gocui.ModNone, u.prevFormField); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewForm, gocui.KeyEsc, gocui.ModNone, u.cancelForm); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, gocui.KeyEsc, gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewHelp, '?', gocui.ModNone, u.closeHelp); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewConfirm, 'y', gocui.ModNone, u.confirmDeleteYes); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewConfirm, 'n', gocui.ModNone, u.confirmDeleteNo); err != nil {
		return err
	}
	if err := gui.SetKeybinding(viewConfirm, gocui.KeyEsc, gocui.ModNone, u.confirmDeleteNo); err != nil {
		return err
	}
	return gui.SetViewClickBinding(&gocui.ViewMouseBinding{ViewName: viewTasks, Key: gocui.MouseLeft, Handler: func(opts gocui.ViewMouseBindingOpts) error {
		return u.onTaskClick(gui, opts)
	}})
}

func (u *UI) layout(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	if maxX <= 0 || maxY <= 0 {
		return nil
	}

	headerView, err := gui.SetView(viewHeader, 0, 0, maxX-1, 1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	headerView.Frame = false
	headerView.Wrap = true
	u.renderHeader(headerView)

	footerY1 := max(maxY-1, 3)
	footerY0 := max(footerY1-2, 2)
	footerView, err := gui.SetView(viewFooter, 0, footerY0, maxX-1, footerY1, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	footerView.Frame = false
	footerView.Wrap = true
	footerView.FgColor = gocui.ColorDefault | gocui.AttrDim
	u.renderFooter(footerView)

	bodyTop := 2
	bodyBottom := footerY0 - 1
	if bodyBottom <= bodyTop {
		return nil
	}

	leftX1 := max(maxX*3/5, 30)
	if leftX1 >= maxX-10 {
		leftX1 = maxX - 1
	}

	tasksView, err := gui.SetView(viewTasks, 0, bodyTop, leftX1, bodyBottom, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	tasksView.Title = u.tasksTitle()
	applyViewStyle(tasksView, u.focus == viewTasks)
	u.renderTaskList(tasksView)

	if leftX1 < maxX-1 {
		detailY1 := bodyTop + (bodyBottom-bodyTop)/2
		detailView, err := gui.SetView(viewDetail, leftX1+1, bodyTop, maxX-1, detailY1, 0)
		if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		if goerrors.Is(err, gocui.ErrUnknownView) {
			detailView.Title = "Detail"
			detailView.Wrap = true
		}
		applyViewStyle(detailView, false)
		u.renderDetail(detailView)

		historyView, err := gui.SetView(viewHistory, leftX1+1, detailY1+1, maxX-1, bodyBottom, 0)
		if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
			return err
		}
		if goerrors.Is(err, gocui.ErrUnknownView) {
			historyView.Title = "History"
		}
		applyViewStyle(historyView, u.focus == viewHistory)
		u.renderHistory(historyView)
	}

	if u.searchActive {
		if err := u.showSearch(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewSearch)
	}

	if u.form != nil {
		if err := u.showForm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewForm)
	}

	if u.helpActive {
		if err := u.showHelp(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewHelp)
	}

	if u.confirmDelete != "" {
		if err := u.showConfirm(gui); err != nil {
			return err
		}
	} else {
		_ = gui.DeleteView(viewConfirm)
	}

	if !u.inputActive() {
		_, _ = gui.SetCurrentView(u.focus)
	}

	gui.Cursor = u.searchActive || u.form != nil

	return nil
}

func (u *UI) tasksTitle() string {
	if id, ok := u.drag.Dragging(); ok {
		if task, err := u.store.Get(id); err == nil {
			return fmt.Sprintf("Tasks (moving %q)", task.Title)
		}
	}
	return "Tasks"
}

// loadTasks re-projects the store snapshot through the current filter.
func (u *UI) loadTasks() error {
	snapshot := u.store.Snapshot()
	u.stats = query.ComputeStats(snapshot)
	u.tasks = query.Project(snapshot, u.filter)

	if u.selected >= len(u.tasks) {
		u.selected = max(len(u.tasks)-1, 0)
	}
	if id, ok := u.drag.Dragging(); ok {
		if selected := u.selectedTask(); selected != nil {
			u.drag.Hover(selected.ID)
		} else {
			u.drag.Hover(id)
		}
	}
	return u.loadHistory()
}

func (u *UI) loadHistory() error {
	selected := u.selectedTask()
	if selected == nil || u.history == nil {
		u.historyEntries = nil
		return nil
	}

	history, err := u.history.List(context.Background(), selected.ID)
	if err != nil {
		return err
	}
	u.historyEntries = history
	if u.selectedHistory >= len(u.historyEntries) {
		u.selectedHistory = max(len(u.historyEntries)-1, 0)
	}
	return nil
}

func (u *UI) renderHeader(view *gocui.View) {
	view.Clear()
	search := strings.TrimSpace(u.filter.Query)
	if search == "" {
		search = "type / to search"
	}
	category := u.filter.Category
	if category == "" {
		category = model.CategoryAll
	}
	fmt.Fprintf(view, "Search: %s | Category: %s | %s %s", search, category, formatStats(u.stats), progressBar(u.stats.Progress, 20))
}

func (u *UI) renderFooter(view *gocui.View) {
	view.Clear()
	view.SetOrigin(0, 0)
	view.SetCursor(0, 0)

	fmt.Fprintln(view, "a add | e edit | d delete | x done | m move/drop | / search | c category | 0-5 filter | g clear | ? help | q quit")
	switch {
	case u.status != "":
		fmt.Fprint(view, u.status)
	case u.banner != "":
		fmt.Fprint(view, u.banner)
	}
}

func (u *UI) renderTaskList(view *gocui.View) {
	view.Clear()
	if len(u.tasks) == 0 {
		fmt.Fprint(view, "  No tasks match")
		return
	}

	dragging, _ := u.drag.Dragging()
	hovered := u.drag.Hovered()
	now := u.now()
	for i, task := range u.tasks {
		prefix := " "
		if i == u.selected {
			if u.focus == viewTasks {
				prefix = ">"
			} else {
				prefix = "*"
			}
		}
		marker := " "
		switch task.ID {
		case dragging:
			marker = "≡"
		case hovered:
			marker = "↳"
		}
		fmt.Fprintf(view, "%s%s %s\n", prefix, marker, formatTaskSummary(task, now))
	}
	if u.focus == viewTasks {
		view.SetCursor(0, min(u.selected, len(u.tasks)-1))
	}
}

func (u *UI) renderDetail(view *gocui.View) {
	view.Clear()
	selected := u.selectedTask()
	if selected == nil {
		fmt.Fprint(view, "No task selected")
		return
	}
	fmt.Fprint(view, strings.Join(formatTaskDetail(*selected, u.now()), "\n"))
}

func (u *UI) renderHistory(view *gocui.View) {
	view.Clear()
	now := u.now()
	for i, entry := range u.historyEntries {
		prefix := " "
		if u.focus == viewHistory && i == u.selectedHistory {
			prefix = ">"
		}
		fmt.Fprintf(view, "%s %s\n", prefix, formatHistoryEntry(entry, now))
	}
}

func (u *UI) onTaskClick(gui *gocui.Gui, opts gocui.ViewMouseBindingOpts) error {
	if u.inputActive() {
		return nil
	}
	view, err := gui.View(viewTasks)
	if err != nil {
		return nil
	}

	_, y0, _, _ := view.Dimensions()
	_, oy := view.Origin()
	row := max(opts.Y-y0-1+oy, 0)
	u.selected = min(row, len(u.tasks)-1)
	u.focus = viewTasks

	// A click while dragging drops onto the clicked row.
	if _, ok := u.drag.Dragging(); ok {
		return u.dropOnSelected()
	}
	return u.loadHistory()
}

func (u *UI) selectedTask() *model.Task {
	if u.selected < 0 || u.selected >= len(u.tasks) {
		return nil
	}
	task := u.tasks[u.selected]
	return &task
}

func (u *UI) switchFocus(gui *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	if u.focus == viewTasks {
		u.focus = viewHistory
	} else {
		u.focus = viewTasks
	}
	if gui != nil {
		_, _ = gui.SetCurrentView(u.focus)
	}
	return nil
}

func (u *UI) moveDown(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.focus {
	case viewTasks:
		if u.selected < len(u.tasks)-1 {
			u.selected++
			u.hoverSelected()
			return u.loadHistory()
		}
	case viewHistory:
		if u.selectedHistory < len(u.historyEntries)-1 {
			u.selectedHistory++
		}
	}
	return nil
}

func (u *UI) moveUp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	switch u.focus {
	case viewTasks:
		if u.selected > 0 {
			u.selected--
			u.hoverSelected()
			return u.loadHistory()
		}
	case viewHistory:
		if u.selectedHistory > 0 {
			u.selectedHistory--
		}
	}
	return nil
}

func (u *UI) hoverSelected() {
	if _, ok := u.drag.Dragging(); !ok {
		return
	}
	if selected := u.selectedTask(); selected != nil {
		u.drag.Hover(selected.ID)
	}
}

// grabOrDrop starts a move on the selected task, or drops the task being
// moved onto the selected one.
func (u *UI) grabOrDrop(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() || u.focus != viewTasks {
		return nil
	}
	if _, ok := u.drag.Dragging(); ok {
		return u.dropOnSelected()
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.drag.Begin(selected.ID)
	u.status = "moving: select a target and press m or enter (esc cancels)"
	return nil
}

func (u *UI) dropOnSelected() error {
	selected := u.selectedTask()
	if selected == nil {
		u.drag.Cancel()
		return nil
	}
	source, _ := u.drag.Dragging()
	if err := u.drag.Drop(context.Background(), selected.ID); err != nil {
		u.status = err.Error()
		return nil
	}
	u.status = ""
	if err := u.loadTasks(); err != nil {
		return err
	}
	u.selectTask(source)
	return u.loadHistory()
}

func (u *UI) cancelDrag(_ *gocui.Gui, _ *gocui.View) error {
	if _, ok := u.drag.Dragging(); !ok {
		return nil
	}
	u.drag.Cancel()
	u.status = ""
	return nil
}

func (u *UI) selectTask(id model.TaskID) {
	for i, task := range u.tasks {
		if task.ID == id {
			u.selected = i
			return
		}
	}
}

func (u *UI) setCategory(_ *gocui.Gui, category string) error {
	if u.inputActive() {
		return nil
	}
	u.filter.Category = category
	return u.loadTasks()
}

func (u *UI) nextCategory(gui *gocui.Gui, _ *gocui.View) error {
	return u.setCategory(gui, cycleOption(filterOrder, u.currentCategory(), 1))
}

func (u *UI) prevCategory(gui *gocui.Gui, _ *gocui.View) error {
	return u.setCategory(gui, cycleOption(filterOrder, u.currentCategory(), -1))
}

func (u *UI) currentCategory() string {
	if u.filter.Category == "" {
		return model.CategoryAll
	}
	return u.filter.Category
}

func (u *UI) clearFilters(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.filter = model.Filter{Category: model.CategoryAll}
	u.status = ""
	u.banner = ""
	return u.loadTasks()
}

func (u *UI) startSearch(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	u.searchActive = true
	return nil
}

func (u *UI) showSearch(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(30, maxX/2)
	height := 2
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewSearch, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Search"
		view.Clear()
		fmt.Fprint(view, u.filter.Query)
	}
	view.Editable = true
	view.Editor = gocui.DefaultEditor
	_, _ = gui.SetCurrentView(viewSearch)
	return nil
}

func (u *UI) submitSearch(gui *gocui.Gui, view *gocui.View) error {
	u.filter.Query = strings.TrimSpace(view.Buffer())
	u.searchActive = false
	u.status = ""
	_ = gui.DeleteView(viewSearch)
	_, _ = gui.SetCurrentView(u.focus)
	return u.loadTasks()
}

func (u *UI) cancelSearch(gui *gocui.Gui, _ *gocui.View) error {
	u.searchActive = false
	_ = gui.DeleteView(viewSearch)
	_, _ = gui.SetCurrentView(u.focus)
	return nil
}

func (u *UI) toggleHelp(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() && !u.helpActive {
		return nil
	}
	u.helpActive = !u.helpActive
	return nil
}

func (u *UI) closeHelp(gui *gocui.Gui, _ *gocui.View) error {
	u.helpActive = false
	_ = gui.DeleteView(viewHelp)
	_, _ = gui.SetCurrentView(u.focus)
	return nil
}

func (u *UI) showHelp(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := 16
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewHelp, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Title = "Help"
		view.Wrap = true
	}
	view.Clear()
	fmt.Fprint(view, helpText())
	_, _ = gui.SetCurrentView(viewHelp)
	return nil
}

func (u *UI) addTask(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	fields := buildFormFields(nil)
	if category := u.currentCategory(); category != model.CategoryAll {
		fields[fieldCategory].Value = category
	}
	u.form = &formState{fields: fields}
	return nil
}

func (u *UI) editTask(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.form = &formState{taskID: selected.ID, fields: buildFormFields(selected)}
	return nil
}

func (u *UI) showForm(gui *gocui.Gui) error {
	if u.form == nil {
		return nil
	}

	maxX, maxY := gui.Size()
	width := max(60, maxX/2)
	height := min(10, max(7, maxY/2))
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewForm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	if goerrors.Is(err, gocui.ErrUnknownView) {
		view.Wrap = true
	}
	if u.form.taskID != "" {
		view.Title = "Edit Task"
	} else {
		view.Title = "New Task"
	}
	view.Editable = true
	view.KeybindOnEdit = true
	view.Editor = u.formEditor
	u.renderForm(view)
	_, _ = gui.SetCurrentView(viewForm)
	return nil
}

func (u *UI) submitForm(gui *gocui.Gui, _ *gocui.View) error {
	if u.form == nil {
		return nil
	}

	input, err := parseFormFields(u.form.fields, time.Local)
	if err != nil {
		u.status = err.Error()
		return nil
	}

	var saved model.Task
	if u.form.taskID == "" {
		saved, err = u.store.Create(context.Background(), input)
	} else {
		saved, err = u.store.Update(context.Background(), u.form.taskID, input)
	}
	if err != nil && (saved.ID == "" || !errors.Is(err, store.ErrPersistence)) {
		// keep the form open so the user can fix the input
		u.status = err.Error()
		return nil
	}

	u.form = nil
	u.status = ""
	if err != nil {
		u.status = "warning: " + err.Error()
	}
	if gui != nil {
		_ = gui.DeleteView(viewForm)
		_, _ = gui.SetCurrentView(u.focus)
	}
	if err := u.loadTasks(); err != nil {
		return err
	}
	u.selectTask(saved.ID)
	return u.loadHistory()
}

func (u *UI) cancelForm(gui *gocui.Gui, _ *gocui.View) error {
	u.form = nil
	_ = gui.DeleteView(viewForm)
	_, _ = gui.SetCurrentView(u.focus)
	return nil
}

func (u *UI) nextFormField(_ *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index < len(u.form.fields)-1 {
		u.form.index++
	}
	u.renderForm(view)
	return nil
}

func (u *UI) prevFormField(_ *gocui.Gui, view *gocui.View) error {
	if u.form == nil {
		return nil
	}
	if u.form.index > 0 {
		u.form.index--
	}
	u.renderForm(view)
	return nil
}

func (u *UI) renderForm(view *gocui.View) {
	if u.form == nil || view == nil {
		return
	}
	view.Clear()
	for index, field := range u.form.fields {
		prefix := "  "
		if index == u.form.index {
			prefix = "> "
		}
		fmt.Fprintf(view, "%s%s: %s\n", prefix, field.Label, field.Value)
	}
	label := u.form.fields[u.form.index].Label + ": "
	cursorX := len([]rune(label)) + len([]rune(u.form.fields[u.form.index].Value)) + 2
	view.SetCursor(cursorX, u.form.index)
}

func (e *formEditor) Edit(view *gocui.View, key gocui.Key, ch rune, mod gocui.Modifier) bool {
	ui := e.ui
	if ui == nil || ui.form == nil || view == nil {
		return false
	}
	field := &ui.form.fields[ui.form.index]

	var options []string
	switch {
	case isCategoryField(field.Label):
		options = categoryOptions()
	case isPriorityField(field.Label):
		options = priorityOptions()
	}
	if options != nil {
		switch key {
		case gocui.KeyArrowRight, gocui.KeySpace:
			field.Value = cycleOption(options, field.Value, 1)
		case gocui.KeyArrowLeft:
			field.Value = cycleOption(options, field.Value, -1)
		}
		ui.renderForm(view)
		return true
	}

	switch key {
	case gocui.KeyBackspace, gocui.KeyBackspace2:
		runes := []rune(field.Value)
		if len(runes) > 0 {
			field.Value = string(runes[:len(runes)-1])
		}
	case gocui.KeySpace:
		field.Value += " "
	case gocui.KeyCtrlU:
		field.Value = ""
	}

	if ch != 0 && ch != '\n' && ch != '\r' && mod == 0 {
		field.Value += string(ch)
	}

	ui.renderForm(view)
	return true
}

// deleteTask asks for confirmation; the store call happens in confirmDeleteYes.
func (u *UI) deleteTask(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.confirmDelete = selected.ID
	return nil
}

func (u *UI) showConfirm(gui *gocui.Gui) error {
	maxX, maxY := gui.Size()
	width := max(40, maxX/3)
	height := 2
	x0 := (maxX - width) / 2
	y0 := (maxY - height) / 2

	view, err := gui.SetView(viewConfirm, x0, y0, x0+width, y0+height, 0)
	if err != nil && !goerrors.Is(err, gocui.ErrUnknownView) {
		return err
	}
	view.Title = "Delete task?"
	view.Clear()
	title := string(u.confirmDelete)
	if task, err := u.store.Get(u.confirmDelete); err == nil {
		title = task.Title
	}
	fmt.Fprintf(view, "Delete %q? (y/n)", title)
	_, _ = gui.SetCurrentView(viewConfirm)
	return nil
}

func (u *UI) confirmDeleteYes(gui *gocui.Gui, _ *gocui.View) error {
	id := u.confirmDelete
	u.confirmDelete = ""
	if gui != nil {
		_ = gui.DeleteView(viewConfirm)
		_, _ = gui.SetCurrentView(u.focus)
	}
	if id == "" {
		return nil
	}

	u.status = ""
	if err := u.store.Delete(context.Background(), id); err != nil {
		u.status = err.Error()
	}
	return u.loadTasks()
}

func (u *UI) confirmDeleteNo(gui *gocui.Gui, _ *gocui.View) error {
	u.confirmDelete = ""
	if gui != nil {
		_ = gui.DeleteView(viewConfirm)
		_, _ = gui.SetCurrentView(u.focus)
	}
	return nil
}

func (u *UI) toggleComplete(_ *gocui.Gui, _ *gocui.View) error {
	if u.inputActive() {
		return nil
	}
	selected := u.selectedTask()
	if selected == nil {
		return nil
	}
	u.status = ""
	if _, err := u.store.ToggleComplete(context.Background(), selected.ID); err != nil {
		u.status = err.Error()
	}
	return u.loadTasks()
}

func (u *UI) inputActive() bool {
	return u.searchActive || u.form != nil || u.helpActive || u.confirmDelete != ""
}

func (u *UI) quit(_ *gocui.Gui, _ *gocui.View) error {
	if u.form != nil || u.searchActive {
		return nil
	}
	return gocui.ErrQuit
}

func helpText() string {
	return strings.Join([]string{
		"Navigation:",
		"  j/k or arrows move selection | tab tasks/history",
		"  mouse click selects (drops while moving)",
		"",
		"Actions:",
		"  a add | e edit | d delete (asks y/n) | x or space toggle done",
		"  m or enter pick up task, move, m or enter to drop | esc cancel move",
		"",
		"Search/Filter:",
		"  / search title+description | c/C cycle category",
		"  0 all | 1 work | 2 personal | 3 shopping | 4 health | 5 other",
		"  g clear filters and notifications",
		"",
		"Form:",
		"  tab/arrows next field | space/left/right cycle category & priority | enter save | esc cancel",
		"",
		"Other:",
		"  ? help | q quit",
	}, "\n")
}

func applyViewStyle(view *gocui.View, focused bool) {
	view.Frame = true
	view.Highlight = focused
	view.HighlightInactive = false
	view.SelBgColor = gocui.ColorBlue
	view.SelFgColor = gocui.ColorBlack
	view.InactiveViewSelBgColor = gocui.ColorDefault
	if focused {
		view.FrameColor = gocui.ColorCyan
		view.TitleColor = gocui.ColorCyan
	} else {
		view.FrameColor = gocui.ColorDefault
		view.TitleColor = gocui.ColorDefault
	}
}

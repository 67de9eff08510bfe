package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/kinohq/kino/internal/catalog"
	"github.com/kinohq/kino/internal/identity"
	"github.com/kinohq/kino/internal/shared"
)

const statusTTL = 4 * time.Second

// SessionService is the slice of [identity.Store] the TUI consumes.
type SessionService interface {
	Current() identity.Snapshot
	Resolve(ctx context.Context) identity.Snapshot
	SignIn(ctx context.Context, email, password string, persist bool) (*identity.User, error)
	SignUp(ctx context.Context, email, password string, persist bool) (*identity.User, error)
	SignOut(ctx context.Context) error
	Subscribe() (<-chan identity.Snapshot, func())
}

const (
	fieldEmail = iota
	fieldPassword
	fieldConfirm
)

const (
	fieldTitle = iota
	fieldYear
	fieldImage
)

// Model is the root bubbletea model. Screens share one model; the active
// Route picks which view renders and which keys apply.
type Model struct {
	session SessionService
	movies  catalog.Service
	logger  *log.Logger

	view Route
	snap identity.Snapshot

	pager    *Pager
	form     *Form
	list     list.Model
	authIn   []textinput.Model
	formIn   []textinput.Model
	focus    int
	authBusy bool

	deleteID    string
	deleteTitle string

	status    string
	statusErr bool

	changes <-chan identity.Snapshot
	release func()

	keys   keyMap
	help   help.Model
	width  int
	height int
}

// NewModel wires the TUI against the session store and catalog client.
func NewModel(session SessionService, movies catalog.Service, logger *log.Logger, pageSize int) Model {
	email := textinput.New()
	email.Placeholder = "email"
	email.CharLimit = 128
	email.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword

	confirm := textinput.New()
	confirm.Placeholder = "confirm password"
	confirm.CharLimit = 128
	confirm.EchoMode = textinput.EchoPassword

	title := textinput.New()
	title.Placeholder = "title"
	title.CharLimit = 256
	title.Focus()

	year := textinput.New()
	year.Placeholder = "publishing year"
	year.CharLimit = 4

	image := textinput.New()
	image.Placeholder = "poster file path (optional)"
	image.CharLimit = 512

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetShowPagination(false)
	l.SetFilteringEnabled(false)

	changes, release := session.Subscribe()

	return Model{
		session: session,
		movies:  movies,
		logger:  logger,
		view:    RouteSignIn,
		snap:    session.Current(),
		pager:   NewPager(pageSize),
		form:    NewCreateForm(),
		list:    l,
		authIn:  []textinput.Model{email, password, confirm},
		formIn:  []textinput.Model{title, year, image},
		changes: changes,
		release: release,
		keys:    newKeyMap(),
		help:    help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.resolveSession(), m.waitForChange(), textinput.Blink)
}

// Commands

func (m Model) resolveSession() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return sessionResolvedMsg{snap: session.Resolve(context.Background())}
	}
}

func (m Model) waitForChange() tea.Cmd {
	ch := m.changes
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		snap, ok := <-ch
		return sessionChangedMsg{snap: snap, ok: ok}
	}
}

func (m Model) signIn(email, password string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		user, err := session.SignIn(context.Background(), email, password, true)
		return signedInMsg{user: user, err: err}
	}
}

func (m Model) signUp(email, password string) tea.Cmd {
	session := m.session
	return func() tea.Msg {
		user, err := session.SignUp(context.Background(), email, password, true)
		return signedUpMsg{user: user, err: err}
	}
}

func (m Model) signOut() tea.Cmd {
	session := m.session
	return func() tea.Msg {
		return signedOutMsg{err: session.SignOut(context.Background())}
	}
}

func (m *Model) fetchMovies() tea.Cmd {
	gen := m.pager.BeginFetch()
	page, limit := m.pager.Page(), m.pager.PageSize()
	movies := m.movies
	return func() tea.Msg {
		result, err := movies.List(context.Background(), page, limit)
		return moviesFetchedMsg{gen: gen, page: result, err: err}
	}
}

func (m Model) loadMovie(id string) tea.Cmd {
	movies := m.movies
	return func() tea.Msg {
		movie, err := movies.Get(context.Background(), id)
		return movieLoadedMsg{movie: movie, err: err}
	}
}

func (m Model) saveMovie() tea.Cmd {
	movies := m.movies
	form := m.form
	if form.Mode == FormCreate {
		draft := form.Draft()
		return func() tea.Msg {
			_, err := movies.Create(context.Background(), draft)
			return movieSavedMsg{mode: FormCreate, err: err}
		}
	}

	patch, changed := form.Patch()
	if !changed {
		return func() tea.Msg {
			return movieSavedMsg{mode: FormEdit, err: nil}
		}
	}
	id := form.ID
	return func() tea.Msg {
		_, err := movies.Update(context.Background(), id, patch)
		return movieSavedMsg{mode: FormEdit, err: err}
	}
}

func (m Model) deleteMovie(id string) tea.Cmd {
	movies := m.movies
	return func() tea.Msg {
		return movieDeletedMsg{id: id, err: movies.Delete(context.Background(), id)}
	}
}

func clearStatusAfter() tea.Cmd {
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return clearStatusMsg{}
	})
}

// Update

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case sessionResolvedMsg:
		m.snap = msg.snap
		return m.applyGate()

	case sessionChangedMsg:
		if !msg.ok {
			return m, nil
		}
		m.snap = msg.snap
		model, cmd := m.applyGate()
		return model, tea.Batch(cmd, model.(Model).waitForChange())

	case signedInMsg:
		m.authBusy = false
		if msg.err != nil {
			return m.setError(errorText(msg.err))
		}
		m.snap = m.session.Current()
		return m.gotoMovies()

	case signedUpMsg:
		m.authBusy = false
		if msg.err != nil {
			return m.setError(errorText(msg.err))
		}
		if msg.user == nil {
			m.view = RouteSignIn
			m = m.resetAuthInputs()
			return m.setInfo("Check your email to confirm your account")
		}
		m.snap = m.session.Current()
		return m.gotoMovies()

	case signedOutMsg:
		m.snap = m.session.Current()
		m.view = RouteSignIn
		m = m.resetAuthInputs()
		if msg.err != nil {
			return m.setError(errorText(msg.err))
		}
		return m.setInfo("Signed out")

	case moviesFetchedMsg:
		if !m.pager.Apply(msg.gen, msg.page, msg.err) {
			return m, nil
		}
		if msg.err != nil {
			return m.setError(errorText(msg.err))
		}
		m.syncList()
		return m, nil

	case movieLoadedMsg:
		if msg.err != nil {
			m.form.FailLoad()
			m.syncFormInputs()
			return m.setError(errorText(msg.err))
		}
		m.form.Populate(*msg.movie)
		m.syncFormInputs()
		return m, nil

	case movieSavedMsg:
		if msg.err != nil {
			return m.setError(errorText(msg.err))
		}
		m.view = RouteMovies
		verb := "created"
		if msg.mode == FormEdit {
			verb = "updated"
		}
		model, cmd := m.setInfo("Movie " + verb)
		mm := model.(Model)
		return mm, tea.Batch(cmd, mm.fetchMovies())

	case movieDeletedMsg:
		m.view = RouteMovies
		if msg.err != nil {
			return m.setError(errorText(msg.err))
		}
		m.pager.PageAfterDelete()
		model, cmd := m.setInfo("Movie deleted")
		mm := model.(Model)
		return mm, tea.Batch(cmd, mm.fetchMovies())

	case clearStatusMsg:
		m.status = ""
		m.statusErr = false
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		if m.release != nil {
			m.release()
		}
		return m, tea.Quit
	}

	switch m.view {
	case RouteSignIn, RouteSignUp:
		return m.handleAuthKey(msg)
	case RouteMovies:
		return m.handleListKey(msg)
	case RouteMovieForm:
		return m.handleFormKey(msg)
	case RouteConfirmDelete:
		return m.handleConfirmKey(msg)
	}
	return m, nil
}

func (m Model) handleAuthKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.authBusy {
		return m, nil
	}

	fields := 2
	if m.view == RouteSignUp {
		fields = 3
	}

	switch msg.String() {
	case "tab", "down":
		return m.focusAuth((m.focus + 1) % fields), nil
	case "shift+tab", "up":
		return m.focusAuth((m.focus + fields - 1) % fields), nil
	case "enter":
		return m.submitAuth()
	case "esc":
		if m.view == RouteSignUp {
			m.view = RouteSignIn
			return m.focusAuth(fieldEmail), nil
		}
		return m, nil
	}

	if key.Matches(msg, m.keys.signup) && m.view == RouteSignIn {
		m.view = RouteSignUp
		return m.focusAuth(fieldEmail), nil
	}

	var cmd tea.Cmd
	m.authIn[m.focus], cmd = m.authIn[m.focus].Update(msg)
	return m, cmd
}

func (m Model) submitAuth() (tea.Model, tea.Cmd) {
	email := m.authIn[fieldEmail].Value()
	password := m.authIn[fieldPassword].Value()
	if email == "" || password == "" {
		return m.setError("Email and password are required")
	}
	if m.view == RouteSignUp {
		if password != m.authIn[fieldConfirm].Value() {
			return m.setError("Passwords do not match")
		}
		m.authBusy = true
		return m, m.signUp(email, password)
	}
	m.authBusy = true
	return m, m.signIn(email, password)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		if m.release != nil {
			m.release()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.logout):
		return m, m.signOut()

	case key.Matches(msg, m.keys.nextPage):
		if m.pager.Next() {
			return m, m.fetchMovies()
		}
		return m, nil

	case key.Matches(msg, m.keys.prevPage):
		if m.pager.Prev() {
			return m, m.fetchMovies()
		}
		return m, nil

	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchMovies()

	case key.Matches(msg, m.keys.add):
		m.form = NewCreateForm()
		m.syncFormInputs()
		m.view = RouteMovieForm
		return m.focusForm(fieldTitle), nil

	case key.Matches(msg, m.keys.enter):
		item, ok := m.selectedMovie()
		if !ok {
			return m, nil
		}
		m.form = NewEditForm(item.ID)
		m.syncFormInputs()
		m.view = RouteMovieForm
		model := m.focusForm(fieldTitle)
		return model, model.loadMovie(item.ID)

	case key.Matches(msg, m.keys.del):
		item, ok := m.selectedMovie()
		if !ok {
			return m, nil
		}
		m.deleteID = item.ID
		m.deleteTitle = item.Title
		m.view = RouteConfirmDelete
		return m, nil

	case key.Matches(msg, m.keys.open):
		item, ok := m.selectedMovie()
		if !ok || item.ImageURL == "" {
			return m.setInfo("No poster for this movie")
		}
		if err := shared.OpenBrowser(item.ImageURL); err != nil {
			return m.setError("Could not open poster")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.form.Loading() {
		if msg.String() == "esc" {
			m.view = RouteMovies
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.view = RouteMovies
		return m, nil
	case "tab", "down":
		return m.focusForm((m.focus + 1) % len(m.formIn)), nil
	case "shift+tab", "up":
		return m.focusForm((m.focus + len(m.formIn) - 1) % len(m.formIn)), nil
	case "enter":
		m.form.Title = m.formIn[fieldTitle].Value()
		m.form.Year = m.formIn[fieldYear].Value()
		m.form.ImagePath = m.formIn[fieldImage].Value()
		if !m.form.Validate() {
			return m, nil
		}
		return m, m.saveMovie()
	}

	var cmd tea.Cmd
	m.formIn[m.focus], cmd = m.formIn[m.focus].Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes):
		id := m.deleteID
		m.deleteID = ""
		m.deleteTitle = ""
		return m, m.deleteMovie(id)
	case key.Matches(msg, m.keys.no), msg.String() == "esc":
		m.deleteID = ""
		m.deleteTitle = ""
		m.view = RouteMovies
		return m, nil
	}
	return m, nil
}

// applyGate re-runs the route guard for the active view after any session
// change and performs the redirect it demands.
func (m Model) applyGate() (tea.Model, tea.Cmd) {
	result, target := gateFor(m.view, m.snap)
	if result != GateRedirect {
		return m, nil
	}
	if target == RouteMovies {
		return m.gotoMovies()
	}
	m.view = target
	return m.resetAuthInputs(), nil
}

func (m Model) gotoMovies() (tea.Model, tea.Cmd) {
	m.view = RouteMovies
	return m, m.fetchMovies()
}

func (m Model) setInfo(text string) (tea.Model, tea.Cmd) {
	m.status = text
	m.statusErr = false
	return m, clearStatusAfter()
}

func (m Model) setError(text string) (tea.Model, tea.Cmd) {
	m.status = text
	m.statusErr = true
	return m, clearStatusAfter()
}

func (m *Model) syncList() {
	items := make([]list.Item, 0, len(m.pager.Items()))
	for _, movie := range m.pager.Items() {
		items = append(items, movieItem{movie: movie})
	}
	m.list.SetItems(items)
}

func (m *Model) syncFormInputs() {
	m.formIn[fieldTitle].SetValue(m.form.Title)
	m.formIn[fieldYear].SetValue(m.form.Year)
	m.formIn[fieldImage].SetValue(m.form.ImagePath)
}

func (m Model) selectedMovie() (catalog.Movie, bool) {
	item, ok := m.list.SelectedItem().(movieItem)
	if !ok {
		return catalog.Movie{}, false
	}
	return item.movie, true
}

func (m Model) focusAuth(idx int) Model {
	m.focus = idx
	for i := range m.authIn {
		if i == idx {
			m.authIn[i].Focus()
		} else {
			m.authIn[i].Blur()
		}
	}
	return m
}

func (m Model) focusForm(idx int) Model {
	m.focus = idx
	for i := range m.formIn {
		if i == idx {
			m.formIn[i].Focus()
		} else {
			m.formIn[i].Blur()
		}
	}
	return m
}

func (m Model) resetAuthInputs() Model {
	for i := range m.authIn {
		m.authIn[i].SetValue("")
	}
	return m.focusAuth(fieldEmail)
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

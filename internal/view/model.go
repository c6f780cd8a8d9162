package view

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/clientctl/clientctl/internal/clients"
	"github.com/clientctl/clientctl/internal/tableapi"
	"github.com/clientctl/clientctl/internal/theme"
	"github.com/clientctl/clientctl/internal/transport"
	"github.com/clientctl/clientctl/internal/util/pagination"
)

const (
	defaultSearchDebounce = 300 * time.Millisecond
	defaultStatusTTL      = 4 * time.Second
)

type mode int

const (
	modeBrowse mode = iota
	modeSearch
	modeEdit
	modeCreate
	modeConfirmDelete
)

// Field order of the edit and create forms.
const (
	inputName = iota
	inputEmail
	inputPhone
	inputCount
)

type (
	listLoadedMsg struct {
		seq  int
		page clients.Page
		err  error
	}
	savedMsg struct {
		id     string
		record clients.Record
		err    error
	}
	deletedMsg struct {
		id  string
		err error
	}
	createdMsg struct {
		record clients.Record
		err    error
	}
	searchDebounceMsg struct {
		token int
		text  string
	}
	rowStatusExpiredMsg struct {
		id    string
		token int
	}
)

// Option customizes a Model.
type Option func(*Model)

func WithPageSize(n int) Option {
	return func(m *Model) { m.state.PageSize = tableapi.ClampPageSize(n) }
}

func WithSearch(text string) Option {
	return func(m *Model) {
		m.state.Search = strings.TrimSpace(text)
		m.searchInput.SetValue(m.state.Search)
	}
}

func WithPalette(p theme.Palette) Option {
	return func(m *Model) { m.palette = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Model) { m.logger = l }
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) { m.clipboard = write }
}

// WithTimings sets the search debounce and how long row statuses stay
// visible. A non-positive ttl keeps statuses until they are replaced.
func WithTimings(debounce, ttl time.Duration) Option {
	return func(m *Model) {
		m.debounce = debounce
		m.statusTTL = ttl
	}
}

func WithSize(width, height int) Option {
	return func(m *Model) {
		m.width = width
		m.height = height
	}
}

// Model is the bubbletea model of the records view.
type Model struct {
	ctx     context.Context
	adapter transport.Adapter
	logger  *slog.Logger
	palette theme.Palette

	state State
	pager pagination.Controller
	// listSeq identifies the latest list request; older responses are dropped.
	listSeq int

	mode     mode
	selected int
	statuses map[string]RowStatus
	tokens   int
	notice   string

	searchInput textinput.Model
	searchToken int
	debounce    time.Duration

	editID     string
	editInputs []textinput.Model
	editFocus  int

	createInputs []textinput.Model
	createFocus  int
	createErr    string

	pendingDelete string

	spinner   spinner.Model
	spinning  bool
	statusTTL time.Duration
	clipboard func(string) error

	width  int
	height int
}

var _ tea.Model = (*Model)(nil)

// New builds a Model that reads and writes records through adapter.
func New(ctx context.Context, adapter transport.Adapter, opts ...Option) *Model {
	if ctx == nil {
		ctx = context.Background()
	}
	m := &Model{
		ctx:          ctx,
		adapter:      adapter,
		logger:       slog.New(slog.DiscardHandler),
		palette:      theme.Current(),
		state:        State{PageSize: tableapi.DefaultPageSize, Page: 1},
		statuses:     map[string]RowStatus{},
		searchInput:  newSearchInput(),
		debounce:     defaultSearchDebounce,
		statusTTL:    defaultStatusTTL,
		clipboard:    clipboard.WriteAll,
		editInputs:   newFieldInputs(),
		createInputs: newFieldInputs(),
		width:        120,
		height:       24,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.spinner = spinner.New()
	m.spinner.Spinner = spinner.Dot
	m.spinner.Style = m.palette.ForegroundStyle(theme.ColorAccent)
	return m
}

func newSearchInput() textinput.Model {
	in := textinput.New()
	in.Prompt = "/ "
	in.Placeholder = "name, email or phone"
	in.CharLimit = 200
	return in
}

func newFieldInputs() []textinput.Model {
	inputs := make([]textinput.Model, inputCount)

	inputs[inputName] = textinput.New()
	inputs[inputName].Placeholder = "Name"
	inputs[inputName].Prompt = ""

	inputs[inputEmail] = textinput.New()
	inputs[inputEmail].Placeholder = "Email"
	inputs[inputEmail].Prompt = ""

	inputs[inputPhone] = textinput.New()
	inputs[inputPhone].Placeholder = "Phone"
	inputs[inputPhone].Prompt = ""

	for i := range inputs {
		inputs[i].CharLimit = 256
	}
	return inputs
}

// State returns a copy of the current view state.
func (m *Model) State() State {
	s := m.state
	s.Records = append([]clients.Record(nil), m.state.Records...)
	return s
}

func (m *Model) Init() tea.Cmd {
	return m.dispatch(IntentFirst{})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case spinner.TickMsg:
		if !m.state.Loading {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case listLoadedMsg:
		return m, m.applyList(msg)

	case savedMsg:
		if msg.err != nil {
			m.logger.Debug("client update failed", "id", msg.id, "error", msg.err)
			return m, m.setRowStatus(msg.id, RowFailed, msg.err.Error())
		}
		status := m.setRowStatus(msg.id, RowSaved, "Saved")
		return m, tea.Batch(status, m.load(m.pager.Current()))

	case deletedMsg:
		if msg.err != nil {
			m.logger.Debug("client delete failed", "id", msg.id, "error", msg.err)
			return m, m.setRowStatus(msg.id, RowFailed, msg.err.Error())
		}
		delete(m.statuses, msg.id)
		m.removeRecord(msg.id)
		m.notice = fmt.Sprintf("Deleted %s", msg.id)
		return m, m.load(m.pager.Current())

	case createdMsg:
		if msg.err != nil {
			m.createErr = msg.err.Error()
			return m, nil
		}
		m.resetCreateForm()
		m.mode = modeBrowse
		m.notice = fmt.Sprintf("Created %s", msg.record.ID)
		return m, m.dispatch(IntentFirst{})

	case searchDebounceMsg:
		if msg.token != m.searchToken || strings.TrimSpace(msg.text) == m.state.Search {
			return m, nil
		}
		return m, m.dispatch(IntentSearch{Text: msg.text})

	case rowStatusExpiredMsg:
		if st, ok := m.statuses[msg.id]; ok && st.token == msg.token && st.Phase != RowSaving {
			delete(m.statuses, msg.id)
		}
		return m, nil
	}
	return m, nil
}

// dispatch is the single place where intents change state and issue calls.
func (m *Model) dispatch(in Intent) tea.Cmd {
	switch in := in.(type) {
	case IntentFirst:
		return m.navigate(pagination.First)

	case IntentNext:
		return m.navigate(pagination.Next)

	case IntentPrev:
		return m.navigate(pagination.Prev)

	case IntentRefresh:
		return m.load(m.pager.Current())

	case IntentSearch:
		m.state.Search = strings.TrimSpace(in.Text)
		return m.navigate(pagination.First)

	case IntentSave:
		if err := clients.ValidateID(in.ID); err != nil {
			return nil
		}
		status := m.setRowStatus(in.ID, RowSaving, "Saving...")
		adapter, ctx, id, patch := m.adapter, m.ctx, in.ID, in.Fields.Trimmed().Patch()
		return tea.Batch(status, func() tea.Msg {
			rec, err := adapter.Update(ctx, id, patch)
			return savedMsg{id: id, record: rec, err: err}
		})

	case IntentRequestDelete:
		if clients.ValidateID(in.ID) != nil {
			return nil
		}
		m.pendingDelete = in.ID
		m.mode = modeConfirmDelete
		return nil

	case IntentConfirmDelete:
		id := m.pendingDelete
		m.pendingDelete = ""
		m.mode = modeBrowse
		if id == "" {
			return nil
		}
		if !in.Accept {
			m.notice = "Delete cancelled"
			return nil
		}
		status := m.setRowStatus(id, RowSaving, "Deleting...")
		adapter, ctx := m.adapter, m.ctx
		return tea.Batch(status, func() tea.Msg {
			return deletedMsg{id: id, err: adapter.Delete(ctx, id)}
		})

	case IntentCreate:
		fields := in.Fields.Trimmed()
		if err := fields.Validate(); err != nil {
			m.createErr = err.Error()
			return nil
		}
		m.createErr = ""
		adapter, ctx := m.adapter, m.ctx
		return func() tea.Msg {
			rec, err := adapter.Create(ctx, fields)
			return createdMsg{record: rec, err: err}
		}

	case IntentYank:
		if in.ID == "" {
			return nil
		}
		if err := m.clipboard(in.ID); err != nil {
			m.notice = fmt.Sprintf("Copy failed: %v", err)
			return nil
		}
		m.notice = fmt.Sprintf("Copied %s", in.ID)
		return nil
	}
	return nil
}

// load issues a list request for cursor. Only the latest issued request is
// applied when responses arrive out of order.
// navigate moves the cursor stack and loads the resulting page. Disabled
// moves issue no request.
func (m *Model) navigate(d pagination.Direction) tea.Cmd {
	cursor, ok := m.pager.Navigate(d)
	if !ok {
		m.logger.Debug("page navigation ignored", "direction", d.String(), "depth", m.pager.Depth())
		return nil
	}
	m.logger.Debug("page navigation", "direction", d.String(), "depth", m.pager.Depth())
	return m.load(cursor)
}

func (m *Model) load(cursor string) tea.Cmd {
	m.listSeq++
	seq := m.listSeq
	m.state.Loading = true
	m.state.Cursor = cursor
	m.syncPager()

	adapter, ctx := m.adapter, m.ctx
	query := transport.ListQuery{Search: m.state.Search, PageSize: m.state.PageSize, Offset: cursor}
	fetch := func() tea.Msg {
		page, err := adapter.List(ctx, query)
		return listLoadedMsg{seq: seq, page: page, err: err}
	}

	if m.spinning {
		return fetch
	}
	m.spinning = true
	return tea.Batch(fetch, m.spinner.Tick)
}

func (m *Model) applyList(msg listLoadedMsg) tea.Cmd {
	if msg.seq != m.listSeq {
		m.logger.Debug("discarding stale list response", "seq", msg.seq, "latest", m.listSeq)
		return nil
	}

	m.state.Loading = false
	if msg.err != nil {
		m.state.Err = msg.err.Error()
		m.state.Records = nil
		m.pager.Observe("")
	} else {
		m.state.Err = ""
		m.state.Records = msg.page.Records
		m.pager.Observe(msg.page.Offset)
	}
	m.syncPager()
	m.selected = clampIndex(m.selected, len(m.state.Records))
	return nil
}

func (m *Model) syncPager() {
	m.state.Page = m.pager.PageNumber()
	m.state.HasNext = m.pager.HasNext()
	m.state.HasPrev = m.pager.HasPrev()
}

func (m *Model) setRowStatus(id string, phase RowPhase, text string) tea.Cmd {
	m.tokens++
	token := m.tokens
	m.statuses[id] = RowStatus{Phase: phase, Text: text, token: token}
	if phase == RowSaving || m.statusTTL <= 0 {
		return nil
	}
	return tea.Tick(m.statusTTL, func(time.Time) tea.Msg {
		return rowStatusExpiredMsg{id: id, token: token}
	})
}

func (m *Model) removeRecord(id string) {
	records := m.state.Records[:0:0]
	for _, rec := range m.state.Records {
		if rec.ID != id {
			records = append(records, rec)
		}
	}
	m.state.Records = records
	m.selected = clampIndex(m.selected, len(records))
}

func (m *Model) selectedRecord() (clients.Record, bool) {
	if m.selected < 0 || m.selected >= len(m.state.Records) {
		return clients.Record{}, false
	}
	return m.state.Records[m.selected], true
}

func (m *Model) resetCreateForm() {
	m.createInputs = newFieldInputs()
	m.createFocus = 0
	m.createErr = ""
}

func clampIndex(i, n int) int {
	if n == 0 || i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func fieldsFrom(inputs []textinput.Model) clients.Fields {
	return clients.Fields{
		Name:  inputs[inputName].Value(),
		Email: inputs[inputEmail].Value(),
		Phone: inputs[inputPhone].Value(),
	}
}

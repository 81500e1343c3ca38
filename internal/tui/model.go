package tui

import (
	"context"
	"time"

	"codenav/internal/app"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type focusArea int

const (
	focusRepo focusArea = iota
	focusQuestion
	focusFiles
	focusPreview
	focusAnswer
	focusHistory
)

type keyMap struct {
	Quit      key.Binding
	FocusNext key.Binding
	FocusPrev key.Binding
	Enter     key.Binding
	Up        key.Binding
	Down      key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:      key.NewBinding(key.WithKeys("ctrl+c")),
		FocusNext: key.NewBinding(key.WithKeys("tab")),
		FocusPrev: key.NewBinding(key.WithKeys("shift+tab")),
		Enter:     key.NewBinding(key.WithKeys("enter")),
		Up:        key.NewBinding(key.WithKeys("up", "k")),
		Down:      key.NewBinding(key.WithKeys("down", "j")),
	}
}

// Messages produced by async commands. Status messages carry the indexing
// epoch they belong to; preview messages carry the selection generation.
// The session drops anything stale.
type statusFetchedMsg struct {
	epoch   int
	summary app.IndexSummary
	err     error
}

type indexStartedMsg struct {
	epoch   int
	summary app.IndexSummary
	err     error
}

type pollUpdateMsg struct {
	epoch   int
	summary app.IndexSummary
}

type pollDoneMsg struct {
	epoch int
}

type answerMsg struct {
	question string
	resp     app.QueryResponse
	err      error
}

type filesMsg struct {
	files []string
	err   error
}

type previewMsg struct {
	gen  int
	path string
	resp app.FileContentResponse
	err  error
}

type spinMsg struct{}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

type Model struct {
	cfg     app.Config
	client  *app.Client
	session *app.Session
	logger  *app.Logger

	theme Theme
	keys  keyMap

	width  int
	height int
	ready  bool
	focus  focusArea

	repoInput     textinput.Model
	questionInput textinput.Model

	fileCursor int
	fileOff    int

	previewVP viewport.Model
	answerVP  viewport.Model
	historyVP viewport.Model

	polling    bool
	statusCh   chan app.IndexSummary
	pollCancel context.CancelFunc

	queriesInFlight int
	spinnerPos      int

	toast    *toast
	toastSeq int
}

func New(cfg app.Config, client *app.Client, logger *app.Logger) *Model {
	repo := textinput.New()
	repo.Placeholder = "/path/to/repository"
	repo.Prompt = ""
	repo.CharLimit = 512
	repo.SetValue(cfg.DefaultRepoPath)
	repo.Focus()

	question := textinput.New()
	question.Placeholder = "Ask about the indexed codebase…"
	question.Prompt = ""
	question.CharLimit = 2000

	return &Model{
		cfg:           cfg,
		client:        client,
		session:       app.NewSession(),
		logger:        logger,
		theme:         NewTheme(),
		keys:          defaultKeyMap(),
		width:         100,
		height:        30,
		focus:         focusRepo,
		repoInput:     repo,
		questionInput: question,
	}
}

// Init fetches the service's current status once so a session started while
// the backend is mid-index picks up where the server is.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.fetchInitialStatus())
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case statusFetchedMsg:
		if msg.err != nil {
			// Startup fetch only; the session stays not_indexed.
			m.logger.Error("status fetch failed", map[string]interface{}{"error": msg.err.Error()})
			return m, nil
		}
		applied, becameIndexed := m.session.ApplySummary(msg.epoch, msg.summary)
		var cmds []tea.Cmd
		if applied && msg.summary.Status == app.StatusIndexing {
			cmds = append(cmds, m.startPolling(msg.epoch))
		}
		if becameIndexed {
			cmds = append(cmds, m.fetchFiles())
		}
		return m, tea.Batch(cmds...)

	case indexStartedMsg:
		if msg.err != nil {
			m.session.ApplyStatusError(msg.epoch, msg.err)
			return m, m.showToast(toastError, msg.err.Error())
		}
		applied, becameIndexed := m.session.ApplySummary(msg.epoch, msg.summary)
		cmds := []tea.Cmd{m.showToast(toastSuccess, "Indexing started.")}
		if applied && msg.summary.Status == app.StatusIndexing {
			cmds = append(cmds, m.startPolling(msg.epoch))
		}
		if becameIndexed {
			cmds = append(cmds, m.fetchFiles())
		}
		return m, tea.Batch(cmds...)

	case pollUpdateMsg:
		if msg.epoch != m.session.Epoch() {
			// A superseded run; its channel is being torn down.
			return m, nil
		}
		_, becameIndexed := m.session.ApplySummary(msg.epoch, msg.summary)
		cmds := []tea.Cmd{m.waitPoll(msg.epoch)}
		if becameIndexed {
			cmds = append(cmds, m.fetchFiles())
		}
		return m, tea.Batch(cmds...)

	case pollDoneMsg:
		if msg.epoch == m.session.Epoch() {
			m.polling = false
		}
		return m, nil

	case answerMsg:
		if m.queriesInFlight > 0 {
			m.queriesInFlight--
		}
		if msg.err != nil {
			// A failed question does not invalidate a successful index.
			return m, m.showToast(toastError, msg.err.Error())
		}
		m.session.ApplyAnswer(msg.question, msg.resp)
		m.updateAnswerViewport()
		m.updateHistoryViewport()
		return m, m.showToast(toastSuccess, "Query complete.")

	case filesMsg:
		if msg.err != nil {
			// Non-fatal: the session stays usable without a file browser.
			m.logger.Error("file list refresh failed", map[string]interface{}{"error": msg.err.Error()})
			return m, nil
		}
		m.session.SetFiles(msg.files)
		if m.fileCursor >= len(msg.files) {
			m.fileCursor = 0
			m.fileOff = 0
		}
		return m, nil

	case previewMsg:
		if msg.err != nil {
			m.session.ApplyPreviewError(msg.gen, msg.err)
			return m, nil
		}
		if m.session.ApplyPreview(msg.gen, msg.resp) {
			m.updatePreviewViewport()
		}
		return m, nil

	case toastExpireMsg:
		m.expireToast(msg)
		return m, nil

	case spinMsg:
		m.spinnerPos = (m.spinnerPos + 1) % len(spinnerFrames)
		if m.busy() {
			return m, m.spinTick()
		}
		return m, nil
	}

	return m, m.routeToFocused(msg)
}

func (m *Model) busy() bool {
	return m.polling || m.queriesInFlight > 0 || m.session.FileLoading
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stopPolling()
		return m, tea.Quit

	case key.Matches(msg, m.keys.FocusNext):
		m.cycleFocus(1)
		return m, nil

	case key.Matches(msg, m.keys.FocusPrev):
		m.cycleFocus(-1)
		return m, nil

	case key.Matches(msg, m.keys.Enter):
		switch m.focus {
		case focusRepo:
			return m, m.requestIndex()
		case focusQuestion:
			return m, m.submitQuestion()
		case focusFiles:
			return m, m.selectFile()
		}
		return m, nil
	}

	// Text inputs swallow everything else, including j/k.
	if m.focus == focusRepo || m.focus == focusQuestion {
		return m, m.routeToFocused(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		if m.focus == focusFiles {
			m.moveFileCursor(-1)
			return m, nil
		}
	case key.Matches(msg, m.keys.Down):
		if m.focus == focusFiles {
			m.moveFileCursor(1)
			return m, nil
		}
	}

	return m, m.routeToFocused(msg)
}

func (m *Model) routeToFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focus {
	case focusRepo:
		m.repoInput, cmd = m.repoInput.Update(msg)
	case focusQuestion:
		m.questionInput, cmd = m.questionInput.Update(msg)
	case focusPreview:
		m.previewVP, cmd = m.previewVP.Update(msg)
	case focusAnswer:
		m.answerVP, cmd = m.answerVP.Update(msg)
	case focusHistory:
		m.historyVP, cmd = m.historyVP.Update(msg)
	}
	return cmd
}

func (m *Model) cycleFocus(delta int) {
	areas := []focusArea{focusRepo, focusQuestion, focusFiles, focusPreview, focusAnswer, focusHistory}
	idx := 0
	for i, a := range areas {
		if a == m.focus {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(areas)) % len(areas)
	m.focus = areas[idx]

	if m.focus == focusRepo {
		m.repoInput.Focus()
	} else {
		m.repoInput.Blur()
	}
	if m.focus == focusQuestion {
		m.questionInput.Focus()
	} else {
		m.questionInput.Blur()
	}
}

func (m *Model) moveFileCursor(delta int) {
	n := len(m.session.Files)
	if n == 0 {
		return
	}
	m.fileCursor += delta
	if m.fileCursor < 0 {
		m.fileCursor = 0
	}
	if m.fileCursor >= n {
		m.fileCursor = n - 1
	}
	visible := m.fileListHeight()
	if visible < 1 {
		visible = 1
	}
	if m.fileCursor < m.fileOff {
		m.fileOff = m.fileCursor
	}
	if m.fileCursor >= m.fileOff+visible {
		m.fileOff = m.fileCursor - visible + 1
	}
}

// --- Operations ---

func (m *Model) fetchInitialStatus() tea.Cmd {
	epoch := m.session.Epoch()
	client := m.client
	timeout := m.cfg.RequestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		sum, err := client.Status(ctx)
		return statusFetchedMsg{epoch: epoch, summary: sum, err: err}
	}
}

func (m *Model) requestIndex() tea.Cmd {
	path, epoch, err := m.session.StartIndex(m.repoInput.Value())
	if err != nil {
		return m.showToast(toastError, "Please provide a repository path.")
	}
	m.stopPolling()
	m.fileCursor = 0
	m.fileOff = 0
	m.previewVP.SetContent("")

	client := m.client
	timeout := m.cfg.RequestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		sum, err := client.Index(ctx, path)
		return indexStartedMsg{epoch: epoch, summary: sum, err: err}
	}
}

func (m *Model) submitQuestion() tea.Cmd {
	m.session.Question = m.questionInput.Value()
	q, err := m.session.BeginQuestion()
	if err != nil {
		switch err.(type) {
		case *app.ValidationError:
			return m.showToast(toastError, "Please enter a question.")
		case *app.NotReadyError:
			return m.showToast(toastError, "Index a repository before asking questions.")
		}
		return m.showToast(toastError, err.Error())
	}

	// Concurrent submissions are allowed; each lands in history in
	// response-arrival order.
	m.queriesInFlight++
	client := m.client
	timeout := m.cfg.RequestTimeout()
	ask := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := client.Ask(ctx, q)
		return answerMsg{question: q, resp: resp, err: err}
	}
	return tea.Batch(ask, m.spinTick())
}

func (m *Model) fetchFiles() tea.Cmd {
	client := m.client
	timeout := m.cfg.RequestTimeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		files, err := client.Files(ctx)
		return filesMsg{files: files, err: err}
	}
}

func (m *Model) selectFile() tea.Cmd {
	files := m.session.Files
	if m.fileCursor < 0 || m.fileCursor >= len(files) {
		return nil
	}
	path := files[m.fileCursor]
	gen := m.session.SelectFile(path)
	m.previewVP.SetContent("")

	client := m.client
	timeout := m.cfg.RequestTimeout()
	fetch := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := client.FileContent(ctx, path)
		return previewMsg{gen: gen, path: path, resp: resp, err: err}
	}
	return tea.Batch(fetch, m.spinTick())
}

// --- Polling ---

// startPolling runs the status poller on its own goroutine and bridges its
// summaries into the update loop over a channel. The poller itself enforces
// at most one outstanding fetch; the epoch tag lets the session discard a
// run superseded by a re-index.
func (m *Model) startPolling(epoch int) tea.Cmd {
	m.stopPolling()

	ctx, cancel := context.WithCancel(context.Background())
	m.pollCancel = cancel
	ch := make(chan app.IndexSummary, 8)
	m.statusCh = ch
	m.polling = true

	poller := app.NewPoller(m.client, m.cfg.PollInterval())
	go func() {
		_ = poller.Run(ctx, func(sum app.IndexSummary) bool {
			select {
			case ch <- sum:
				return true
			case <-ctx.Done():
				return false
			}
		})
		close(ch)
	}()

	return tea.Batch(m.waitPoll(epoch), m.spinTick())
}

func (m *Model) waitPoll(epoch int) tea.Cmd {
	ch := m.statusCh
	return func() tea.Msg {
		sum, ok := <-ch
		if !ok {
			return pollDoneMsg{epoch: epoch}
		}
		return pollUpdateMsg{epoch: epoch, summary: sum}
	}
}

func (m *Model) stopPolling() {
	if m.pollCancel != nil {
		m.pollCancel()
		m.pollCancel = nil
	}
	m.polling = false
}

func (m *Model) spinTick() tea.Cmd {
	return tea.Tick(90*time.Millisecond, func(time.Time) tea.Msg { return spinMsg{} })
}

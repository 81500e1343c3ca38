package tui

import (
	"fmt"
	"strings"

	"codenav/internal/app"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

type layoutInfo struct {
	MainH int

	LeftW  int
	MidW   int
	RightW int

	FilesH   int
	PreviewH int
	AnswerH  int
	HistoryH int
}

func (m *Model) computeLayout() layoutInfo {
	top := 1
	foot := 1
	inputsH := 3
	mainH := m.height - top - foot - inputsH
	if mainH < 6 {
		mainH = 6
	}

	leftW := m.width * 30 / 100
	if leftW < 24 {
		leftW = 24
	}
	rightW := m.width * 30 / 100
	if rightW < 28 {
		rightW = 28
	}
	midW := m.width - leftW - rightW
	if midW < 30 {
		midW = 30
	}

	filesH := mainH / 2
	answerH := mainH * 55 / 100

	return layoutInfo{
		MainH:    mainH,
		LeftW:    leftW,
		MidW:     midW,
		RightW:   rightW,
		FilesH:   filesH,
		PreviewH: mainH - filesH,
		AnswerH:  answerH,
		HistoryH: mainH - answerH,
	}
}

func (m *Model) layout() {
	l := m.computeLayout()
	vpW := func(w int) int { return maxInt(10, w-4) }
	vpH := func(h int) int { return maxInt(1, h-3) }

	if !m.ready {
		m.previewVP = viewport.New(vpW(l.LeftW), vpH(l.PreviewH))
		m.answerVP = viewport.New(vpW(l.MidW), vpH(l.AnswerH))
		m.historyVP = viewport.New(vpW(l.MidW), vpH(l.HistoryH))
		m.ready = true
	} else {
		m.previewVP.Width, m.previewVP.Height = vpW(l.LeftW), vpH(l.PreviewH)
		m.answerVP.Width, m.answerVP.Height = vpW(l.MidW), vpH(l.AnswerH)
		m.historyVP.Width, m.historyVP.Height = vpW(l.MidW), vpH(l.HistoryH)
	}

	m.repoInput.Width = maxInt(10, m.width/2-6)
	m.questionInput.Width = maxInt(10, m.width-m.width/2-6)
	m.updateAnswerViewport()
	m.updateHistoryViewport()
	m.updatePreviewViewport()
}

func (m *Model) fileListHeight() int {
	return maxInt(1, m.computeLayout().FilesH-3)
}

func (m *Model) View() string {
	if !m.ready {
		m.layout()
	}
	l := m.computeLayout()

	top := m.renderTopBar()
	inputs := m.renderInputs(l)

	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderFiles(l),
		m.renderPreviewPane(l),
	)
	mid := lipgloss.JoinVertical(lipgloss.Left,
		m.renderAnswerPane(l),
		m.renderHistoryPane(l),
	)
	right := m.renderRiskPane(l)

	main := lipgloss.JoinHorizontal(lipgloss.Top, left, mid, right)
	footer := m.renderFooter()

	return lipgloss.JoinVertical(lipgloss.Left, top, inputs, main, footer)
}

func (m *Model) renderTopBar() string {
	sum := m.session.Summary

	left := m.theme.TopBarTitle.Render("codenav")
	badge := m.statusBadge(sum.Status)

	var meta []string
	if sum.Repo != "" {
		meta = append(meta, sum.Repo)
	}
	if sum.Files != nil && sum.Chunks != nil {
		meta = append(meta, fmt.Sprintf("%d files, %d chunks indexed", *sum.Files, *sum.Chunks))
	}
	if sum.Detail != "" {
		meta = append(meta, sum.Detail)
	}

	var spin string
	if m.busy() {
		spin = m.theme.Spinner.Render(spinnerFrames[m.spinnerPos])
	}

	parts := []string{left, badge}
	if len(meta) > 0 {
		parts = append(parts, m.theme.TopBarMeta.Render(strings.Join(meta, " · ")))
	}
	if spin != "" {
		parts = append(parts, spin)
	}
	return m.theme.TopBar.Width(m.width).Render(strings.Join(parts, "  "))
}

func (m *Model) statusBadge(status app.IndexStatus) string {
	label := strings.ReplaceAll(string(status), "_", " ")
	switch status {
	case app.StatusIndexed:
		return m.theme.StatusIndexed.Render(label)
	case app.StatusIndexing:
		return m.theme.StatusIndexing.Render(label)
	case app.StatusError:
		return m.theme.StatusError.Render(label)
	default:
		return m.theme.StatusNotReady.Render(label)
	}
}

func (m *Model) renderInputs(l layoutInfo) string {
	repoBox := m.theme.InputBox
	if m.focus == focusRepo {
		repoBox = m.theme.InputBoxF
	}
	questionBox := m.theme.InputBox
	if m.focus == focusQuestion {
		questionBox = m.theme.InputBoxF
	}
	repo := repoBox.Width(maxInt(12, m.width/2-2)).Render("Repo " + m.repoInput.View())
	question := questionBox.Width(maxInt(12, m.width-m.width/2-2)).Render("Ask " + m.questionInput.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, repo, question)
}

func (m *Model) renderPane(title, content string, w, h int, focused bool) string {
	box := m.theme.Pane
	titleStyle := m.theme.PaneTitle
	if focused {
		box = m.theme.PaneFocused
		titleStyle = m.theme.PaneTitleF
	}
	return box.Width(maxInt(10, w-2)).Height(maxInt(3, h-2)).Render(titleStyle.Render(title) + "\n" + content)
}

func (m *Model) renderFiles(l layoutInfo) string {
	files := m.session.Files
	title := fmt.Sprintf("Files (%d)", len(files))

	var content string
	if len(files) == 0 {
		content = m.theme.Muted.Render("Index a repository to see files here.")
	} else {
		visible := m.fileListHeight()
		end := m.fileOff + visible
		if end > len(files) {
			end = len(files)
		}
		var b strings.Builder
		for i := m.fileOff; i < end; i++ {
			prefix := "  "
			style := m.theme.ListItem
			if files[i] == m.session.SelectedFile {
				style = m.theme.ListItemSel
			}
			if i == m.fileCursor && m.focus == focusFiles {
				prefix = "> "
				style = m.theme.ListItemSel
			}
			b.WriteString(style.Render(prefix + truncate(files[i], maxInt(8, l.LeftW-8))))
			if i != end-1 {
				b.WriteString("\n")
			}
		}
		content = b.String()
	}
	return m.renderPane(title, content, l.LeftW, l.FilesH, m.focus == focusFiles)
}

func (m *Model) renderPreviewPane(l layoutInfo) string {
	title := "Preview"
	if m.session.SelectedFile != "" {
		title = truncate(m.session.SelectedFile, maxInt(8, l.LeftW-6))
		if m.session.Preview != nil {
			title = fmt.Sprintf("%s (%d lines)", title, m.session.Preview.Lines)
		}
	}

	var content string
	switch {
	case m.session.FileLoading:
		content = m.theme.Muted.Render("Loading…")
	case m.session.FileError != "":
		content = m.theme.StatusError.Render(m.session.FileError)
	case m.session.Preview != nil:
		content = m.previewVP.View()
	default:
		content = m.theme.Muted.Render("Select a file to preview it.")
	}
	return m.renderPane(title, content, l.LeftW, l.PreviewH, m.focus == focusPreview)
}

func (m *Model) renderAnswerPane(l layoutInfo) string {
	title := fmt.Sprintf("Answer (%d snippets)", len(m.session.Results))
	return m.renderPane(title, m.answerVP.View(), l.MidW, l.AnswerH, m.focus == focusAnswer)
}

func (m *Model) renderHistoryPane(l layoutInfo) string {
	title := fmt.Sprintf("History (%d)", len(m.session.History))
	return m.renderPane(title, m.historyVP.View(), l.MidW, l.HistoryH, m.focus == focusHistory)
}

func (m *Model) renderRiskPane(l layoutInfo) string {
	summary := app.Aggregate(m.session.AllSnippets())
	content := renderRisk(m.theme, summary, maxInt(16, l.RightW-4))
	return m.renderPane("Risk Analyzer", content, l.RightW, l.MainH, false)
}

func (m *Model) renderFooter() string {
	if m.toast != nil {
		style := m.theme.ToastSuccess
		if m.toast.level == toastError {
			style = m.theme.ToastError
		}
		return style.Width(m.width).Render(m.toast.message)
	}
	return m.theme.Footer.Width(m.width).Render("Tab focus · Enter submit/select · ↑/↓ navigate · Ctrl+C quit")
}

// --- Viewport content ---

func (m *Model) updatePreviewViewport() {
	if m.session.Preview == nil {
		m.previewVP.SetContent("")
		return
	}
	m.previewVP.SetContent(m.session.Preview.Content)
	m.previewVP.GotoTop()
}

func (m *Model) updateAnswerViewport() {
	width := maxInt(20, m.answerVP.Width)
	var b strings.Builder

	if m.session.Answer == "" {
		b.WriteString(m.theme.Muted.Render("Index a repository and ask a question to see contextual answers."))
	} else {
		b.WriteString(lipgloss.NewStyle().Width(width).Render(m.session.Answer))
		for i, sn := range m.session.Results {
			b.WriteString("\n\n")
			b.WriteString(m.renderSnippet(i, sn, width))
		}
	}
	m.answerVP.SetContent(b.String())
	m.answerVP.GotoTop()
}

func (m *Model) renderSnippet(i int, sn app.Snippet, width int) string {
	badge := m.riskStyle(sn.Risk.Score).Render(fmt.Sprintf("Risk %d", sn.Risk.Score))
	head := fmt.Sprintf("%s %s  %s  %s",
		m.theme.PaneTitleF.Render(fmt.Sprintf("Result %d", i+1)),
		m.theme.Muted.Render(truncate(sn.File, maxInt(8, width-24))),
		m.theme.Muted.Render(fmt.Sprintf("L%d-%d", sn.LineStart, sn.LineEnd)),
		badge,
	)
	reason := m.theme.Muted.Render(sn.Risk.Reason)
	code := lipgloss.NewStyle().Width(width).Render(sn.Content)
	return head + "\n" + reason + "\n" + code
}

func (m *Model) riskStyle(score int) lipgloss.Style {
	switch app.ClassifyScore(score) {
	case app.SeverityHigh:
		return m.theme.RiskHigh
	case app.SeverityMedium:
		return m.theme.RiskMedium
	default:
		return m.theme.RiskLow
	}
}

func (m *Model) updateHistoryViewport() {
	width := maxInt(20, m.historyVP.Width)
	var b strings.Builder

	if len(m.session.History) == 0 {
		b.WriteString(m.theme.Muted.Render("Your past questions will appear here after you run a query."))
	} else {
		for i, entry := range m.session.History {
			head := m.theme.PaneTitleF.Render(truncate(entry.Question, maxInt(8, width-8))) +
				"  " + m.theme.Muted.Render(entry.CreatedAt.Format("15:04:05"))
			b.WriteString(head)
			b.WriteString("\n")
			b.WriteString(lipgloss.NewStyle().Width(width).Render(entry.Answer))
			meta := fmt.Sprintf("%d snippets", len(entry.Results))
			if len(entry.Results) > 0 {
				meta += " · " + entry.Results[0].File
			}
			b.WriteString("\n")
			b.WriteString(m.theme.Muted.Render(meta))
			if i != len(m.session.History)-1 {
				b.WriteString("\n\n")
			}
		}
	}
	m.historyVP.SetContent(b.String())
	m.historyVP.GotoTop()
}

func truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	if maxRunes <= 1 {
		return string(r[:maxRunes])
	}
	return string(r[:maxRunes-1]) + "…"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

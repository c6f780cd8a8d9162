package view

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/clientctl/clientctl/internal/theme"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/wordwrap"
)

// frame is the UI-only context render needs beside State.
type frame struct {
	Palette   theme.Palette
	Width     int
	Mode      string
	Spinner   string
	Selected  int
	Statuses  map[string]RowStatus
	Search    string // search input view, empty when not searching
	EditID    string
	EditViews []string
	Create    []string // create form input views, nil when hidden
	CreateErr string
	ConfirmID string
	Notice    string
}

func (m *Model) View() string {
	f := frame{
		Palette:   m.palette,
		Width:     m.width,
		Mode:      string(m.adapter.Mode()),
		Spinner:   m.spinner.View(),
		Selected:  m.selected,
		Statuses:  m.statuses,
		ConfirmID: m.pendingDelete,
		Notice:    m.notice,
	}
	if m.mode == modeSearch {
		f.Search = m.searchInput.View()
	}
	if m.mode == modeEdit {
		f.EditID = m.editID
		f.EditViews = inputViews(m.editInputs)
	}
	if m.mode == modeCreate {
		f.Create = inputViews(m.createInputs)
		f.CreateErr = m.createErr
	}
	return render(m.state, f)
}

type column struct {
	title string
	min   int
	max   int
}

var columns = []column{
	{title: "ID", min: 6, max: 17},
	{title: "NAME", min: 8, max: 28},
	{title: "EMAIL", min: 8, max: 34},
	{title: "PHONE", min: 6, max: 18},
	{title: "STATUS", min: 6, max: 40},
}

// render draws one screen. The body is exactly one of the loading
// indicator, the error banner, the empty notice or the records table.
func render(s State, f frame) string {
	p := f.Palette
	width := f.Width
	if width <= 0 {
		width = 120
	}

	var sections []string
	sections = append(sections, renderHeader(s, f))

	switch {
	case f.Search != "":
		sections = append(sections, f.Search)
	case s.Search != "":
		sections = append(sections, p.ForegroundStyle(theme.ColorTextSecondary).Render(fmt.Sprintf("Search: %q", s.Search)))
	}

	switch s.Dominant() {
	case DominantLoading:
		sections = append(sections, f.Spinner+" Loading clients...")
	case DominantError:
		banner := lipgloss.NewStyle().
			Foreground(p.Adaptive(theme.ColorDangerText)).
			Background(p.Adaptive(theme.ColorDanger)).
			Padding(0, 1)
		sections = append(sections, banner.Render(wordwrap.String("Error: "+s.Err, max(20, width-4))))
	case DominantEmpty:
		sections = append(sections, p.ForegroundStyle(theme.ColorTextMuted).Render("No clients found."))
	case DominantRecords:
		sections = append(sections, renderTable(s, f, width))
	}

	if f.ConfirmID != "" {
		sections = append(sections, p.ForegroundStyle(theme.ColorWarning).Bold(true).
			Render(fmt.Sprintf("Delete client %s? (y/N)", f.ConfirmID)))
	}
	if f.Create != nil {
		sections = append(sections, renderCreateForm(f))
	}
	if f.Notice != "" {
		sections = append(sections, p.ForegroundStyle(theme.ColorSuccess).Render(f.Notice))
	}
	sections = append(sections, p.ForegroundStyle(theme.ColorTextMuted).Render(helpLine(s, f)))

	return strings.Join(sections, "\n")
}

func renderHeader(s State, f frame) string {
	p := f.Palette
	title := p.ForegroundStyle(theme.ColorPrimary).Bold(true).Render("Clients")
	meta := fmt.Sprintf("page %d", s.Page)
	if s.HasNext {
		meta += " ›"
	}
	if f.Mode != "" {
		meta += " · " + f.Mode
	}
	return title + "  " + p.ForegroundStyle(theme.ColorTextSecondary).Render(meta)
}

func renderTable(s State, f frame, width int) string {
	p := f.Palette
	rows := make([][]string, 0, len(s.Records))
	for _, rec := range s.Records {
		row := []string{rec.ID, rec.Fields.Name, rec.Fields.Email, rec.Fields.Phone, ""}
		if rec.ID == f.EditID && len(f.EditViews) == inputCount {
			copy(row[1:4], f.EditViews)
		}
		if st, ok := f.Statuses[rec.ID]; ok {
			row[4] = st.Text
		}
		rows = append(rows, row)
	}

	widths := columnWidths(rows, width)

	var b strings.Builder
	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = cell(col.title, widths[i])
	}
	b.WriteString("  " + p.ForegroundStyle(theme.ColorTextSecondary).Bold(true).Render(strings.Join(header, " ")))

	for i, row := range rows {
		rec := s.Records[i]
		cells := make([]string, len(row))
		for c := range row {
			cells[c] = cell(row[c], widths[c])
		}
		if st, ok := f.Statuses[rec.ID]; ok {
			cells[4] = statusStyle(p, st.Phase).Render(cells[4])
		}
		line := strings.Join(cells, " ")
		prefix := "  "
		if i == f.Selected {
			prefix = p.ForegroundStyle(theme.ColorAccent).Render("›") + " "
			if rec.ID != f.EditID {
				line = p.BackgroundStyle(theme.ColorHighlight).Render(line)
			}
		}
		b.WriteString("\n" + prefix + line)
	}
	return b.String()
}

func renderCreateForm(f frame) string {
	p := f.Palette
	labels := []string{"Name ", "Email", "Phone"}
	lines := []string{p.ForegroundStyle(theme.ColorPrimary).Bold(true).Render("New client")}
	for i, v := range f.Create {
		lines = append(lines, fmt.Sprintf("  %s  %s", labels[i], v))
	}
	if f.CreateErr != "" {
		lines = append(lines, p.ForegroundStyle(theme.ColorDanger).Render("  "+f.CreateErr))
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Adaptive(theme.ColorBorder)).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

func helpLine(s State, f frame) string {
	switch {
	case f.ConfirmID != "":
		return "y confirm · any other key cancels"
	case f.Create != nil:
		return "tab next field · enter create · esc cancel"
	case f.EditID != "":
		return "tab next field · enter save · esc cancel"
	case f.Search != "":
		return "enter apply · esc close"
	}
	keys := []string{"/ search"}
	if s.HasPrev {
		keys = append(keys, "p prev")
	}
	if s.HasNext {
		keys = append(keys, "n next")
	}
	keys = append(keys, "r refresh", "e edit", "d delete", "c create", "y copy id", "q quit")
	return strings.Join(keys, " · ")
}

func statusStyle(p theme.Palette, phase RowPhase) lipgloss.Style {
	switch phase {
	case RowSaved:
		return p.ForegroundStyle(theme.ColorSuccess)
	case RowFailed:
		return p.ForegroundStyle(theme.ColorDanger)
	default:
		return p.ForegroundStyle(theme.ColorTextMuted)
	}
}

// columnWidths fits the content into width, shrinking the widest flexible
// columns first.
func columnWidths(rows [][]string, width int) []int {
	widths := make([]int, len(columns))
	for i, col := range columns {
		w := runewidth.StringWidth(col.title)
		for _, row := range rows {
			w = max(w, ansi.StringWidth(row[i]))
		}
		widths[i] = min(max(w, col.min), col.max)
	}

	available := width - 2 - (len(columns) - 1)
	for total(widths) > available {
		widest := -1
		for i := range widths {
			if widths[i] > columns[i].min && (widest < 0 || widths[i] > widths[widest]) {
				widest = i
			}
		}
		if widest < 0 {
			break
		}
		widths[widest]--
	}
	return widths
}

func total(widths []int) int {
	n := 0
	for _, w := range widths {
		n += w
	}
	return n
}

// cell truncates s to width and pads it on the right.
func cell(s string, width int) string {
	s = ansi.Truncate(s, width, "…")
	if pad := width - ansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func inputViews(inputs []textinput.Model) []string {
	views := make([]string, len(inputs))
	for i := range inputs {
		views[i] = inputs[i].View()
	}
	return views
}

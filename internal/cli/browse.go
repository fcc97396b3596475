package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/timeline/pkg/core/layout"
	"github.com/matzehuels/timeline/pkg/errors"
	"github.com/matzehuels/timeline/pkg/pipeline"
	"github.com/matzehuels/timeline/pkg/timeline"
)

var (
	browseSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(colorCyan)
	browseBucketStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	browseTabStyle      = lipgloss.NewStyle().Foreground(colorDim).Padding(0, 1)
	browseActiveTab     = lipgloss.NewStyle().Foreground(colorCyan).Bold(true).Padding(0, 1).Underline(true)
	browseBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim).Padding(0, 1)
)

const browseMaxEvents = 5

func (c *CLI) browseCommand() *cobra.Command {
	var (
		df       docFlags
		wrap     bool
		viewport float64
		noCache  bool
	)
	cmd := &cobra.Command{
		Use:   "browse [timeline.yaml]",
		Short: "Explore a timeline interactively",
		Long: `Explore the ruler of a timeline interactively.

Move across buckets with the arrow keys, switch ruler lines with up and
down, press enter to zoom into the selected bucket and backspace to zoom
back out.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args[0], df, wrap, viewport, noCache)
		},
	}
	df.register(cmd)
	cmd.Flags().BoolVar(&wrap, "wrap", true, "grow zoomed grids to fill the viewport")
	cmd.Flags().Float64Var(&viewport, "viewport", 1200, "viewport width in pixels used when zooming")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, input string, df docFlags, wrap bool, viewport float64, noCache bool) error {
	doc, err := df.load(input)
	if err != nil {
		return fmt.Errorf("load %s: %w", input, err)
	}
	runner, err := c.newRunner(noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	res, err := runner.Layout(ctx, doc)
	if err != nil {
		return err
	}
	if len(res.Ruler) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "layout has no ruler lines to browse")
	}

	m := newBrowseModel(ctx, runner, doc, res)
	m.wrap, m.viewport = wrap, viewport
	_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	return err
}

// browseFrame is one level of the zoom history.
type browseFrame struct {
	doc    *timeline.Document
	res    layout.Result
	line   int
	cursor int
}

type zoomedMsg struct {
	z   *pipeline.ZoomResult
	err error
}

type browseModel struct {
	ctx      context.Context
	runner   *pipeline.Runner
	wrap     bool
	viewport float64

	cur     browseFrame
	history []browseFrame
	busy    bool
	err     error
	width   int
}

func newBrowseModel(ctx context.Context, runner *pipeline.Runner, doc *timeline.Document, res layout.Result) browseModel {
	return browseModel{
		ctx:      ctx,
		runner:   runner,
		viewport: 1200,
		cur:      browseFrame{doc: doc, res: res},
		width:    80,
	}
}

func (m browseModel) Init() tea.Cmd { return nil }

func (m browseModel) line() layout.RulerLine {
	return m.cur.res.Ruler[m.cur.line]
}

func (m browseModel) bucket() layout.RulerBucket {
	return m.line().Buckets[m.cur.cursor]
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.key(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case zoomedMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.history = append(m.history, m.cur)
		m.cur = browseFrame{doc: msg.z.Document, res: msg.z.Result}
		if len(m.cur.res.Ruler) == 0 {
			m.cur, m.history = m.history[len(m.history)-1], m.history[:len(m.history)-1]
			m.err = errors.New(errors.ErrCodeRange, "zoomed layout has no ruler")
		}
	}
	return m, nil
}

func (m browseModel) key(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		if m.cur.cursor > 0 {
			m.cur.cursor--
		}
	case "right", "l":
		if m.cur.cursor < len(m.line().Buckets)-1 {
			m.cur.cursor++
		}
	case "home", "g":
		m.cur.cursor = 0
	case "end", "G":
		m.cur.cursor = len(m.line().Buckets) - 1
	case "up", "k":
		if m.cur.line > 0 {
			m.switchLine(m.cur.line - 1)
		}
	case "down", "j":
		if m.cur.line < len(m.cur.res.Ruler)-1 {
			m.switchLine(m.cur.line + 1)
		}
	case "enter", "+", "i":
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.zoom(m.bucket().ID)
	case "backspace", "esc", "-", "o":
		if n := len(m.history); n > 0 && !m.busy {
			m.cur, m.history = m.history[n-1], m.history[:n-1]
			m.err = nil
		}
	}
	return m, nil
}

// switchLine moves to ruler line i, keeping the selected instant.
func (m *browseModel) switchLine(i int) {
	at := m.bucket().Begin
	m.cur.line = i
	buckets := m.line().Buckets
	m.cur.cursor = len(buckets) - 1
	for j, b := range buckets {
		if !b.End.Before(at) {
			m.cur.cursor = j
			break
		}
	}
}

func (m browseModel) zoom(bucket string) tea.Cmd {
	ctx, runner, doc := m.ctx, m.runner, m.cur.doc
	req := pipeline.ZoomRequest{Bucket: bucket, Wrap: m.wrap, ViewportWidth: m.viewport}
	return func() tea.Msg {
		z, err := runner.Zoom(ctx, doc, req)
		return zoomedMsg{z: z, err: err}
	}
}

func (m browseModel) View() string {
	var b strings.Builder
	res := m.cur.res

	title := m.cur.doc.Title
	if title == "" {
		title = appName
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %s · %s .. %s · depth %d",
		res.Scale, res.Window.Begin.Format(displayTime), res.Window.End.Format(displayTime), len(m.history))))
	b.WriteString("\n\n")

	tabs := make([]string, len(res.Ruler))
	for i, l := range res.Ruler {
		style := browseTabStyle
		if i == m.cur.line {
			style = browseActiveTab
		}
		tabs[i] = style.Render(l.Position + " " + l.Scale.String())
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n\n")
	b.WriteString(m.strip())
	b.WriteString("\n\n")
	b.WriteString(browseBoxStyle.Render(m.details()))
	b.WriteString("\n")

	switch {
	case m.busy:
		b.WriteString(StyleDim.Render("zooming..."))
	case m.err != nil:
		b.WriteString(StyleError.Render(iconError + " " + errors.UserMessage(m.err)))
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←/→ bucket  ↑/↓ line  ⏎ zoom in  ⌫ zoom out  q quit"))
	return b.String()
}

// strip renders the buckets around the cursor that fit the terminal.
func (m browseModel) strip() string {
	buckets := m.line().Buckets
	cells := make([]string, len(buckets))
	for i, bk := range buckets {
		style := browseBucketStyle
		if i == m.cur.cursor {
			style = browseSelectedStyle
		}
		cells[i] = style.Render(" " + bk.Key + " ")
	}

	lo, hi := m.cur.cursor, m.cur.cursor+1
	used := lipgloss.Width(cells[m.cur.cursor])
	for grown := true; grown; {
		grown = false
		if hi < len(cells) && used+lipgloss.Width(cells[hi])+1 <= m.width {
			used += lipgloss.Width(cells[hi]) + 1
			hi++
			grown = true
		}
		if lo > 0 && used+lipgloss.Width(cells[lo-1])+1 <= m.width {
			lo--
			used += lipgloss.Width(cells[lo]) + 1
			grown = true
		}
	}

	var out strings.Builder
	if lo > 0 {
		out.WriteString(StyleDim.Render("‹ "))
	}
	out.WriteString(strings.Join(cells[lo:hi], " "))
	if hi < len(cells) {
		out.WriteString(StyleDim.Render(" ›"))
	}
	return out.String()
}

func (m browseModel) details() string {
	bk := m.bucket()
	var events []string
	for _, p := range m.cur.res.Visible() {
		if !p.Start.After(bk.End) && !p.End.Before(bk.Begin) {
			events = append(events, p.ID)
		}
	}
	shown := events
	if len(shown) > browseMaxEvents {
		shown = shown[:browseMaxEvents]
	}

	lines := []string{
		StyleHighlight.Render(bk.ID),
		fmt.Sprintf("%s .. %s", bk.Begin.Format(displayTime), bk.End.Format(displayTime)),
		StyleDim.Render(fmt.Sprintf("x %.2fpx  width %.2fpx", bk.X, bk.Width)),
		fmt.Sprintf("%d events", len(events)),
	}
	for _, id := range shown {
		lines = append(lines, "  "+id)
	}
	if len(events) > len(shown) {
		lines = append(lines, StyleDim.Render(fmt.Sprintf("  and %d more", len(events)-len(shown))))
	}
	return strings.Join(lines, "\n")
}

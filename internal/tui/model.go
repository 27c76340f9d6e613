package tui

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	apperrors "github.com/agbru/spectator/internal/errors"
	"github.com/agbru/spectator/internal/fdprobe"
	"github.com/agbru/spectator/internal/metrics"
	"github.com/agbru/spectator/internal/sysmon"
)

// Source supplies the dashboard with everything it samples. Nil functions
// are skipped.
type Source struct {
	// Pipeline returns the observer and delivery counters.
	Pipeline func() metrics.PipelineStats
	// FD returns the current file-descriptor pressure.
	FD func() fdprobe.Pressure
	// ForceGC triggers a collection through the host.
	ForceGC func() error
	// Memory reads runtime memory statistics.
	Memory *metrics.MemoryCollector
	// System samples system-wide CPU and memory usage.
	System *sysmon.Sampler
}

// LayoutManager holds terminal dimensions and provides layout calculations.
type LayoutManager struct {
	width  int
	height int
}

// bodyHeight returns the available height for the main body panels.
func (l LayoutManager) bodyHeight() int {
	h := l.height - headerHeight - footerHeight
	if h < minBodyHeight {
		h = minBodyHeight
	}
	return h
}

// logsWidth returns the width allocated to the event log panel.
func (l LayoutManager) logsWidth() int {
	return l.width * LogsPanelWidthPercent / 100
}

// rightWidth returns the width allocated to the right column (metrics + chart).
func (l LayoutManager) rightWidth() int {
	return l.width - l.logsWidth()
}

// metricsHeight returns the height allocated to the metrics panel.
func (l LayoutManager) metricsHeight() int {
	body := l.bodyHeight()
	h := MetricsPanelHeight
	if h > body/2 {
		h = body / 2
	}
	return h
}

// chartHeight returns the height allocated to the chart panel.
func (l LayoutManager) chartHeight() int {
	return l.bodyHeight() - l.metricsHeight()
}

// Model is the root bubbletea model for the GC dashboard.
type Model struct {
	header  HeaderModel
	logs    EventLogModel
	metrics MetricsModel
	chart   ChartModel
	footer  FooterModel

	keymap KeyMap

	LayoutManager

	ctx      context.Context
	source   Source
	paused   bool
	done     bool
	exitCode int
}

// NewModel creates a dashboard model bound to ctx.
func NewModel(ctx context.Context, src Source, version string) Model {
	if src.Memory == nil {
		src.Memory = metrics.NewMemoryCollector()
	}
	return Model{
		header:   NewHeaderModel(version),
		logs:     NewEventLogModel(),
		metrics:  NewMetricsModel(),
		chart:    NewChartModel(),
		footer:   NewFooterModel(),
		keymap:   DefaultKeyMap(),
		ctx:      ctx,
		source:   src,
		exitCode: apperrors.ExitSuccess,
	}
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		m.sampleCmds(),
		watchContextCmd(m.ctx),
	)
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutPanels()
		return m, nil

	case GCEventMsg:
		m.header.CountEvent(msg.Record.Type)
		if !m.paused {
			m.logs.AddEvent(msg)
			m.chart.AddEvent(msg.Record)
			m.metrics.UpdateEvent(msg.Record)
		}
		return m, nil

	case TickMsg:
		if m.done {
			return m, nil
		}
		if !m.paused {
			return m, tea.Batch(m.sampleCmds(), tickCmd())
		}
		return m, tickCmd()

	case MemStatsMsg:
		m.metrics.UpdateMemStats(msg)
		return m, nil

	case SysStatsMsg:
		m.chart.UpdateSysStats(msg.CPUPercent, msg.MemPercent)
		return m, nil

	case PipelineMsg:
		m.metrics.UpdatePipeline(msg)
		return m, nil

	case ForcedGCMsg:
		if msg.Err != nil {
			m.logs.AddNote(time.Now(), "forced gc failed: "+msg.Err.Error(), true)
			return m, nil
		}
		m.footer.SetMessage("gc forced")
		return m, nil

	case ContextCancelledMsg:
		m.done = true
		m.exitCode = exitCodeFor(msg.Err)
		m.header.SetDone()
		m.footer.SetDone(true)
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.done = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Pause):
		m.paused = !m.paused
		m.footer.SetPaused(m.paused)
		return m, nil

	case key.Matches(msg, m.keymap.Reset):
		m.header.Reset()
		m.logs.Reset()
		m.chart.Reset()
		m.metrics = NewMetricsModel()
		m.metrics.SetSize(m.rightWidth(), m.metricsHeight())
		m.footer.SetMessage("")
		return m, nil

	case key.Matches(msg, m.keymap.ForceGC):
		if m.source.ForceGC == nil {
			return m, nil
		}
		m.footer.SetMessage("forcing gc...")
		return m, forceGCCmd(m.source.ForceGC)

	case key.Matches(msg, m.keymap.Up), key.Matches(msg, m.keymap.Down),
		key.Matches(msg, m.keymap.PageUp), key.Matches(msg, m.keymap.PageDown):
		m.logs.Update(msg)
		return m, nil
	}

	return m, nil
}

// View renders the entire dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	header := m.header.View()
	footer := m.footer.View()

	// Right column: metrics on top, chart on bottom
	rightCol := lipgloss.JoinVertical(lipgloss.Left, m.metrics.View(), m.chart.View())

	// Render the log panel to match the right column's actual height
	logs := m.logs.renderToHeight(lipgloss.Height(rightCol))

	body := lipgloss.JoinHorizontal(lipgloss.Top, logs, rightCol)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

// Layout constants for the dashboard.
const (
	headerHeight          = 1
	footerHeight          = 1
	minBodyHeight         = 4
	LogsPanelWidthPercent = 55
	MetricsPanelHeight    = 12
)

func (m *Model) layoutPanels() {
	m.header.SetWidth(m.width)
	m.footer.SetWidth(m.width)
	m.logs.SetSize(m.logsWidth(), m.bodyHeight())
	m.metrics.SetSize(m.rightWidth(), m.metricsHeight())
	m.chart.SetSize(m.rightWidth(), m.chartHeight())
}

// Run attaches bridge to a new bubbletea program and runs the dashboard
// until the user quits or ctx ends. It returns the exit code.
func Run(ctx context.Context, bridge *Bridge, src Source, version string) int {
	// Rebuild styles from the current ui theme (set by the app via InitTheme).
	initTUIStyles()

	model := NewModel(ctx, src, version)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	// Events delivered before the program starts block the loop briefly
	// rather than being lost.
	bridge.ref.SetProgram(p)
	defer bridge.ref.SetProgram(nil)

	finalModel, err := p.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return exitCodeFor(ctx.Err())
		}
		return apperrors.ExitErrorGeneric
	}
	if fm, ok := finalModel.(Model); ok {
		return fm.exitCode
	}
	return apperrors.ExitSuccess
}

// exitCodeFor maps the end of the run context to an exit code. An elapsed
// --duration is a clean finish; an interrupt is not.
func exitCodeFor(err error) int {
	if errors.Is(err, context.Canceled) {
		return apperrors.ExitErrorCanceled
	}
	return apperrors.ExitSuccess
}

// sampleCmds returns the commands sampling runtime, system and pipeline state.
func (m Model) sampleCmds() tea.Cmd {
	cmds := []tea.Cmd{sampleMemStatsCmd(m.source.Memory), samplePipelineCmd(m.source)}
	if m.source.System != nil {
		cmds = append(cmds, sampleSysStatsCmd(m.source.System))
	}
	return tea.Batch(cmds...)
}

// tickCmd returns a command that sends a TickMsg after 500ms.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// sampleMemStatsCmd reads runtime memory stats and returns a MemStatsMsg.
func sampleMemStatsCmd(mc *metrics.MemoryCollector) tea.Cmd {
	return func() tea.Msg {
		return MemStatsMsg{
			Snapshot:     mc.Snapshot(),
			NumGoroutine: runtime.NumGoroutine(),
		}
	}
}

// sampleSysStatsCmd reads system-wide CPU and memory stats and returns a SysStatsMsg.
func sampleSysStatsCmd(s *sysmon.Sampler) tea.Cmd {
	return func() tea.Msg {
		st := s.Sample()
		return SysStatsMsg{
			CPUPercent: st.CPUPercent,
			MemPercent: st.MemPercent,
		}
	}
}

func samplePipelineCmd(src Source) tea.Cmd {
	return func() tea.Msg {
		var msg PipelineMsg
		if src.Pipeline != nil {
			msg.Stats = src.Pipeline()
		}
		if src.FD != nil {
			msg.FD = src.FD()
		}
		return msg
	}
}

func forceGCCmd(force func() error) tea.Cmd {
	return func() tea.Msg {
		return ForcedGCMsg{Err: force()}
	}
}

// watchContextCmd waits for context cancellation and sends a message.
func watchContextCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return ContextCancelledMsg{Err: ctx.Err()}
	}
}

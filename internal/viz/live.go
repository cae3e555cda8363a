// Package viz shows a closed loop running live in the terminal.
package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pidlab/internal/control"
	"github.com/san-kum/pidlab/internal/plant"
	"github.com/san-kum/pidlab/internal/sim"
)

const (
	historyCapacity = 400
	chartWidth      = 60
	chartHeight     = 8
	stepsPerTick    = 4
)

type TickMsg time.Time

// Model runs the loop one tick at a time so the terminal can keep up
// with it.
type Model struct {
	ss     *sim.StateSpace
	integ  sim.Integrator
	pid    *control.PID
	gains  control.Gains
	x      sim.State
	u      float64
	t      float64
	dt     float64
	ref    float64
	band   float64
	paused bool
	failed error

	outputHistory  []float64
	controlHistory []float64
}

// NewModel prepares a live closed-loop view. The PID is started here
// and re-armed on reset.
func NewModel(pm *plant.Model, gains control.Gains, reference, dt, tolerance float64, integ sim.Integrator) *Model {
	ss := sim.Realize(pm)
	pid := control.NewPID(gains, dt)
	pid.Start()
	return &Model{
		ss:             ss,
		integ:          integ,
		pid:            pid,
		gains:          gains,
		x:              make(sim.State, ss.Dim()),
		dt:             dt,
		ref:            reference,
		band:           tolerance * math.Abs(reference),
		outputHistory:  make([]float64, 0, historyCapacity),
		controlHistory: make([]float64, 0, historyCapacity),
	}
}

func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "r":
			m.reset()
		case "up", "k":
			m.setReference(m.ref * 1.1)
		case "down", "j":
			m.setReference(m.ref * 0.9)
		}
	case TickMsg:
		if !m.paused && m.failed == nil {
			for i := 0; i < stepsPerTick; i++ {
				m.step()
				if m.failed != nil {
					break
				}
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	y := m.ss.Output(m.x, m.u)
	u, err := m.pid.Step(m.ref - y)
	if err != nil {
		m.failed = err
		return
	}
	m.u = u
	m.x = m.integ.Step(m.ss, m.x, m.u, m.t, m.dt)
	m.t += m.dt

	if !m.x.IsValid() {
		m.failed = fmt.Errorf("response diverged at t=%.2fs", m.t)
		return
	}

	m.outputHistory = appendBounded(m.outputHistory, y)
	m.controlHistory = appendBounded(m.controlHistory, m.u)
}

func appendBounded(hist []float64, v float64) []float64 {
	hist = append(hist, v)
	if len(hist) > historyCapacity {
		hist = hist[1:]
	}
	return hist
}

func (m *Model) reset() {
	m.x = make(sim.State, m.ss.Dim())
	m.u = 0
	m.t = 0
	m.failed = nil
	m.outputHistory = m.outputHistory[:0]
	m.controlHistory = m.controlHistory[:0]
	m.pid.Reset()
	m.pid.Start()
}

// setReference restarts the controller so stale integral action does
// not fight the new setpoint.
func (m *Model) setReference(ref float64) {
	if ref == 0 {
		return
	}
	m.ref = ref
	m.band = m.band / math.Abs(m.ref) * math.Abs(ref)
	m.pid.Reset()
	m.pid.Start()
}

func (m *Model) View() string {
	var s strings.Builder

	s.WriteString(headerStyle.Render("PID CLOSED LOOP") + "\n")
	s.WriteString(m.statusLine() + "\n\n")

	if len(m.outputHistory) > 1 {
		chart := asciigraph.Plot(m.outputHistory,
			asciigraph.Height(chartHeight),
			asciigraph.Width(chartWidth),
			asciigraph.Caption(fmt.Sprintf("Output (reference %.3g)", m.ref)))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}
	if len(m.controlHistory) > 1 {
		chart := asciigraph.Plot(m.controlHistory,
			asciigraph.Height(chartHeight/2),
			asciigraph.Width(chartWidth),
			asciigraph.Caption("Control"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", m.t)) + "\n")
	if len(m.outputHistory) > 0 {
		y := m.outputHistory[len(m.outputHistory)-1]
		s.WriteString(labelStyle.Render("Output") + valueStyle.Render(fmt.Sprintf("%.4g", y)) + "\n")
		s.WriteString(labelStyle.Render("Error") + valueStyle.Render(fmt.Sprintf("%.4g", m.ref-y)) + "\n")
		s.WriteString(labelStyle.Render("In band") + valueStyle.Render(inBandMarker(math.Abs(m.ref-y) <= m.band)) + "\n")
	}
	ti := "-"
	if !math.IsInf(m.gains.Ti, 1) {
		ti = fmt.Sprintf("%.3g", m.gains.Ti)
	}
	s.WriteString(labelStyle.Render("Gains") +
		valueStyle.Render(fmt.Sprintf("Kp=%.3g Ti=%s Td=%.3g", m.gains.Kp, ti, m.gains.Td)) + "\n")

	s.WriteString(helpStyle.Render("space:pause  r:reset  up/down:reference  q:quit"))
	return panelStyle.Render(s.String())
}

func (m *Model) statusLine() string {
	switch {
	case m.failed != nil:
		return statusFailStyle.Render("DIVERGED: " + m.failed.Error())
	case m.paused:
		return statusPauseStyle.Render("PAUSED")
	default:
		return statusRunStyle.Render("RUNNING")
	}
}

func inBandMarker(in bool) string {
	if in {
		return statusRunStyle.Render("yes")
	}
	return statusPauseStyle.Render("no")
}

// Run blocks until the user quits the live view.
func Run(pm *plant.Model, gains control.Gains, reference, dt, tolerance float64, integ sim.Integrator) error {
	_, err := tea.NewProgram(NewModel(pm, gains, reference, dt, tolerance, integ)).Run()
	return err
}

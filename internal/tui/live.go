package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/orbitsim/internal/metrics"
	"github.com/san-kum/orbitsim/internal/nbody"
	"github.com/san-kum/orbitsim/internal/viz"
)

const maxTrail = 600

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Viewer steps a simulation inside the terminal and draws the sampled trails
// as they grow. It integrates the same ticks a batch run would.
type Viewer struct {
	live    nbody.Bodies
	cfg     nbody.Config
	step    int
	trail   nbody.History
	cam     *viz.Camera
	colours []viz.Colour

	speed  int
	paused bool
	err    error
	e0     float64

	width, height int
}

func NewViewer(bodies nbody.Bodies, cfg nbody.Config, seed int64) Viewer {
	live := bodies.Clone()
	v := Viewer{
		live:    live,
		cfg:     cfg,
		trail:   nbody.NewHistory(live, maxTrail),
		cam:     viz.NewCamera(),
		colours: viz.PickColours(len(live), seed),
		speed:   1,
		e0:      metrics.TotalEnergy(live),
		width:   60,
		height:  20,
	}
	for i, b := range live {
		v.trail[i].Append(b.Position)
	}
	return v
}

func (v Viewer) Init() tea.Cmd { return tick() }

func (v Viewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = max(20, msg.Width-2)
		v.height = max(8, msg.Height-6)
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return v, tea.Quit
		case " ":
			v.paused = !v.paused
		case "left", "h":
			v.cam.RotateAzim(-0.1)
		case "right", "l":
			v.cam.RotateAzim(0.1)
		case "up", "k":
			v.cam.RotateElev(0.1)
		case "down", "j":
			v.cam.RotateElev(-0.1)
		case "+", "=":
			v.cam.ZoomIn()
		case "-":
			v.cam.ZoomOut()
		case "]":
			v.speed = min(v.speed*2, 1024)
		case "[":
			v.speed = max(v.speed/2, 1)
		}
		return v, nil

	case tickMsg:
		if !v.paused && !v.Done() {
			v.advance(v.speed)
		}
		return v, tick()
	}
	return v, nil
}

// advance runs up to n ticks. An engine error freezes the viewer on the last
// good state.
func (v *Viewer) advance(n int) {
	for i := 0; i < n && !v.Done(); i++ {
		if err := nbody.Step(v.live, v.cfg.Dt); err != nil {
			v.err = &nbody.SimulationError{Step: v.step + 1, Wrapped: err}
			return
		}
		v.step++
		if v.step%v.cfg.ReportFrequency == 0 {
			for k, b := range v.live {
				tr := &v.trail[k]
				tr.Append(b.Position)
				if tr.Len() > maxTrail {
					tr.X, tr.Y, tr.Z = tr.X[1:], tr.Y[1:], tr.Z[1:]
				}
			}
		}
	}
}

// Done reports whether the run has reached its final tick or failed.
func (v Viewer) Done() bool {
	return v.err != nil || v.step >= v.cfg.Steps-1
}

func (v Viewer) Err() error { return v.err }

func (v Viewer) View() string {
	var b strings.Builder

	b.WriteString(viz.Title.Render("orbitsim live"))
	b.WriteString("  ")
	b.WriteString(viz.MetricLabel.Render("tick "))
	b.WriteString(viz.MetricValue.Render(fmt.Sprintf("%d/%d", v.step, max(v.cfg.Steps-1, 0))))
	b.WriteString(viz.MetricLabel.Render("  t="))
	b.WriteString(viz.MetricValue.Render(fmt.Sprintf("%.4g", float64(v.step)*v.cfg.Dt)))
	b.WriteString(viz.MetricLabel.Render("  x"))
	b.WriteString(viz.MetricValue.Render(fmt.Sprintf("%d", v.speed)))
	if v.e0 != 0 {
		drift := (metrics.TotalEnergy(v.live) - v.e0) / v.e0
		b.WriteString(viz.MetricLabel.Render("  dE/E="))
		b.WriteString(viz.MetricValue.Render(fmt.Sprintf("%.2e", drift)))
	}
	b.WriteString("\n")

	b.WriteString(viz.RenderTerminal(viz.NewScene(v.trail), v.cam, v.colours, v.width, v.height))

	switch {
	case v.err != nil:
		b.WriteString(viz.StatusError.Render(v.err.Error()))
	case v.Done():
		b.WriteString(viz.StatusOK.Render("finished"))
	case v.paused:
		b.WriteString(viz.Subtle.Render("paused"))
	}
	b.WriteString("\n")
	b.WriteString(viz.KeyHint.Render("space pause  arrows rotate  +/- zoom  [/] speed  q quit"))
	return b.String()
}

// RunViewer shows bodies orbiting until the user quits.
func RunViewer(bodies nbody.Bodies, cfg nbody.Config, seed int64, opts ...tea.ProgramOption) error {
	if err := nbody.Validate(bodies, cfg); err != nil {
		return err
	}
	final, err := tea.NewProgram(NewViewer(bodies, cfg, seed), opts...).Run()
	if err != nil {
		return err
	}
	return final.(Viewer).Err()
}

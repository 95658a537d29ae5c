package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/orbitsim/internal/nbody"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
)

var ErrCancelled = errors.New("tui: input cancelled")

type phase int

const (
	phaseBody phase = iota
	phaseRun
	phaseDone
)

type field struct {
	prompt string
	parse  func(string) (float64, error)
}

var bodyFields = []field{
	{"Enter the name of the body or 0 to quit", nil},
	{"Enter the body's initial 'x' coordinate", parseFloat},
	{"Enter the body's initial 'y' coordinate", parseFloat},
	{"Enter the body's initial 'z' coordinate", parseFloat},
	{"Enter the mass of the body", parseMass},
	{"Enter the body's initial 'x' velocity", parseFloat},
	{"Enter the body's initial 'y' velocity", parseFloat},
	{"Enter the body's initial 'z' velocity", parseFloat},
}

var runFields = []field{
	{"Enter the total number of steps", parseCount},
	{"Enter how large you want the time interval between steps to be", parseFloat},
	{"Enter the number of steps between each log", parseCount},
}

// Form collects bodies one field at a time. An empty name or "0" ends body
// entry; fewer than two bodies restarts it.
type Form struct {
	phase  phase
	field  int
	input  string
	errMsg string
	notice string

	name   string
	values []float64
	bodies nbody.Bodies
	run    []float64

	cancelled bool
}

func NewForm() Form {
	return Form{values: make([]float64, 0, len(bodyFields)-1)}
}

func (f Form) Init() tea.Cmd { return nil }

func (f Form) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return f, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		f.cancelled = true
		return f, tea.Quit
	case tea.KeyBackspace:
		if len(f.input) > 0 {
			r := []rune(f.input)
			f.input = string(r[:len(r)-1])
		}
		return f, nil
	case tea.KeyEnter:
		return f.commit()
	case tea.KeySpace:
		f.input += " "
		return f, nil
	case tea.KeyRunes:
		f.input += string(key.Runes)
		return f, nil
	}
	return f, nil
}

func (f Form) commit() (Form, tea.Cmd) {
	text := strings.TrimSpace(f.input)
	f.input = ""
	f.errMsg = ""

	switch f.phase {
	case phaseBody:
		if f.field == 0 {
			if text == "" || text == "0" {
				if len(f.bodies) < 2 {
					f.notice = "Sorry, we need at least two bodies to simulate"
					f.bodies = nil
					return f, nil
				}
				f.notice = ""
				f.phase = phaseRun
				f.field = 0
				return f, nil
			}
			f.notice = ""
			f.name = text
			f.values = f.values[:0]
			f.field++
			return f, nil
		}

		v, err := bodyFields[f.field].parse(text)
		if err != nil {
			f.errMsg = err.Error()
			return f, nil
		}
		f.values = append(f.values, v)
		f.field++

		if f.field == len(bodyFields) {
			vs := f.values
			f.bodies = append(f.bodies, nbody.Body{
				Name:     f.name,
				Position: nbody.Vector3{X: vs[0], Y: vs[1], Z: vs[2]},
				Mass:     vs[3],
				Velocity: nbody.Vector3{X: vs[4], Y: vs[5], Z: vs[6]},
			})
			f.field = 0
		}
		return f, nil

	case phaseRun:
		v, err := runFields[f.field].parse(text)
		if err != nil {
			f.errMsg = err.Error()
			return f, nil
		}
		f.run = append(f.run, v)
		f.field++
		if f.field == len(runFields) {
			f.phase = phaseDone
			return f, tea.Quit
		}
	}
	return f, nil
}

// Result returns the collected bodies and run parameters once the form is complete.
func (f Form) Result() (nbody.Bodies, nbody.Config, error) {
	if f.cancelled {
		return nil, nbody.Config{}, ErrCancelled
	}
	if f.phase != phaseDone {
		return nil, nbody.Config{}, errors.New("tui: input incomplete")
	}
	cfg := nbody.Config{
		Steps:           int(f.run[0]),
		Dt:              f.run[1],
		ReportFrequency: int(f.run[2]),
	}
	return f.bodies.Clone(), cfg, nil
}

func (f Form) View() string {
	var b strings.Builder

	b.WriteString(cyan.Bold(true).Render("n-body simulation"))
	b.WriteString("\n\n")

	for _, body := range f.bodies {
		fmt.Fprintf(&b, "  %s %s  m=%g  p=%s  v=%s\n",
			green.Render("●"), white.Render(body.Name), body.Mass, body.Position, body.Velocity)
	}
	if len(f.bodies) > 0 {
		b.WriteString("\n")
	}

	if f.notice != "" {
		b.WriteString(yellow.Render(f.notice))
		b.WriteString("\n")
	}

	switch f.phase {
	case phaseBody:
		prompt := bodyFields[f.field].prompt
		if f.field > 0 {
			prompt = dim.Render("["+f.name+"] ") + prompt
		}
		fmt.Fprintf(&b, "%s: %s█\n", prompt, f.input)
	case phaseRun:
		fmt.Fprintf(&b, "%s: %s█\n", runFields[f.field].prompt, f.input)
	case phaseDone:
		b.WriteString(green.Render("Running the simulation..."))
		b.WriteString("\n")
	}

	if f.errMsg != "" {
		b.WriteString(yellow.Render("  " + f.errMsg))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("enter: confirm  esc: cancel"))
	return b.String()
}

// RunForm runs the form full-screen and returns what the user entered.
func RunForm(opts ...tea.ProgramOption) (nbody.Bodies, nbody.Config, error) {
	final, err := tea.NewProgram(NewForm(), opts...).Run()
	if err != nil {
		return nil, nbody.Config{}, err
	}
	return final.(Form).Result()
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

func parseMass(s string) (float64, error) {
	v, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("mass cannot be negative")
	}
	return v, nil
}

func parseCount(s string) (float64, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a whole number: %q", s)
	}
	if n < 1 {
		return 0, fmt.Errorf("must be at least 1")
	}
	return float64(n), nil
}

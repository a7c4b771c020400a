package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/polysim/internal/kinetics"
	"github.com/san-kum/polysim/internal/sim"
)

type progressMsg float64

type doneMsg struct {
	result *sim.EnsembleResult
	err    error
}

// progressModel shows the completed fraction of a running ensemble.
type progressModel struct {
	title    string
	runs     int
	fraction float64
	started  time.Time
	elapsed  time.Duration
	done     bool
	result   *sim.EnsembleResult
	err      error
	cancel   context.CancelFunc
}

func newProgressModel(title string, runs int, cancel context.CancelFunc) progressModel {
	return progressModel{title: title, runs: runs, started: time.Now(), cancel: cancel}
}

func (m progressModel) Init() tea.Cmd { return nil }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			return m, nil
		}
	case progressMsg:
		if f := float64(msg); f > m.fraction {
			m.fraction = f
		}
		m.elapsed = time.Since(m.started)
	case doneMsg:
		m.done = true
		m.result = msg.result
		m.err = msg.err
		m.elapsed = time.Since(m.started)
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	var b strings.Builder

	status := green.Render("●") + " " + green.Render("running")
	switch {
	case m.done && m.err != nil:
		status = red.Render("✕") + " " + red.Render("failed")
	case m.done:
		status = cyan.Render("✓") + " " + cyan.Render("done")
	}
	b.WriteString(fmt.Sprintf("\n   %s  %s\n", cyan.Render(m.title), status))

	completed := int(m.fraction*float64(m.runs) + 0.5)
	b.WriteString(fmt.Sprintf("   %s %s  %s\n",
		progressBar(m.fraction, 36),
		dim.Render(fmt.Sprintf("%d/%d runs", completed, m.runs)),
		dim.Render(m.elapsed.Round(time.Millisecond).String())))

	if m.err != nil {
		b.WriteString("\n   " + red.Render(m.err.Error()) + "\n")
	} else if m.result != nil {
		b.WriteString(fmt.Sprintf("\n   %s %s\n", dim.Render("steps"), white.Render(fmt.Sprint(m.result.Steps))))
	}
	if !m.done {
		b.WriteString("\n" + dim.Render("   q cancel") + "\n")
	}
	return b.String()
}

// RunEnsemble executes an ensemble behind a progress view. The view's
// progress callback replaces any set on cfg.
func RunEnsemble(ctx context.Context, title string, model kinetics.Model, cfg sim.EnsembleConfig, x0 kinetics.Population) (*sim.EnsembleResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(title, cfg.Runs, cancel))
	cfg.Progress = func(f float64) { p.Send(progressMsg(f)) }

	go func() {
		res, err := sim.NewEnsemble(model, cfg).Run(ctx, x0)
		p.Send(doneMsg{result: res, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return nil, err
	}
	m := final.(progressModel)
	return m.result, m.err
}

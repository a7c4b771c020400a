package tui

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/polysim/internal/analysis"
	"github.com/san-kum/polysim/internal/kinetics"
	"github.com/san-kum/polysim/internal/models"
	"github.com/san-kum/polysim/internal/sim"
)

type state int

const (
	stateMenu state = iota
	stateConfig
	stateSim
)

const (
	eventsPerTick = 64
	historyLen    = 120
)

// paramNamesFor lists the editable fields of a kind, in display order.
func paramNamesFor(k models.Kind) []string {
	names := []string{"n", "tstop"}
	if k.Coagulating() {
		names = append(names, "ka", "kb")
	} else {
		names = append(names, "a", "b")
	}
	names = append(names, "nc", "co")
	if k.Secondary() {
		names = append(names, "k2")
	}
	if k.Crowded() {
		names = append(names, "phi", "r_crowder")
	}
	return names
}

type model struct {
	state    state
	cursor   int
	kinds    []models.Kind
	selected models.Kind

	params      map[string]float64
	paramNames  []string
	paramCursor int
	editing     bool
	editBuf     string
	err         error

	running  bool
	paused   bool
	seed     uint64
	stepper  *sim.Stepper
	pop      kinetics.Population
	simTime  float64
	events   int
	counts   map[kinetics.ReactionKind]int
	lengths  []float64
	finished bool
	speed    int

	width  int
	height int
}

func NewInteractiveApp(seed uint64) *model {
	return &model{
		state: stateMenu,
		kinds: models.Kinds(),
		params: map[string]float64{
			"n": 500, "tstop": 5, "a": 1, "b": 0.5, "ka": 0.5, "kb": 0.5,
			"nc": 2, "co": 50, "k2": 0.1, "phi": 0.2, "r_crowder": 2,
		},
		seed:   seed,
		speed:  1,
		width:  80,
		height: 24,
	}
}

func (m model) Init() tea.Cmd { return nil }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.state != stateSim {
			return m, nil
		}
		if m.running && !m.paused && !m.finished {
			for i := 0; i < eventsPerTick*m.speed && !m.finished; i++ {
				m.step()
			}
			m.record()
		}
		if m.running && m.state == stateSim {
			return m, tick()
		}
		return m, nil
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		return m.simKey(msg)
	}
	return m, nil
}

func (m model) menuKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.kinds)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.kinds[m.cursor]
		m.state = stateConfig
		m.paramCursor = 0
		m.paramNames = paramNamesFor(m.selected)
		m.err = nil
	}
	return m, nil
}

func (m model) configKey(msg tea.KeyMsg) (model, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				m.params[m.paramNames[m.paramCursor]] = v
			}
			m.editing = false
			m.editBuf = ""
		case "esc":
			m.editing = false
			m.editBuf = ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if s := msg.String(); len(s) == 1 && strings.ContainsAny(s, "0123456789.-e") {
				m.editBuf += s
			}
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(m.paramNames)-1 {
			m.paramCursor++
		}
	case "left", "h":
		m.adjust(0.9)
	case "right", "l":
		m.adjust(1.1)
	case "enter":
		m.editing = true
		m.editBuf = ""
	case "s":
		if err := m.start(); err != nil {
			m.err = err
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m *model) adjust(factor float64) {
	name := m.paramNames[m.paramCursor]
	v := m.params[name]
	switch name {
	case "n", "nc":
		delta := 1.0
		if name == "n" {
			delta = 50
		}
		if factor < 1 {
			delta = -delta
		}
		v += delta
	default:
		v *= factor
	}
	m.params[name] = v
}

func (m model) simKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.paused = !m.paused
	case "+", "=":
		if m.speed < 64 {
			m.speed *= 2
		}
	case "-":
		if m.speed > 1 {
			m.speed /= 2
		}
	case "r":
		m.seed++
		if err := m.start(); err != nil {
			m.err = err
		}
	case "c":
		m.running = false
		m.state = stateConfig
	}
	return m, nil
}

// buildParams converts the edited values into a parameter record.
func (m *model) buildParams() models.Params {
	p := models.Params{
		Kind: m.selected,
		Nc:   models.I(int(m.params["nc"])),
		Co:   models.F(m.params["co"]),
	}
	if m.selected.Coagulating() {
		p.Ka, p.Kb = models.F(m.params["ka"]), models.F(m.params["kb"])
	} else {
		p.A, p.B = models.F(m.params["a"]), models.F(m.params["b"])
	}
	if m.selected.Secondary() {
		p.K2 = models.F(m.params["k2"])
	}
	if m.selected.Crowded() {
		p.Crowding = models.Crowding{
			Phi:      models.F(m.params["phi"]),
			RMonomer: models.F(1),
			RCrowder: models.F(m.params["r_crowder"]),
		}
	}
	return p
}

func (m *model) start() error {
	n := int(m.params["n"])
	if !(m.params["tstop"] > 0) {
		return kinetics.Invalidf("tstop must be positive")
	}
	km, _, err := models.New(m.buildParams(), n)
	if err != nil {
		return err
	}
	pop, err := kinetics.NewPopulation(n)
	if err != nil {
		return err
	}

	m.stepper = sim.NewStepper(km, rand.New(rand.NewPCG(m.seed, 0)))
	m.pop = pop
	m.simTime = 0
	m.events = 0
	m.counts = make(map[kinetics.ReactionKind]int)
	m.lengths = m.lengths[:0]
	m.finished = false
	m.paused = false
	m.running = true
	m.err = nil
	m.state = stateSim
	return nil
}

func (m *model) step() {
	if m.simTime >= m.params["tstop"] {
		m.finished = true
		return
	}
	next, dt, r, err := m.stepper.Step(m.pop)
	if err != nil {
		m.err = &kinetics.SimulationError{Step: m.events, Time: m.simTime, State: m.pop, Wrapped: err}
		m.finished = true
		return
	}
	m.pop = next
	m.simTime += dt
	m.events++
	m.counts[r.Kind]++
}

func (m *model) record() {
	o := analysis.Observe(m.pop)
	m.lengths = append(m.lengths, o.Length)
	if len(m.lengths) > historyLen {
		m.lengths = m.lengths[1:]
	}
}

func (m model) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.viewSim()
	}
	return ""
}

func (m model) viewMenu() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("           " + cyan.Render("p o l y s i m") + "\n")
	b.WriteString(dimmer.Render("    ╺━━━━━━━━━━━━━━━━━━━━━━━━╸") + "\n")
	b.WriteString("\n")

	for i, k := range m.kinds {
		if i == m.cursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-26s", k)) + dim.Render(k.Info()) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-26s", k)) + dimmer.Render(k.Info()) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select   enter configure   q quit") + "\n")

	return b.String()
}

func (m model) viewConfig() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("      " + cyan.Render(m.selected.String()) + "  " + dim.Render(m.selected.Info()) + "\n")
	b.WriteString(dimmer.Render("      "+strings.Repeat("─", 30)) + "\n\n")

	for i, name := range m.paramNames {
		val := fmt.Sprintf("%10.4g", m.params[name])
		if m.editing && i == m.paramCursor {
			val = fmt.Sprintf("%10s", m.editBuf+"▋")
		}
		if i == m.paramCursor {
			b.WriteString("      " + cyan.Render("▸ ") + white.Render(fmt.Sprintf("%-10s", name)) + magenta.Render(val) + "\n")
		} else {
			b.WriteString("        " + dim.Render(fmt.Sprintf("%-10s", name)) + dim.Render(val) + "\n")
		}
	}

	if m.err != nil {
		b.WriteString("\n      " + red.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(dim.Render("      ↑↓ select  ←→ adjust  enter edit  s start  esc back") + "\n")

	return b.String()
}

func (m model) viewSim() string {
	var b strings.Builder

	statusIcon := green.Render("●")
	statusText := green.Render("running")
	switch {
	case m.err != nil:
		statusIcon, statusText = red.Render("✕"), red.Render("failed")
	case m.finished:
		statusIcon, statusText = cyan.Render("✓"), cyan.Render("done")
	case m.paused:
		statusIcon, statusText = yellow.Render("○"), yellow.Render("paused")
	}
	b.WriteString(fmt.Sprintf("\n   %s %s  %s\n", statusIcon, cyan.Render(m.selected.String()), statusText))

	tstop := m.params["tstop"]
	timeStr := fmt.Sprintf("t=%.3g/%.3g", m.simTime, tstop)
	b.WriteString(fmt.Sprintf("   %s %s  %s\n\n", progressBar(m.simTime/tstop, 36), dim.Render(timeStr), dim.Render(fmt.Sprintf("x%d", m.speed))))

	b.WriteString(m.viewHistogram())

	o := analysis.Observe(m.pop)
	b.WriteString(fmt.Sprintf("\n   %s %s  %s %s  %s %s  %s %s\n",
		dim.Render("monomers"), white.Render(strconv.Itoa(m.pop.Count(1))),
		dim.Render("polymers"), white.Render(fmt.Sprintf("%.0f", o.Number)),
		dim.Render("mass"), white.Render(fmt.Sprintf("%.0f", o.Mass)),
		dim.Render("length"), white.Render(fmt.Sprintf("%.2f", o.Length))))

	var events strings.Builder
	events.WriteString("   ")
	for _, k := range kinetics.ReactionKinds() {
		if c := m.counts[k]; c > 0 {
			events.WriteString(dim.Render(k.String()+"=") + white.Render(strconv.Itoa(c)) + "  ")
		}
	}
	b.WriteString(events.String() + "\n")

	if len(m.lengths) > 1 {
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render("L"), cyan.Render(sparkline(m.lengths, 48))))
	}
	if m.err != nil {
		b.WriteString("\n   " + red.Render(m.err.Error()) + "\n")
	}

	b.WriteString("\n" + dim.Render("   space pause  ±speed  r rerun  c config  q quit") + "\n")

	return b.String()
}

// viewHistogram draws the mass fraction of each aggregate size as
// horizontal bars, merging sizes into rows when they do not fit.
func (m model) viewHistogram() string {
	rows := m.height - 14
	if rows < 8 {
		rows = 8
	}
	barWidth := m.width - 20
	if barWidth < 30 {
		barWidth = 30
	}

	hist := analysis.Histogram(kinetics.BinOf(m.simTime, m.pop))
	if len(hist) == 0 {
		return ""
	}
	per := (len(hist) + rows - 1) / rows
	total := float64(m.pop.Mass())

	var b strings.Builder
	for start := 0; start < len(hist); start += per {
		end := start + per
		if end > len(hist) {
			end = len(hist)
		}
		mass := 0.0
		for _, p := range hist[start:end] {
			mass += p.Mass
		}
		label := strconv.Itoa(hist[start].Size)
		if end-start > 1 {
			label += "-" + strconv.Itoa(hist[end-1].Size)
		}
		w := int(mass / total * float64(barWidth))
		b.WriteString(fmt.Sprintf("   %s %s\n", dim.Render(fmt.Sprintf("%8s", label)), green.Render(strings.Repeat("█", w))))
	}
	return b.String()
}

func RunInteractive(seed uint64) error {
	p := tea.NewProgram(NewInteractiveApp(seed), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Package editor is the terminal profile editor. Every change of an input is
// handed to the auto-save coordinator; the editor itself never saves.
package editor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/fitcoach/internal/autosave"
	"github.com/2beens/fitcoach/internal/notify"
	"github.com/2beens/fitcoach/internal/profile"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
)

const (
	statusLoading = "loading…"
	statusSaved   = "saved"
	statusUnsaved = "unsaved changes"
	statusSaving  = "saving…"

	defaultStatusTick  = 250 * time.Millisecond
	defaultLoadTimeout = 15 * time.Second
)

type coordinator interface {
	Load(p *profile.Profile)
	Edit(field profile.Field, value profile.Value)
	Retry()
	Close() profile.Input
	Draft() profile.Profile
	IsLoaded() bool
	State() autosave.State
}

type profileFetcher interface {
	FetchProfile(ctx context.Context, id int) (*profile.Profile, error)
}

type Options struct {
	Context     context.Context
	ProfileID   int
	Fetcher     profileFetcher
	Coordinator coordinator
	// Notifications feed the toast line, usually a notify.ChanNotifier.
	Notifications <-chan notify.Notification
	StatusTick    time.Duration
}

// Model is the bubbletea model of the profile editor.
type Model struct {
	ctx           context.Context
	profileID     int
	fetcher       profileFetcher
	coordinator   coordinator
	notifications <-chan notify.Notification
	statusTick    time.Duration

	keys   keyMap
	styles styles

	specs  []profile.FieldSpec
	inputs []textinput.Model
	focus  int
	// fieldErrs holds inline errors of inputs that could not be parsed.
	fieldErrs map[profile.Field]string

	email    string
	loadErr  error
	toast    *notify.Notification
	quitting bool
}

func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	statusTick := opts.StatusTick
	if statusTick <= 0 {
		statusTick = defaultStatusTick
	}

	var specs []profile.FieldSpec
	var inputs []textinput.Model
	for _, spec := range profile.Fields() {
		if spec.VerificationOnly {
			continue
		}
		ti := textinput.New()
		ti.Prompt = ""
		ti.Width = 40
		ti.Placeholder = placeholderFor(spec)
		specs = append(specs, spec)
		inputs = append(inputs, ti)
	}

	return Model{
		ctx:           ctx,
		profileID:     opts.ProfileID,
		fetcher:       opts.Fetcher,
		coordinator:   opts.Coordinator,
		notifications: opts.Notifications,
		statusTick:    statusTick,
		keys:          defaultKeyMap(),
		styles:        defaultStyles(),
		specs:         specs,
		inputs:        inputs,
		fieldErrs:     map[profile.Field]string{},
	}
}

func placeholderFor(spec profile.FieldSpec) string {
	switch spec.Kind {
	case profile.KindStrings:
		return "comma separated"
	case profile.KindNumber:
		return "number, empty to clear"
	default:
		if spec.Nullable {
			return "empty to clear"
		}
		return ""
	}
}

type profileLoadedMsg struct {
	profile *profile.Profile
	err     error
}

type notificationMsg notify.Notification

type statusTickMsg time.Time

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		loadProfileCmd(m.ctx, m.fetcher, m.profileID),
		statusTickCmd(m.statusTick),
	}
	if m.notifications != nil {
		cmds = append(cmds, waitForNotificationCmd(m.notifications))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case profileLoadedMsg:
		return m.handleProfileLoaded(msg)

	case notificationMsg:
		n := notify.Notification(msg)
		m.toast = &n
		return m, waitForNotificationCmd(m.notifications)

	case statusTickMsg:
		if m.quitting {
			return m, nil
		}
		return m, statusTickCmd(m.statusTick)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		if unsent := m.coordinator.Close(); len(unsent) > 0 {
			log.Warnf("editor: quit with unsent changes of %v", unsent.Fields())
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Reload):
		if m.coordinator.IsLoaded() && m.loadErr == nil {
			return m, nil
		}
		m.loadErr = nil
		return m, loadProfileCmd(m.ctx, m.fetcher, m.profileID)
	}

	// nothing is editable before the profile is there
	if !m.coordinator.IsLoaded() {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Next):
		return m, m.moveFocus(1)
	case key.Matches(msg, m.keys.Prev):
		return m, m.moveFocus(-1)
	case key.Matches(msg, m.keys.Retry):
		m.coordinator.Retry()
		return m, nil
	}

	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if after := m.inputs[m.focus].Value(); after != before {
		m.inputChanged(m.focus, after)
	}
	return m, cmd
}

func (m *Model) inputChanged(idx int, raw string) {
	spec := m.specs[idx]
	value, err := ParseInput(spec, raw)
	if err != nil {
		m.fieldErrs[spec.Field] = err.Error()
		return
	}
	delete(m.fieldErrs, spec.Field)
	m.coordinator.Edit(spec.Field, value)
}

func (m *Model) moveFocus(delta int) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	return m.inputs[m.focus].Focus()
}

func (m Model) handleProfileLoaded(msg profileLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.loadErr = msg.err
		log.Errorf("editor: load profile [%d]: %s", m.profileID, msg.err)
		return m, nil
	}

	m.loadErr = nil
	m.coordinator.Load(msg.profile)
	draft := m.coordinator.Draft()
	m.email = draft.Email
	for i, spec := range m.specs {
		m.inputs[i].SetValue(FormatValue(draft.Get(spec.Field)))
	}
	m.fieldErrs = map[profile.Field]string{}
	return m, m.inputs[m.focus].Focus()
}

func (m Model) status() string {
	if !m.coordinator.IsLoaded() {
		return statusLoading
	}
	switch m.coordinator.State() {
	case autosave.StateSaving:
		return statusSaving
	case autosave.StatePending:
		return statusUnsaved
	default:
		return statusSaved
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(fmt.Sprintf("Coach profile #%d", m.profileID)))
	b.WriteString("\n")

	if m.loadErr != nil {
		b.WriteString(m.styles.Toast[notify.LevelError].Render("Could not load the profile: " + m.loadErr.Error()))
		b.WriteString("\n")
		b.WriteString(m.styles.Muted.Render("ctrl+l to try again, esc to quit"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.styles.Label.Render("Email"))
	b.WriteString(m.styles.ReadOnly.Render(m.email + "  (changed through email confirmation)"))
	b.WriteString("\n")

	for i, spec := range m.specs {
		label := m.styles.Label
		if i == m.focus && m.coordinator.IsLoaded() {
			label = m.styles.FocusLabel
		}
		b.WriteString(label.Render(spec.Label))
		b.WriteString(m.inputs[i].View())
		b.WriteString("\n")
		if fieldErr, ok := m.fieldErrs[spec.Field]; ok {
			b.WriteString(m.styles.FieldError.Render(fieldErr))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	status := m.status()
	b.WriteString(m.styles.Status[status].Render("● " + status))
	if m.toast != nil {
		b.WriteString("  ")
		b.WriteString(m.styles.Toast[m.toast.Level].Render(m.toast.Title + ": " + m.toast.Message))
	}
	b.WriteString("\n\n")

	var help []string
	for _, binding := range m.keys.help() {
		help = append(help, binding.Help().Key+" "+binding.Help().Desc)
	}
	b.WriteString(m.styles.Muted.Render(strings.Join(help, " • ")))
	b.WriteString("\n")

	return b.String()
}

func loadProfileCmd(ctx context.Context, fetcher profileFetcher, id int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, defaultLoadTimeout)
		defer cancel()
		p, err := fetcher.FetchProfile(ctx, id)
		return profileLoadedMsg{profile: p, err: err}
	}
}

func waitForNotificationCmd(ch <-chan notify.Notification) tea.Cmd {
	return func() tea.Msg {
		n, ok := <-ch
		if !ok {
			return nil
		}
		return notificationMsg(n)
	}
}

func statusTickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

// Run starts the editor and blocks until the user quits.
func Run(opts Options) error {
	m := New(opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx)).Run()
	return err
}

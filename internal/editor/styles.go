package editor

import (
	"github.com/2beens/fitcoach/internal/notify"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	Title      lipgloss.Style
	Label      lipgloss.Style
	FocusLabel lipgloss.Style
	ReadOnly   lipgloss.Style
	FieldError lipgloss.Style
	Muted      lipgloss.Style
	Status     map[string]lipgloss.Style
	Toast      map[notify.Level]lipgloss.Style
}

func defaultStyles() styles {
	const (
		accent  = "#BD93F9"
		text    = "#F8F8F2"
		muted   = "#6272A4"
		success = "#50FA7B"
		warning = "#F1FA8C"
		danger  = "#FF5555"
		info    = "#8BE9FD"
	)

	return styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(accent)).
			MarginBottom(1),
		Label: lipgloss.NewStyle().
			Width(20).
			Foreground(lipgloss.Color(text)),
		FocusLabel: lipgloss.NewStyle().
			Width(20).
			Bold(true).
			Foreground(lipgloss.Color(accent)),
		ReadOnly:   lipgloss.NewStyle().Foreground(lipgloss.Color(muted)),
		FieldError: lipgloss.NewStyle().Foreground(lipgloss.Color(danger)).PaddingLeft(20),
		Muted:      lipgloss.NewStyle().Foreground(lipgloss.Color(muted)),
		Status: map[string]lipgloss.Style{
			statusSaved:   lipgloss.NewStyle().Foreground(lipgloss.Color(success)),
			statusUnsaved: lipgloss.NewStyle().Foreground(lipgloss.Color(warning)),
			statusSaving:  lipgloss.NewStyle().Foreground(lipgloss.Color(info)),
			statusLoading: lipgloss.NewStyle().Foreground(lipgloss.Color(muted)),
		},
		Toast: map[notify.Level]lipgloss.Style{
			notify.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color(info)),
			notify.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color(success)),
			notify.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color(warning)),
			notify.LevelError:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(danger)),
		},
	}
}

package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// FooterModel renders key hints and the run status.
type FooterModel struct {
	keymap  KeyMap
	paused  bool
	done    bool
	err     bool
	message string
	width   int
}

// NewFooterModel creates a footer using the default bindings.
func NewFooterModel() FooterModel {
	return FooterModel{keymap: DefaultKeyMap()}
}

// SetPaused toggles the paused indicator.
func (f *FooterModel) SetPaused(p bool) { f.paused = p }

// SetDone marks the run as finished.
func (f *FooterModel) SetDone(d bool) { f.done = d }

// SetError marks the run as failed.
func (f *FooterModel) SetError(e bool) { f.err = e }

// SetMessage shows a transient note next to the status.
func (f *FooterModel) SetMessage(msg string) { f.message = msg }

// SetWidth updates the available width.
func (f *FooterModel) SetWidth(w int) { f.width = w }

func (f FooterModel) status() string {
	switch {
	case f.err:
		return statusErrorStyle.Render("ERROR")
	case f.done:
		return statusDoneStyle.Render("DONE")
	case f.paused:
		return statusPausedStyle.Render("PAUSED")
	default:
		return statusRunningStyle.Render("OBSERVING")
	}
}

// View renders the footer.
func (f FooterModel) View() string {
	var hints []string
	for _, b := range f.keymap.ShortHelp() {
		h := b.Help()
		hints = append(hints, footerKeyStyle.Render(h.Key)+" "+footerDescStyle.Render(h.Desc))
	}
	left := " " + strings.Join(hints, "  ")
	right := f.status()
	if f.message != "" {
		right = footerDescStyle.Render(f.message) + "  " + right
	}
	right += " "

	gap := f.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + spaces(gap) + right
}

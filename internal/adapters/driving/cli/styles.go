package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// palette holds the styles used for answer output. The zero-styled
// palette renders text unchanged.
type palette struct {
	Heading lipgloss.Style
	Muted   lipgloss.Style
	High    lipgloss.Style
	Medium  lipgloss.Style
	Low     lipgloss.Style
	Error   lipgloss.Style
}

// plainPalette renders without escape sequences.
func plainPalette() palette {
	plain := lipgloss.NewStyle()
	return palette{
		Heading: plain,
		Muted:   plain,
		High:    plain,
		Medium:  plain,
		Low:     plain,
		Error:   plain,
	}
}

// colourPalette mirrors the confidence bands with green, yellow and red.
func colourPalette() palette {
	return palette{
		Heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		High:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#A6E3A1")),
		Medium:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F9E2AF")),
		Low:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F38BA8")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
	}
}

// paletteFor styles output only when it goes to a terminal and NO_COLOR is unset.
func paletteFor(w io.Writer) palette {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) || os.Getenv("NO_COLOR") != "" {
		return plainPalette()
	}
	return colourPalette()
}

// Confidence returns the style of a confidence band.
func (p palette) Confidence(level domain.ConfidenceLevel) lipgloss.Style {
	switch level {
	case domain.ConfidenceHigh:
		return p.High
	case domain.ConfidenceMedium, domain.ConfidenceMediumLow:
		return p.Medium
	default:
		return p.Low
	}
}

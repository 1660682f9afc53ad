package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/nibzard/taskrank/internal/priority"
)

// Style holds the lipgloss styles used to lay units out as text.
// The zero value renders plain, unstyled text.
type Style struct {
	Card        map[priority.Tier]lipgloss.Style
	Title       lipgloss.Style
	Score       lipgloss.Style
	Meta        lipgloss.Style
	Explanation lipgloss.Style
	Empty       lipgloss.Style
}

// DefaultStyle returns the colored card styles used in terminals.
func DefaultStyle() Style {
	card := func(color string) lipgloss.Style {
		return lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color(color)).
			PaddingLeft(1)
	}
	return Style{
		Card: map[priority.Tier]lipgloss.Style{
			priority.High:   card("196"),
			priority.Medium: card("214"),
			priority.Low:    card("42"),
		},
		Title:       lipgloss.NewStyle().Bold(true),
		Score:       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Meta:        lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		Explanation: lipgloss.NewStyle().Italic(true),
		Empty:       lipgloss.NewStyle().Faint(true),
	}
}

// Text lays units out as terminal text, one card per unit separated by a
// blank line.
func Text(units []Unit, style Style) string {
	var b strings.Builder
	for i, u := range units {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(card(u, style))
	}
	return b.String()
}

func card(u Unit, style Style) string {
	if u.IsPlaceholder() {
		return style.Empty.Render(u.Message)
	}

	header := style.Title.Render(u.Title) + "  " + style.Score.Render(u.ScoreLabel)
	tag := "[" + u.Tier.String() + "]"
	body := strings.Join([]string{
		header + "  " + tag,
		style.Meta.Render(u.Meta),
		style.Explanation.Render(u.Explanation),
	}, "\n")

	if s, ok := style.Card[u.Tier]; ok {
		return s.Render(body)
	}
	return body
}

// Format selects a machine-readable encoding for units.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses an output format name. Empty selects text.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected text|json|yaml)", name)
	}
}

// Encode writes units to w in the given format.
func Encode(w io.Writer, units []Unit, format Format, style Style) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(units)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(units); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		_, err := io.WriteString(w, Text(units, style)+"\n")
		return err
	}
}

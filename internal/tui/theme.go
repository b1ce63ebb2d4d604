package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	TopBar   lipgloss.Style
	Footer   lipgloss.Style
	InputBox lipgloss.Style
	Spinner  lipgloss.Style

	RoleYou lipgloss.Style
	RoleBot lipgloss.Style
	RoleSys lipgloss.Style
	RoleErr lipgloss.Style
}

func NewTheme() Theme {
	if os.Getenv("GEMCHAT_NO_COLOR") == "1" {
		plain := lipgloss.NewStyle()
		return Theme{
			TopBar: plain, Footer: plain, InputBox: plain, Spinner: plain,
			RoleYou: plain.Bold(true), RoleBot: plain.Bold(true),
			RoleSys: plain, RoleErr: plain.Bold(true),
		}
	}

	muted := lipgloss.AdaptiveColor{Light: "240", Dark: "245"}
	accent := lipgloss.AdaptiveColor{Light: "25", Dark: "39"}
	border := lipgloss.AdaptiveColor{Light: "250", Dark: "238"}

	return Theme{
		TopBar: lipgloss.NewStyle().Bold(true).Foreground(accent).Padding(0, 1),
		Footer: lipgloss.NewStyle().Foreground(muted).Padding(0, 1),
		InputBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1),
		Spinner: lipgloss.NewStyle().Foreground(accent),

		RoleYou: lipgloss.NewStyle().Bold(true).Foreground(accent),
		RoleBot: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "42"}),
		RoleSys: lipgloss.NewStyle().Foreground(muted),
		RoleErr: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "124", Dark: "203"}),
	}
}

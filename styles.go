// styles.go
package main

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	Base,
	List,
	View,
	Source,
	Status,
	Help lipgloss.Style
	Active,
	ProjectCode lipgloss.Style
}

func defaultStyles() Styles {
	s := Styles{}
	s.Base = lipgloss.NewStyle().Padding(0, 1)

	s.List = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("63"))
	s.View = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("240"))
	s.Source = lipgloss.NewStyle().Border(lipgloss.RoundedBorder(), true).BorderForeground(lipgloss.Color("205"))
	s.Status = lipgloss.NewStyle().
		Background(lipgloss.Color("236")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	s.Help = lipgloss.NewStyle().
		Padding(1, 2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("99"))

	s.Active = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	s.ProjectCode = lipgloss.NewStyle().Foreground(lipgloss.Color("86")) // A nice cyan/light blue
	return s
}

package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"samlib/internal/storage"
)

var (
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	unreadStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	sizeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("110"))
)

func tag(id int64) string {
	return idStyle.Render(fmt.Sprintf("[%d]", id))
}

func renderAuthor(author storage.Author, unread int64) string {
	line := fmt.Sprintf("%s %s", tag(author.ID), author.Name)
	if unread > 0 {
		line += " " + unreadStyle.Render(fmt.Sprintf("(%d new)", unread))
	}
	return line
}

func renderGroup(group storage.Group) string {
	line := fmt.Sprintf("%s %s", tag(group.ID), group.DisplayName)
	if group.NewNumber > 0 {
		line += " " + unreadStyle.Render(fmt.Sprintf("(%d new)", group.NewNumber))
	}
	return line
}

func renderWork(work storage.Work) string {
	size := sizeStyle.Render(fmt.Sprintf("%dk", work.Size))
	line := fmt.Sprintf("%s %s %s", tag(work.ID), work.Title, size)
	if work.IsNew {
		line += " " + unreadStyle.Render(fmt.Sprintf("±%dk", work.DeltaSize))
	}
	return line
}

package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/naoray/subtreesync/internal/config"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).PaddingRight(2)
	tableCellStyle   = lipgloss.NewStyle().PaddingRight(2)
	labelStyle       = lipgloss.NewStyle().Bold(true).Width(14)
	panelStyle       = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("8")).
				Padding(0, 1)
)

// RenderTable creates a borderless table with aligned columns.
func RenderTable(headers []string, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	t := table.New().
		Headers(headers...).
		Rows(rows...).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderHeader(false).
		BorderColumn(false).
		BorderRow(false).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})

	return t.String() + "\n"
}

// AddedDate returns the date part of an added_time value.
func AddedDate(added string) string {
	if i := strings.IndexAny(added, "T "); i > 0 {
		return added[:i]
	}
	return added
}

// RenderEntriesTable renders the list view of subtree entries.
func RenderEntriesTable(entries []config.SubtreeEntry) string {
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			e.Name,
			e.Remote,
			e.Branch,
			e.Prefix,
			AddedDate(e.AddedTime),
		})
	}
	return RenderTable([]string{"#", "NAME", "REMOTE", "BRANCH", "PREFIX", "ADDED"}, rows)
}

// RenderEntryDetail renders every field of an entry, extra included.
func RenderEntryDetail(e config.SubtreeEntry, splitBranch string) string {
	var b strings.Builder
	field := func(label, value string) {
		if value == "" {
			value = "-"
		}
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}

	field("name", e.Name)
	field("remote", e.Remote)
	field("prefix", e.Prefix)
	field("branch", e.Branch)
	field("split branch", splitBranch)
	field("added", e.AddedTime)

	keys := make([]string, 0, len(e.Extra))
	for k := range e.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		field(k, fmt.Sprint(e.Extra[k]))
	}

	return panelStyle.Render(strings.TrimSuffix(b.String(), "\n")) + "\n"
}

// RenderWorkspacesTable renders workspaces, marking the current and default ones.
func RenderWorkspacesTable(workspaces []config.Workspace, current string) string {
	rows := make([][]string, 0, len(workspaces))
	for _, ws := range workspaces {
		var flags []string
		if ws.Name == current {
			flags = append(flags, "current")
		}
		if ws.IsDefault {
			flags = append(flags, "default")
		}
		rows = append(rows, []string{
			ws.Name,
			ws.Path,
			strconv.Itoa(len(ws.Repos)),
			strings.Join(flags, ", "),
		})
	}
	return RenderTable([]string{"NAME", "PATH", "SUBTREES", ""}, rows)
}

// RenderSummary renders the outcome of a batch run.
func RenderSummary(title string, total, succeeded, failed int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(title) + "\n")
	fmt.Fprintf(&b, "  attempted: %d\n", total)
	fmt.Fprintf(&b, "  %s %d\n", successStyle.Render("succeeded:"), succeeded)
	if failed > 0 {
		fmt.Fprintf(&b, "  %s %d\n", errorStyle.Render("failed:"), failed)
	}
	return b.String()
}

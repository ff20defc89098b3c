package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/asheshgoplani/workdeck/internal/config"
	"github.com/asheshgoplani/workdeck/internal/layout"
	"github.com/asheshgoplani/workdeck/internal/nodes"
	"github.com/asheshgoplani/workdeck/internal/persist"
	"github.com/asheshgoplani/workdeck/internal/workspace"
)

// Tokyo Night palette.
var (
	colorAccent     = lipgloss.Color("#7aa2f7")
	colorDim        = lipgloss.Color("#787fa0")
	colorWorking    = lipgloss.Color("#e0af68")
	colorPermission = lipgloss.Color("#f7768e")
	colorReview     = lipgloss.Color("#9ece6a")

	nodeStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	activeTabStyle = lipgloss.NewStyle().Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(colorDim)
)

func statusStyle(s workspace.PaneStatus) lipgloss.Style {
	switch s {
	case workspace.PaneStatusWorking:
		return lipgloss.NewStyle().Foreground(colorWorking)
	case workspace.PaneStatusPermission:
		return lipgloss.NewStyle().Foreground(colorPermission).Bold(true)
	case workspace.PaneStatusReview:
		return lipgloss.NewStyle().Foreground(colorReview)
	}
	return dimStyle
}

// handleInspect prints the saved workspace, or one backup of it.
func handleInspect(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	nodeFilter := fs.String("node", "", "Only show this node")
	backupName := fs.String("backup", "", "Inspect a backup (file storage only) instead of the live state")
	asJSON := fs.Bool("json", false, "Print the stored document as JSON")

	fs.Usage = func() {
		fmt.Println("Usage: workdeck inspect [options] [node]")
		fmt.Println()
		fmt.Println("Print tabs, layouts and pane statuses of the saved workspace.")
		fmt.Println()
		fmt.Println("Options:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(normalizeArgs(fs, args)); err != nil {
		os.Exit(1)
	}
	if fs.NArg() == 1 && *nodeFilter == "" {
		*nodeFilter = fs.Arg(0)
	} else if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "Error: unexpected arguments: %v\n", fs.Args())
		os.Exit(1)
	}

	backend, err := openBackend(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer backend.Close()

	st, err := inspectState(context.Background(), backend, *backupName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		doc, err := persist.Encode(st)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(doc)
		return
	}

	names := make(map[string]string)
	if list, err := nodes.NewRegistry(cfg.Dir).List(); err == nil {
		for _, n := range list {
			names[n.ID] = n.DisplayName()
		}
	}
	if *nodeFilter != "" && len(st.TabsForNode(*nodeFilter)) == 0 {
		fmt.Fprintf(os.Stderr, "No tabs for node %q.", *nodeFilter)
		if s, ok := nodes.Suggest(*nodeFilter, st.Nodes()); ok {
			fmt.Fprintf(os.Stderr, " Did you mean %q?", s)
		}
		fmt.Fprintln(os.Stderr)
		os.Exit(1)
	}
	fmt.Print(renderWorkspace(st, names, *nodeFilter))
}

// inspectState loads the live state or the named backup without writing
// anything back.
func inspectState(ctx context.Context, b persist.Backend, backup string) (*workspace.State, error) {
	if backup == "" {
		data, err := b.Read(ctx)
		if err != nil {
			if errors.Is(err, persist.ErrNotFound) {
				return workspace.NewState(), nil
			}
			return nil, err
		}
		return decodeReadOnly(data)
	}
	fb, ok := b.(*persist.FileBackend)
	if !ok {
		return nil, fmt.Errorf("backups can only be inspected with file storage")
	}
	data, err := fb.ReadBackup(backup)
	if err != nil {
		return nil, err
	}
	return decodeReadOnly(data)
}

func decodeReadOnly(data []byte) (*workspace.State, error) {
	doc, err := persist.DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	if _, err := persist.Migrate(doc); err != nil {
		if !errors.Is(err, persist.ErrNewerVersion) {
			return nil, err
		}
		fmt.Fprintf(os.Stderr, "Warning: %v; fields added since version %d are not shown.\n", err, persist.CurrentVersion)
	}
	return persist.Decode(doc, workspace.SanitizeOptions{}), nil
}

// renderWorkspace draws every node (or only filter) with its tabs in order,
// the active tab marked and each tab's split tree below it.
func renderWorkspace(st *workspace.State, names map[string]string, filter string) string {
	var b strings.Builder
	nodeIDs := st.Nodes()
	if len(nodeIDs) == 0 {
		b.WriteString(dimStyle.Render("No tabs saved.") + "\n")
		return b.String()
	}
	for _, nodeID := range nodeIDs {
		if filter != "" && nodeID != filter {
			continue
		}
		title := nodeID
		if n, ok := names[nodeID]; ok && n != nodeID {
			title = fmt.Sprintf("%s (%s)", n, nodeID)
		}
		line := nodeStyle.Render(title)
		if st.NeedsAttention(nodeID) {
			line += " " + statusStyle(workspace.PaneStatusPermission).Render("!")
		}
		b.WriteString(line + "\n")

		active := st.ActiveTabID(nodeID)
		for _, tab := range st.TabsForNode(nodeID) {
			marker := "  "
			name := tab.DisplayName()
			if tab.ID == active {
				marker = "* "
				name = activeTabStyle.Render(name)
			}
			b.WriteString("  " + marker + name + " " + dimStyle.Render(tab.ID) + "\n")
			renderTree(&b, st, tab, tab.Layout, "      ")
		}
		if hist := st.History(nodeID); len(hist) > 0 {
			b.WriteString("  " + dimStyle.Render("recent: "+strings.Join(hist, ", ")) + "\n")
		}
	}
	return b.String()
}

func renderTree(b *strings.Builder, st *workspace.State, tab workspace.Tab, n layout.Node, indent string) {
	switch v := n.(type) {
	case layout.Leaf:
		p, _ := st.Pane(string(v))
		marker := "- "
		if st.FocusedPaneID(tab.ID) == p.ID {
			marker = "> "
		}
		b.WriteString(fmt.Sprintf("%s%s%s %s %s\n", indent, marker, p.Label(),
			dimStyle.Render(p.ID), statusStyle(p.Status).Render(string(p.Status))))
	case *layout.Split:
		b.WriteString(fmt.Sprintf("%s%s %.0f%%\n", indent, dimStyle.Render(string(v.Direction)), v.SplitPercentage))
		renderTree(b, st, tab, v.First, indent+"  ")
		renderTree(b, st, tab, v.Second, indent+"  ")
	}
}

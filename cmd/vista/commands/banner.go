package commands

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/teranos/vista/am"
	"github.com/teranos/vista/sym"
	"github.com/teranos/vista/version"
)

// printStartupBanner prints the serve summary box
func printStartupBanner(cfg *am.Config, eng *engine) {
	info := version.Get()
	stats := eng.graph.Meta.Stats

	modes := make([]string, 0, len(eng.machine.Modes()))
	for _, mode := range eng.machine.Modes() {
		modes = append(modes, sym.ForMode(string(mode))+" "+string(mode))
	}

	lines := []string{
		fmt.Sprintf("Version:  %s (commit %s)", info.Version, info.Short()),
		fmt.Sprintf("Dataset:  %s", cfg.Dataset.Path),
		fmt.Sprintf("Graph:    %d nodes, %d edges", stats.TotalNodes, stats.TotalEdges),
		fmt.Sprintf("Mode:     %s %s", sym.ForMode(string(eng.machine.Mode())), eng.machine.Mode()),
		fmt.Sprintf("Modes:    %s", strings.Join(modes, "  ")),
		fmt.Sprintf("Listen:   ws://%s/ws", cfg.ServerAddress()),
	}

	pterm.Println()
	pterm.DefaultBox.WithTitle(pterm.Cyan("vista")).Println(strings.Join(lines, "\n"))
	pterm.Info.Println("Press Ctrl+C to stop")
	pterm.Println()
}

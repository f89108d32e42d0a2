package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jhin-exe/weave/internal/config"
	"github.com/jhin-exe/weave/internal/logger"
	"github.com/jhin-exe/weave/pkg/audio"
	"github.com/jhin-exe/weave/pkg/engine"
	"github.com/jhin-exe/weave/pkg/project"
	"github.com/jhin-exe/weave/pkg/state"
)

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <project.json> [snapshot.json]\n", os.Args[0])
		os.Exit(1)
	}
	projectFile := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// The screen belongs to the UI, so logs go to PLAY_LOG or nowhere.
	var logOut io.Writer = io.Discard
	if path := os.Getenv("PLAY_LOG"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		logOut = f
	}
	log := logger.SetupWriter(cfg, logOut)

	p, err := project.Load(projectFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load project: %v\n", err)
		os.Exit(1)
	}

	var snapshot *state.Session
	if len(os.Args) == 3 {
		data, err := os.ReadFile(os.Args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to read snapshot: %v\n", err)
			os.Exit(1)
		}
		if snapshot, err = state.Unmarshal(data); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to parse snapshot: %v\n", err)
			os.Exit(1)
		}
	}

	player := audio.NewController(audio.LogBackend{Logger: log}, log)
	defer player.Stop()

	e := engine.New(
		engine.WithLogger(log),
		engine.WithAudio(player),
		engine.WithStrictVisibility(cfg.StrictVisibility),
	)
	if err := e.Start(p, snapshot); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start story: %v\n", err)
		os.Exit(1)
	}

	ui := NewPlayUI(e, player, saveFileFor(projectFile))
	prog := tea.NewProgram(ui, tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := prog.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// saveFileFor names the snapshot file that sits next to a project file.
func saveFileFor(projectFile string) string {
	return strings.TrimSuffix(projectFile, filepath.Ext(projectFile)) + ".save.json"
}

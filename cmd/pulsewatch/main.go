package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/adlens/pulse/client"
	"github.com/adlens/pulse/internal/watch"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	wsURL := flag.String("url", "ws://127.0.0.1:8090/ws", "WebSocket URL of the pulse broker")
	token := flag.String("token", "dev-token", "Auth token")
	flag.Parse()

	events := make(chan tea.Msg, 64)

	cfg := client.DefaultConfig(*wsURL, *token)
	watch.Wire(events, &cfg)

	cl := client.New(cfg)
	defer cl.Disconnect()

	m := watch.New(cl, events)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

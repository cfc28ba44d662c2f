package broker

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

type brokerStats struct {
	UptimeSeconds  int64   `json:"uptimeSeconds"`
	Clients        int     `json:"clients"`
	CPUPercent     float64 `json:"cpuPercent"`
	MemUsedPercent float64 `json:"memUsedPercent"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	stats := brokerStats{
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Clients:       s.hub.ClientCount(),
	}
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemUsedPercent = vm.UsedPercent
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/disamee/agriculture-digest-bot/internal/app"
	"github.com/disamee/agriculture-digest-bot/internal/config"
	"github.com/disamee/agriculture-digest-bot/internal/logger"
	"github.com/disamee/agriculture-digest-bot/internal/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("agriculture digest bot: %v", err)
	}
	logger.Init(cfg.Debug)

	if cfg.EnableMonitoring {
		go startMonitoringServer(cfg.MonitorPort)
	}

	if err := app.Run(cfg); err != nil {
		log.Fatalf("agriculture digest bot: %v", err)
	}
}

func startMonitoringServer(port int) {
	http.HandleFunc("/health", healthHandler)
	http.HandleFunc("/metrics", metricsHandler)

	addr := fmt.Sprintf(":%d", port)
	log.Printf("Starting monitoring server on %s", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		log.Printf("Monitoring server error: %v", err)
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	status := "ok"
	if !stats["is_healthy"].(bool) {
		status = "error"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	response := map[string]interface{}{
		"status":     status,
		"last_run":   stats["last_run_time"],
		"last_error": stats["last_error"],
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func metricsHandler(w http.ResponseWriter, r *http.Request) {
	stats := metrics.Global.GetStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	Od "github.com/maroda/ostinato/display"
	Oe "github.com/maroda/ostinato/engine"
	Oo "github.com/maroda/ostinato/obvy"
)

func init() {
	User := Oe.FillEnvVar("USER")
	fmt.Printf("Ostinato initializing for ... %s\n", User)
}

func main() {
	// Tracing is optional, skipped unless the exporter is configured
	if Oe.FillEnvVar("OTEL_EXPORTER_OTLP_ENDPOINT") != "ENOENT" {
		switch Oe.FillEnvVar("OSTINATO_OTEL") {
		case "grafana":
			tp, err := Oo.InitOTelGRF(Od.Version)
			if err != nil {
				slog.Error("Could not init OTel, continuing without", slog.Any("Error", err))
			} else {
				defer tp.Shutdown(context.Background())
			}
		default:
			shutdown, err := Oo.InitOTelHNY(Od.Version)
			if err != nil {
				slog.Error("Could not init OTel, continuing without", slog.Any("Error", err))
			} else {
				defer shutdown()
			}
		}
	}

	config := Oe.FillEnvVar("OSTINATO_CONFIG")
	if config == "ENOENT" {
		config = "ostinato.json"
	}

	charts, err := Oe.LoadConfigFileName(config)
	if err != nil {
		slog.Error("Could not load chart config",
			slog.String("file", config),
			slog.Any("Error", err))
		os.Exit(1)
	}

	// Headless operation serves the web frontend only
	if Oe.FillEnvVar("OSTINATO_WEB_ONLY") != "ENOENT" {
		if err := Od.StartWebNoTUI(charts); err != nil {
			slog.Error("Problem running web server", slog.Any("Error", err))
			os.Exit(1)
		}
		return
	}

	err = Od.StartCycleViewWithConfig(charts)
	if err != nil {
		slog.Error("Problem starting CycleView", slog.Any("Error", err))
		panic("Failed to start cycle view")
	}
}

// Command matchreeld runs the recording watcher as a service. It reads the
// default configuration (or the path in MATCHREEL_CONFIG) and exits on
// SIGINT or SIGTERM once the run in progress has finished.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"matchreel/internal/config"
	"matchreel/internal/daemonrun"
)

func main() {
	configPath := flag.String("config", os.Getenv("MATCHREEL_CONFIG"), "Configuration file path")
	dryRun := flag.Bool("dry-run", false, "Write descriptions but skip uploads")
	logLevel := flag.String("log-level", "", "Override logging.level")
	flag.Parse()

	if *dryRun {
		if err := os.Setenv("MATCHREEL_DRY_RUN", "true"); err != nil {
			log.Fatalf("set dry run: %v", err)
		}
	}

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{LogLevel: *logLevel, DryRun: *dryRun}); err != nil {
		log.Fatalf("matchreeld: %v", err)
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/Wh1teCaat/fitness-companion/internal/classifier"
	"github.com/Wh1teCaat/fitness-companion/internal/config"
	"github.com/spf13/pflag"
)

// probe checks that the running model still agrees with classifier.Calibration.
func main() {
	configPath := pflag.String("config", "config.yaml", "path to the YAML config file")
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("🚒 failed to load config: %v", err)
	}

	backend, err := classifier.NewBackend(cfg.Classifier)
	if err != nil {
		log.Fatalf("🚒 failed to create backend: %v", err)
	}
	if c, ok := backend.(io.Closer); ok {
		defer c.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*cfg.Classifier.Timeout)
	defer cancel()

	results, err := classifier.Probe(ctx, backend, cfg.Classifier.MaxLength)
	if err != nil {
		log.Fatalf("🚒 probe failed: %v", err)
	}

	if !report(os.Stdout, results) {
		os.Exit(1)
	}
}

func report(w io.Writer, results []classifier.ProbeResult) bool {
	ok := true
	fmt.Fprintln(w, "PROBING MODEL MAPPING:")
	for _, r := range results {
		mark := "ok"
		if !r.OK() {
			mark = "MISMATCH"
			ok = false
		}
		fmt.Fprintf(w, "Text: %q\nExpected: %s -> Predicted ID: %d (%s) %s\n", r.Text, r.Expected, r.Index, r.Got, mark)
	}
	return ok
}

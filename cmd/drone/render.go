package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/Danondso/drone/internal/engine"
	"github.com/Danondso/drone/internal/noise"
	"github.com/Danondso/drone/internal/output"
)

func handleRender(args []string, dbg *log.Logger) {
	cfg, _ := loadConfig(dbg)

	fs := flag.NewFlagSet("render", flag.ExitOnError)
	name := fs.String("preset", "", "name of a stored preset to render")
	out := fs.String("out", "", "output WAV file (required)")
	seconds := fs.Float64("seconds", 10, "length of the render in seconds")
	seed := fs.Uint64("seed", 0, "noise seed for reproducible output (0 = random)")
	tail := fs.Bool("fade-tail", true, "fade out so the file ends in silence")
	nf := bindNoiseFlags(fs, cfg.Noise)
	_ = fs.Parse(args)

	if *out == "" {
		fmt.Fprintln(os.Stderr, "render: -out is required")
		fs.Usage()
		os.Exit(2)
	}

	pr, err := resolvePreset(cfg, *name, nf, dbg)
	if err != nil {
		log.Fatalf("render: %v", err)
	}
	settings := pr.Settings()

	var src *noise.Source
	if *seed != 0 {
		src = noise.NewSeededSource(settings.Color, settings.Gain, *seed)
	}

	d := time.Duration(*seconds * float64(time.Second))
	samples, err := engine.Render(settings, src, d, *tail)
	if err != nil {
		log.Fatalf("render: %v", err)
	}
	if err := output.WriteWAVFile(*out, samples, settings.SampleRate); err != nil {
		log.Fatalf("render %s: %v", *out, err)
	}
	dbg.Printf("output: rendered %d samples, peak %.3f", len(samples), output.PeakLevel(samples))
	fmt.Printf("Wrote %s (%s, %.1fs)\n", *out, settings, d.Seconds())
}

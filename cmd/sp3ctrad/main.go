// sp3ctrad is the thin wiring executable around the sp3ctra synthesis
// core: it owns the image source and the audio sink and drives rows in,
// blocks out, in a flag-driven, os.Exit(1)-on-error style.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ondulab/sp3ctra"
	"github.com/ondulab/sp3ctra/backend/alsasink"
	"github.com/ondulab/sp3ctra/backend/nullsink"
	"github.com/ondulab/sp3ctra/backend/otosink"
	"github.com/ondulab/sp3ctra/transport/pngrow"
	"github.com/ondulab/sp3ctra/transport/udprow"
)

func banner() {
	fmt.Println("sp3ctra - real-time image-to-sound synthesis core")
}

func main() {
	banner()

	configPath := flag.String("config", "", "YAML config file (defaults applied if empty)")
	udpAddr := flag.String("udp", "", "listen for image rows on this UDP address (e.g. :9000)")
	pngPath := flag.String("png", "", "replay rows from a PNG file instead of UDP")
	pngRate := flag.Duration("png-row-rate", 20*time.Millisecond, "row playback period when using -png")
	backendName := flag.String("backend", "oto", "audio backend: oto, alsa, or null")
	alsaDevice := flag.String("alsa-device", "default", "ALSA device name when -backend=alsa")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: sp3ctrad [options]\n\nRuns the sp3ctra synthesis core against a live image source and audio device.\n\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	var cfg sp3ctra.Config
	if *configPath != "" {
		loaded, err := sp3ctra.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		cfg = *loaded
	} else {
		cfg = sp3ctra.DefaultConfig()
	}

	engine, err := sp3ctra.New(cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to build engine: %v\n", err)
		os.Exit(1)
	}

	var source sp3ctra.ImageSource
	switch {
	case *pngPath != "":
		src, err := pngrow.Open(*pngPath, cfg.NumNotes, *pngRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		source = src
	case *udpAddr != "":
		src, err := udprow.Listen(*udpAddr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		source = src
	default:
		fmt.Fprintf(os.Stderr, "error: one of -udp or -png is required\n")
		flag.Usage()
		os.Exit(1)
	}
	defer source.Close()

	var sink sp3ctra.AudioSink
	switch *backendName {
	case "oto":
		sink = otosink.New()
	case "alsa":
		sink = alsasink.New(*alsaDevice)
	case "null":
		sink = nullsink.New()
	default:
		fmt.Fprintf(os.Stderr, "error: unknown backend %q (want oto, alsa, or null)\n", *backendName)
		os.Exit(1)
	}
	if err := sink.Prepare(cfg.SampleRate, cfg.AudioBufferSize); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to prepare audio sink: %v\n", err)
		os.Exit(1)
	}
	defer sink.Release()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go pumpRows(engine, source.Rows())

	fmt.Printf("sp3ctra running: sample_rate=%d block_size=%d backend=%s\n", cfg.SampleRate, cfg.AudioBufferSize, *backendName)
	runAudioLoop(engine, sink, cfg, sigCh)

	if err := engine.Release(); err != nil {
		fmt.Fprintf(os.Stderr, "error during shutdown: %v\n", err)
		os.Exit(1)
	}
}

func pumpRows(engine *sp3ctra.Engine, rows <-chan sp3ctra.ImageRow) {
	var seq int64
	for row := range rows {
		engine.PushRow(row, seq)
		seq++
	}
}

func runAudioLoop(engine *sp3ctra.Engine, sink sp3ctra.AudioSink, cfg sp3ctra.Config, sigCh <-chan os.Signal) {
	blockPeriod := time.Duration(cfg.AudioBufferSize) * time.Second / time.Duration(cfg.SampleRate)
	ticker := time.NewTicker(blockPeriod)
	defer ticker.Stop()

	left := make([]float32, cfg.AudioBufferSize)
	right := make([]float32, cfg.AudioBufferSize)

	for {
		select {
		case <-sigCh:
			return
		case <-ticker.C:
			engine.Process(left, right)
			if err := sink.Write(left, right); err != nil {
				fmt.Fprintf(os.Stderr, "warning: audio write failed: %v\n", err)
			}
		}
	}
}

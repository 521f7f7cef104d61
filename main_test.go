package main

import (
	"os"
	"path/filepath"
	"slices"
	"testing"
)

func TestParsePlayerFlags_Defaults(t *testing.T) {
	opts, err := parsePlayerFlags([]string{"intro"})
	if err != nil {
		t.Fatalf("parsePlayerFlags: %v", err)
	}
	if opts.source != "intro" || opts.libraryDir != "." {
		t.Fatalf("expected intro in ., got %q in %q", opts.source, opts.libraryDir)
	}
	if opts.stall != defaultMaxStallTicks || opts.memory != defaultMemoryBudget || opts.scale != 3 {
		t.Fatalf("unexpected defaults: %+v", opts)
	}
}

func TestParsePlayerFlags_FilePathSplitsDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.reel")
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	opts, err := parsePlayerFlags([]string{"-loop", path})
	if err != nil {
		t.Fatalf("parsePlayerFlags: %v", err)
	}
	if opts.libraryDir != dir || opts.source != "clip.reel" || !opts.loop {
		t.Fatalf("expected clip.reel in %s with loop, got %+v", dir, opts)
	}
}

func TestParsePlayerFlags_Rejects(t *testing.T) {
	cases := [][]string{
		{"-scale", "0", "a"},
		{"-scale", "9", "a"},
		{"-latency", "-1", "a"},
		{"-bogus", "a"},
	}
	for _, args := range cases {
		if _, err := parsePlayerFlags(args); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestParsePlayerFlags_ListNeedsNoSource(t *testing.T) {
	if _, err := parsePlayerFlags([]string{"-list"}); err != nil {
		t.Fatalf("expected -list alone to parse, got %v", err)
	}
}

func TestParsePlayerFlags_NoSourceOpensMenu(t *testing.T) {
	opts, err := parsePlayerFlags([]string{"-dir", "reels"})
	if err != nil {
		t.Fatalf("parsePlayerFlags: %v", err)
	}
	if opts.source != "" || opts.libraryDir != "reels" {
		t.Fatalf("expected menu over reels, got %+v", opts)
	}
}

func TestKeyDecoder(t *testing.T) {
	var got []PlayerControl
	emit := func(c PlayerControl) { got = append(got, c) }
	var d keyDecoder

	for _, b := range []byte("\x1b[A\x1b[Bj") {
		d.feed(b, emit)
	}
	d.idle(emit)
	d.feed(0x1B, emit)
	d.idle(emit)
	d.feed(0x1B, emit)
	d.feed('q', emit)

	want := []PlayerControl{ControlPrevious, ControlNext, ControlNext, ControlStop, ControlStop, ControlQuit}
	if !slices.Equal(got, want) {
		t.Fatalf("controls = %v, want %v", got, want)
	}
}

func TestEngineConfigFromFlags(t *testing.T) {
	opts, err := parsePlayerFlags([]string{"-strict", "-suppress-audio", "-stall", "5", "-tile-budget", "100", "-memory", "0", "a"})
	if err != nil {
		t.Fatal(err)
	}
	cfg := engineConfig(opts, nil, nil)
	if !cfg.Strict || !cfg.SuppressAudioOnCorruptFrame || cfg.MaxStallTicks != 5 || cfg.TileBudget != 100 || cfg.MemoryBudget != 0 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestTransportFactory_Latency(t *testing.T) {
	src := NewMemorySource([]byte{1, 2, 3, 4})
	tr := transportFactory(playerOptions{latency: 2})(src)
	dst := make([]byte, 4)
	xfer := tr.Begin(dst, 0)
	if xfer.Done() {
		t.Fatal("expected first poll to be pending")
	}
	if xfer.Done() {
		t.Fatal("expected second poll to be pending")
	}
	if !xfer.Done() {
		t.Fatal("expected third poll to complete")
	}
	if xfer.Err() != nil || dst[3] != 4 {
		t.Fatalf("unexpected transfer result: %v %v", xfer.Err(), dst)
	}
}

func TestControlForByte(t *testing.T) {
	cases := map[byte]PlayerControl{
		' ':  ControlTogglePause,
		's':  ControlStop,
		'r':  ControlRestart,
		'l':  ControlToggleLoop,
		'c':  ControlSnapshot,
		'q':  ControlQuit,
		0x03: ControlQuit,
		'j':  ControlNext,
		'k':  ControlPrevious,
		'\r': ControlSelect,
	}
	for b, want := range cases {
		if got, ok := controlForByte(b); !ok || got != want {
			t.Fatalf("byte %q: expected %v, got %v", b, want, got)
		}
	}
	if _, ok := controlForByte('x'); ok {
		t.Fatal("expected x to be unmapped")
	}
}

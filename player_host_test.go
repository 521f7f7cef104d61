package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type countingDrain struct {
	calls int
	rate  int
}

func (d *countingDrain) Drain(refreshRate int) {
	d.calls++
	d.rate = refreshRate
}

type fakeClipboard struct {
	*HeadlessVideoOutput
	data []byte
	err  error
}

func (c *fakeClipboard) CopyImage(pngData []byte) error {
	c.data = append([]byte(nil), pngData...)
	return c.err
}

func newTestHost(t *testing.T, data []byte, cfg EngineConfig, hostCfg PlayerHostConfig) (*PlayerHost, *ReelEngine, *countingDrain) {
	t.Helper()
	output := NewHeadlessVideoOutput()
	screen := NewTileScreen(output)
	if cfg.Logger == nil {
		cfg.Logger = quietLogger()
	}
	hostCfg.Logger = quietLogger()
	lib := NewReelLibrary("")
	lib.Add("clip", data)
	e := NewReelEngine(cfg, screen, &memoryQueue{}, lib)
	e.Init()
	if err := e.Play("clip", false); err != nil {
		t.Fatalf("Play: %v", err)
	}
	drain := &countingDrain{}
	return NewPlayerHost(hostCfg, e, screen, output, drain), e, drain
}

func TestPlayerHost_RunExitsWhenFinished(t *testing.T) {
	data := newReelBuilder(1, 1, 2).keyFrames(3).build()
	h, e, drain := newTestHost(t, data, EngineConfig{}, PlayerHostConfig{ExitWhenDone: true})

	if err := h.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Three frames of two ticks each, then the tick that finds the end.
	if drain.calls != 7 {
		t.Fatalf("ticks = %d, want 7", drain.calls)
	}
	if drain.rate != 60 {
		t.Fatalf("drain refresh = %d", drain.rate)
	}
	if e.State() != StateReady {
		t.Fatalf("state after Run = %s, want ready", e.State())
	}
	if st := runtimeStatus.snapshot(); st.State != StateFinished {
		t.Fatalf("published state = %s", st.State)
	}
}

func TestPlayerHost_RunReportsAbort(t *testing.T) {
	data := corruptKeyFrame(newReelBuilder(1, 1, 1).keyFrame(1), 2).build()
	h, _, _ := newTestHost(t, data, EngineConfig{Strict: true}, PlayerHostConfig{ExitWhenDone: true})

	err := h.Run(context.Background())
	if !errors.Is(err, ErrCorruptFrame) {
		t.Fatalf("Run err = %v, want ErrCorruptFrame", err)
	}
}

func TestPlayerHost_RunStopsOnCancel(t *testing.T) {
	data := newReelBuilder(1, 1, 1).keyFrames(2).build()
	h, e, _ := newTestHost(t, data, EngineConfig{}, PlayerHostConfig{})
	e.SetLoop(true)

	ctx, cancel := context.WithCancel(context.Background())
	h.output.Start()
	defer h.output.Close()
	time.AfterFunc(50*time.Millisecond, cancel)
	if err := h.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if e.IsPlaying() {
		t.Fatal("engine still playing after Run returned")
	}
}

func TestPlayerHost_QuitControl(t *testing.T) {
	data := newReelBuilder(1, 1, 1).keyFrames(2).build()
	h, _, _ := newTestHost(t, data, EngineConfig{}, PlayerHostConfig{})
	h.Send(ControlQuit)
	if err := h.Run(context.Background()); err != nil {
		t.Fatalf("quit should end Run cleanly, got %v", err)
	}
}

func TestPlayerHost_SendDropsWhenFull(t *testing.T) {
	h := NewPlayerHost(PlayerHostConfig{Logger: quietLogger()}, nil, nil, NewHeadlessVideoOutput(), nil)
	for range cap(h.controls) + 4 {
		h.Send(ControlTogglePause)
	}
	if len(h.controls) != cap(h.controls) {
		t.Fatalf("queued %d controls", len(h.controls))
	}
}

func TestPlayerHost_HandleControl(t *testing.T) {
	data := newReelBuilder(1, 1, 1).keyFrames(3).build()
	h, e, _ := newTestHost(t, data, EngineConfig{}, PlayerHostConfig{})

	if err := h.handleControl(ControlTogglePause); err != nil || e.State() != StatePaused {
		t.Fatalf("pause: state %s err %v", e.State(), err)
	}
	_ = h.handleControl(ControlTogglePause)
	if e.State() != StatePlaying {
		t.Fatalf("resume: state %s", e.State())
	}
	_ = h.handleControl(ControlToggleLoop)
	if !e.Status().Loop {
		t.Fatal("loop not toggled on")
	}
	e.ProcessFrames()
	e.ProcessFrames()
	_ = h.handleControl(ControlRestart)
	if st := e.Status(); st.State != StatePlaying || st.Frame != 0 || !st.Loop {
		t.Fatalf("restart: %+v", st)
	}
	_ = h.handleControl(ControlStop)
	if e.State() != StateReady {
		t.Fatalf("stop: state %s", e.State())
	}
	if err := h.handleControl(ControlRestart); err != nil {
		t.Fatalf("restart with nothing loaded should only log, got %v", err)
	}
	if err := h.handleControl(ControlQuit); !errors.Is(err, errQuit) {
		t.Fatalf("quit err = %v", err)
	}
}

func TestPlayerHost_SnapshotToClipboard(t *testing.T) {
	data := newReelBuilder(2, 2, 1).keyFrames(1).build()
	h, _, _ := newTestHost(t, data, EngineConfig{}, PlayerHostConfig{})
	cb := &fakeClipboard{HeadlessVideoOutput: NewHeadlessVideoOutput()}
	h.output = cb

	h.snapshot()
	if !bytes.HasPrefix(cb.data, []byte("\x89PNG")) {
		t.Fatal("clipboard did not receive a PNG")
	}
}

func TestPlayerHost_SnapshotFallsBackToFile(t *testing.T) {
	data := newReelBuilder(2, 2, 1).keyFrames(1).build()
	h, _, _ := newTestHost(t, data, EngineConfig{}, PlayerHostConfig{})
	h.output = &fakeClipboard{HeadlessVideoOutput: NewHeadlessVideoOutput(), err: errors.New("no clipboard")}
	dir := t.TempDir()
	t.Chdir(dir)

	h.snapshot()
	matches, err := filepath.Glob(filepath.Join(dir, "reel-*.png"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("snapshot files = %v (%v)", matches, err)
	}
	raw, err := os.ReadFile(matches[0])
	if err != nil || !bytes.HasPrefix(raw, []byte("\x89PNG")) {
		t.Fatal("snapshot file is not a PNG")
	}
}

func TestPlayerHost_ServesMetrics(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("no loopback listener: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	reg := prometheus.NewRegistry()
	metrics := NewReelMetrics(reg)
	data := newReelBuilder(1, 1, 1).keyFrames(2).build()
	h, _, _ := newTestHost(t, data, EngineConfig{Metrics: metrics}, PlayerHostConfig{MetricsAddr: addr, Registry: reg})
	h.engine.SetLoop(true)
	h.output.Start()
	defer h.output.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	var body string
	for range 50 {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err == nil {
			raw, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			body = string(raw)
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !strings.Contains(body, "reelplay_sessions_started_total 1") {
		t.Fatalf("metrics body missing session counter:\n%s", body)
	}
}

func newMenuHost(t *testing.T, cfg EngineConfig, reels map[string][]byte) (*PlayerHost, *ReelEngine, *TileScreen) {
	t.Helper()
	cfg.Logger = quietLogger()
	lib := NewReelLibrary("")
	for name, data := range reels {
		lib.Add(name, data)
	}
	entries, err := lib.Catalog()
	if err != nil {
		t.Fatal(err)
	}
	output := NewHeadlessVideoOutput()
	screen := NewTileScreen(output)
	e := NewReelEngine(cfg, screen, &memoryQueue{}, lib)
	e.Init()
	h := NewPlayerHost(PlayerHostConfig{Logger: quietLogger(), Menu: NewReelMenu(entries)}, e, screen, output, nil)
	return h, e, screen
}

func TestPlayerHost_MenuPlaysAndReturns(t *testing.T) {
	h, e, screen := newMenuHost(t, EngineConfig{Strict: true}, map[string][]byte{
		"a": newReelBuilder(1, 1, 1).withThumbnail(1, 1, 6).keyFrames(2).build(),
		"b": corruptKeyFrame(newReelBuilder(1, 1, 1).keyFrame(1), 2).build(),
	})
	h.openMenu()
	if !h.menuActive || screen.Palette()[menuWhite] != 0x0FFF {
		t.Fatal("menu not on screen")
	}
	if screen.Tile(menuThumbY*MENU_TILES_X + (MENU_TILES_X-1)/2)[0] != 6 {
		t.Fatal("thumbnail of the selected reel not on screen")
	}

	if err := h.handleControl(ControlSelect); err != nil {
		t.Fatal(err)
	}
	if h.menuActive || e.Status().Title != "test" || !e.IsPlaying() {
		t.Fatalf("select did not start a: %+v", e.Status())
	}
	// Finished on the third tick, back to the menu.
	for range 3 {
		h.step(60)
	}
	if !h.menuActive || e.State() != StateReady || h.menu.Message() != "" {
		t.Fatalf("expected a clean menu after a finished reel, state %s", e.State())
	}

	_ = h.handleControl(ControlNext)
	_ = h.handleControl(ControlSelect)
	if !e.IsPlaying() {
		t.Fatalf("b did not start: %v", e.LastError())
	}
	for range 2 {
		h.step(60)
	}
	if !h.menuActive || !strings.Contains(h.menu.Message(), "corrupt") {
		t.Fatalf("expected the abort shown on the menu, got %q", h.menu.Message())
	}

	_ = h.handleControl(ControlPrevious)
	if h.menu.Message() != "" || h.menu.SelectedIndex() != 0 {
		t.Fatal("moving the selection should clear the error")
	}
}

func TestPlayerHost_MenuShowsPlayFailure(t *testing.T) {
	h, e, _ := newMenuHost(t, EngineConfig{}, map[string][]byte{
		"bad": []byte("REEL"),
	})
	h.openMenu()
	_ = h.handleControl(ControlSelect)
	if !h.menuActive || e.IsPlaying() {
		t.Fatal("a failed play should stay in the menu")
	}
	if !strings.Contains(h.menu.Message(), "truncated") {
		t.Fatalf("message = %q", h.menu.Message())
	}
}

func TestPlayerHost_StopReturnsToMenu(t *testing.T) {
	h, e, _ := newMenuHost(t, EngineConfig{}, map[string][]byte{
		"a": newReelBuilder(1, 1, 1).keyFrames(4).build(),
	})
	h.openMenu()
	_ = h.handleControl(ControlSelect)
	h.step(60)
	_ = h.handleControl(ControlStop)
	if !h.menuActive || e.State() != StateReady {
		t.Fatalf("stop should reopen the menu, state %s", e.State())
	}
	if err := h.handleControl(ControlQuit); !errors.Is(err, errQuit) {
		t.Fatalf("quit from menu err = %v", err)
	}
}

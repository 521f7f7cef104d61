// player_host.go - Tick loop, controls and metrics listener around the engine

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionEngine
License: GPLv3 or later
*/

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

type PlayerControl int

const (
	ControlNone PlayerControl = iota
	ControlTogglePause
	ControlStop
	ControlRestart
	ControlToggleLoop
	ControlSnapshot
	ControlQuit
	ControlNext
	ControlPrevious
	ControlSelect
)

func (c PlayerControl) String() string {
	switch c {
	case ControlTogglePause:
		return "pause"
	case ControlStop:
		return "stop"
	case ControlRestart:
		return "restart"
	case ControlToggleLoop:
		return "loop"
	case ControlSnapshot:
		return "snapshot"
	case ControlQuit:
		return "quit"
	case ControlNext:
		return "next"
	case ControlPrevious:
		return "previous"
	case ControlSelect:
		return "select"
	}
	return "none"
}

// controlForByte maps terminal keys. Ctrl-C arrives as 0x03 in raw mode.
func controlForByte(b byte) (PlayerControl, bool) {
	switch b {
	case ' ', 'p', 'P':
		return ControlTogglePause, true
	case 's', 'S', 0x1B:
		return ControlStop, true
	case 'r', 'R':
		return ControlRestart, true
	case 'l', 'L':
		return ControlToggleLoop, true
	case 'c', 'C':
		return ControlSnapshot, true
	case 'q', 'Q', 0x03:
		return ControlQuit, true
	case 'j', 'J':
		return ControlNext, true
	case 'k', 'K':
		return ControlPrevious, true
	case '\r', '\n':
		return ControlSelect, true
	}
	return ControlNone, false
}

// keyDecoder turns raw terminal bytes into controls. Arrow keys arrive as
// ESC [ A and ESC [ B; an ESC with nothing after it in the same read is Stop.
type keyDecoder struct {
	seq int // escape bytes seen so far
}

func (d *keyDecoder) feed(b byte, emit func(PlayerControl)) {
	switch d.seq {
	case 1:
		d.seq = 0
		if b == '[' {
			d.seq = 2
			return
		}
		emit(ControlStop)
	case 2:
		d.seq = 0
		switch b {
		case 'A':
			emit(ControlPrevious)
		case 'B':
			emit(ControlNext)
		}
		return
	}
	if b == 0x1B {
		d.seq = 1
		return
	}
	if c, ok := controlForByte(b); ok {
		emit(c)
	}
}

// idle is called when a read is exhausted and settles a lone ESC.
func (d *keyDecoder) idle(emit func(PlayerControl)) {
	if d.seq == 1 {
		emit(ControlStop)
	}
	d.seq = 0
}

// ImageClipboard is implemented by outputs that can take a PNG copy.
type ImageClipboard interface {
	CopyImage(pngData []byte) error
}

// AudioDrain is the part of the audio backend the tick loop drives.
type AudioDrain interface {
	Drain(refreshRate int)
}

var errQuit = errors.New("quit requested")

type PlayerHostConfig struct {
	// ExitWhenDone ends Run once nothing is playing.
	ExitWhenDone bool
	// MetricsAddr serves /metrics when non-empty.
	MetricsAddr string
	Registry    *prometheus.Registry
	Terminal    bool
	Logger      *slog.Logger

	// Menu, when set, is shown whenever nothing is playing. Selecting an
	// entry plays it with Loop; the session ending returns to the menu.
	Menu *ReelMenu
	Loop bool
}

// PlayerHost owns the goroutines around the engine: the vblank-paced tick
// loop, key input and the metrics listener. Only the tick goroutine touches
// the engine and the menu; everything else reaches them through the control
// channel.
type PlayerHost struct {
	cfg      PlayerHostConfig
	engine   *ReelEngine
	screen   *TileScreen
	output   VideoOutput
	audio    AudioDrain
	controls chan PlayerControl
	log      *slog.Logger

	menu       *ReelMenu
	menuActive bool
}

func NewPlayerHost(cfg PlayerHostConfig, engine *ReelEngine, screen *TileScreen, output VideoOutput, audio AudioDrain) *PlayerHost {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &PlayerHost{
		cfg:      cfg,
		engine:   engine,
		screen:   screen,
		output:   output,
		audio:    audio,
		controls: make(chan PlayerControl, 16),
		log:      cfg.Logger,
		menu:     cfg.Menu,
	}
}

// Send queues a control for the tick goroutine. Controls beyond the buffer
// are dropped.
func (h *PlayerHost) Send(c PlayerControl) {
	select {
	case h.controls <- c:
	default:
	}
}

func (h *PlayerHost) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)

	if ci, ok := h.output.(ControlInput); ok {
		ci.SetControlHandler(h.Send)
	}

	var term *TerminalHost
	if h.cfg.Terminal {
		term = NewTerminalHost(h.Send)
		term.Start()
		defer func() {
			term.Stop()
			fmt.Println()
		}()
	}

	g.Go(func() error {
		defer cancel()
		return h.tickLoop(ctx, term)
	})

	if done, ok := h.output.(interface{ Done() <-chan struct{} }); ok {
		g.Go(func() error {
			select {
			case <-done.Done():
				return errQuit
			case <-ctx.Done():
				return nil
			}
		})
	}

	if h.cfg.MetricsAddr != "" {
		reg := h.cfg.Registry
		if reg == nil {
			reg = prometheus.NewRegistry()
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: h.cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			h.log.Info("metrics server listening", "addr", h.cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err := g.Wait()
	if errors.Is(err, errQuit) {
		err = nil
	}
	h.engine.Stop()
	return err
}

func (h *PlayerHost) tickLoop(ctx context.Context, term *TerminalHost) error {
	refresh := h.output.GetRefreshRate()
	var tick uint64
	if h.menu != nil && !h.engine.IsPlaying() {
		h.openMenu()
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if err := h.output.WaitForVSync(); err != nil {
			return fmt.Errorf("vsync: %w", err)
		}

		for pending := true; pending; {
			select {
			case c := <-h.controls:
				if err := h.handleControl(c); err != nil {
					return err
				}
			default:
				pending = false
			}
		}

		st := h.step(refresh)
		tick++
		if term != nil && tick%uint64(max(refresh/4, 1)) == 0 {
			if h.menuActive {
				term.PrintLine(h.menu.StatusLine())
			} else {
				term.PrintStatus(st)
			}
		}

		if h.menu == nil && h.cfg.ExitWhenDone && !h.engine.IsPlaying() {
			if st.State == StateAborted {
				return st.LastError
			}
			return nil
		}
	}
}

// step runs one display tick: the engine, the audio drain and, once a
// session ends under the menu, the switch back to it.
func (h *PlayerHost) step(refresh int) EngineStatus {
	h.engine.ProcessFrames()
	if h.audio != nil {
		h.audio.Drain(refresh)
	}

	st := h.engine.Status()
	if h.menu != nil && !h.menuActive && !h.engine.IsPlaying() {
		if st.State == StateAborted {
			h.menu.ShowError(st.LastError)
		}
		h.openMenu()
	}
	runtimeStatus.publish(st)
	return st
}

func (h *PlayerHost) handleControl(c PlayerControl) error {
	h.log.Debug("control", "control", c.String())
	if h.menuActive {
		return h.handleMenuControl(c)
	}
	switch c {
	case ControlTogglePause:
		h.engine.TogglePause()
	case ControlStop:
		h.engine.Stop()
		if h.menu != nil {
			h.openMenu()
		}
	case ControlRestart:
		if err := h.engine.Restart(); err != nil {
			h.log.Warn("restart failed", "error", err)
		}
	case ControlToggleLoop:
		h.engine.SetLoop(!h.engine.Status().Loop)
	case ControlSnapshot:
		h.snapshot()
	case ControlQuit:
		return errQuit
	}
	return nil
}

func (h *PlayerHost) handleMenuControl(c PlayerControl) error {
	switch c {
	case ControlNext:
		h.menu.ClearError()
		h.menu.Next()
	case ControlPrevious:
		h.menu.ClearError()
		h.menu.Previous()
	case ControlSelect, ControlTogglePause:
		h.menu.ClearError()
		h.playSelected()
	case ControlSnapshot:
		h.snapshot()
	case ControlQuit:
		return errQuit
	}
	if h.menuActive {
		h.drawMenu()
	}
	return nil
}

// openMenu ends whatever session is left and puts the menu on screen.
func (h *PlayerHost) openMenu() {
	if h.engine.State() != StateReady {
		h.engine.Stop()
	}
	h.menuActive = true
	h.menu.Invalidate()
	h.drawMenu()
}

func (h *PlayerHost) drawMenu() {
	var sink TileSink
	if h.screen != nil {
		sink = h.screen
	}
	if err := h.menu.Draw(sink); err != nil {
		h.log.Warn("menu draw failed", "error", err)
	}
}

func (h *PlayerHost) playSelected() {
	entry, ok := h.menu.Selected()
	if !ok {
		return
	}
	if err := h.engine.Play(entry.Handle, h.cfg.Loop); err != nil {
		h.log.Warn("play failed", "handle", entry.Handle, "error", err)
		h.menu.ShowError(err)
		h.menu.Invalidate()
		return
	}
	h.menuActive = false
}

// snapshot copies the screen as PNG to the clipboard, or to a file when the
// output has no clipboard.
func (h *PlayerHost) snapshot() {
	if h.screen == nil {
		return
	}
	var buf bytes.Buffer
	if err := h.screen.WritePNG(&buf); err != nil {
		h.log.Warn("snapshot failed", "error", err)
		return
	}
	if cb, ok := h.output.(ImageClipboard); ok {
		if err := cb.CopyImage(buf.Bytes()); err == nil {
			h.log.Info("snapshot copied to clipboard")
			return
		}
	}
	name := fmt.Sprintf("reel-%s.png", time.Now().Format("20060102-150405"))
	if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
		h.log.Warn("snapshot failed", "error", err)
		return
	}
	h.log.Info("snapshot written", "path", name)
}

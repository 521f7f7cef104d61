// video_tile_screen.go - Tile display composed into RGBA

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
	"fmt"
	"image"
	"image/png"
	"io"
	"sync"
	"time"
)

// TileScreen is a TileSink that composes tile memory into RGBA and hands
// the picture to a VideoOutput. It keeps its own copy of tile memory the way
// VRAM would, so the engine's decode buffers can be reused immediately.
type TileScreen struct {
	mu sync.Mutex

	output      VideoOutput
	widthTiles  int
	heightTiles int
	tiles       []byte
	palette     [PALETTE_SIZE]uint16
	colors      [PALETTE_SIZE]uint32
	dirty       []bool
	allDirty    bool
	rgba        []byte
	presents    uint64
}

func NewTileScreen(output VideoOutput) *TileScreen {
	return &TileScreen{output: output}
}

func (s *TileScreen) Configure(widthTiles, heightTiles int) error {
	if widthTiles <= 0 || heightTiles <= 0 || widthTiles > REEL_MAX_TILES_X || heightTiles > REEL_MAX_TILES_Y {
		return &VideoError{
			Operation: "configure",
			Details:   fmt.Sprintf("unsupported tile geometry %dx%d", widthTiles, heightTiles),
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if widthTiles != s.widthTiles || heightTiles != s.heightTiles {
		count := widthTiles * heightTiles
		s.widthTiles = widthTiles
		s.heightTiles = heightTiles
		s.tiles = make([]byte, count*TILE_BYTES)
		s.dirty = make([]bool, count)
		s.rgba = make([]byte, widthTiles*TILE_WIDTH*heightTiles*TILE_HEIGHT*4)
		if s.output != nil {
			cfg := s.output.GetDisplayConfig()
			cfg.Width = widthTiles * TILE_WIDTH
			cfg.Height = heightTiles * TILE_HEIGHT
			if err := s.output.SetDisplayConfig(cfg); err != nil {
				return &VideoError{Operation: "configure", Details: "display config rejected", Err: err}
			}
		}
	}
	s.allDirty = true
	return nil
}

func (s *TileScreen) WriteTiles(first int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(data)%TILE_BYTES != 0 {
		return &VideoError{Operation: "write tiles", Details: fmt.Sprintf("%d bytes is not whole tiles", len(data))}
	}
	n := len(data) / TILE_BYTES
	if first < 0 || first+n > len(s.dirty) {
		return &VideoError{Operation: "write tiles", Details: fmt.Sprintf("tiles %d..%d outside %d", first, first+n, len(s.dirty))}
	}
	copy(s.tiles[first*TILE_BYTES:], data)
	for i := first; i < first+n; i++ {
		s.dirty[i] = true
	}
	return nil
}

func (s *TileScreen) WritePalette(colors []uint16) error {
	if len(colors) > PALETTE_SIZE {
		return &VideoError{Operation: "write palette", Details: fmt.Sprintf("%d colours", len(colors))}
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range colors {
		if s.palette[i] != c {
			s.palette[i] = c
			s.colors[i] = paletteRGBA(c)
			s.allDirty = true
		}
	}
	return nil
}

// Present re-renders the tiles touched since the last call, or the whole
// screen after a palette change, and pushes the picture to the output.
func (s *TileScreen) Present() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.widthTiles == 0 {
		return nil
	}
	stride := s.widthTiles * TILE_WIDTH
	for i := range s.dirty {
		if !s.allDirty && !s.dirty[i] {
			continue
		}
		x := (i % s.widthTiles) * TILE_WIDTH
		y := (i / s.widthTiles) * TILE_HEIGHT
		renderTile(s.rgba, stride, x, y, s.tiles[i*TILE_BYTES:(i+1)*TILE_BYTES], &s.colors)
		s.dirty[i] = false
	}
	s.allDirty = false
	s.presents++
	if s.output == nil {
		return nil
	}
	return s.output.UpdateFrame(s.rgba)
}

// Blank clears tile memory and the palette to black.
func (s *TileScreen) Blank() error {
	s.mu.Lock()
	clear(s.tiles)
	s.palette = [PALETTE_SIZE]uint16{}
	for i := range s.colors {
		s.colors[i] = paletteRGBA(0)
	}
	s.allDirty = true
	s.mu.Unlock()
	return s.Present()
}

func (s *TileScreen) Presents() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presents
}

// Tile returns a copy of one tile's pattern bytes.
func (s *TileScreen) Tile(i int) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]byte, TILE_BYTES)
	copy(out, s.tiles[i*TILE_BYTES:])
	return out
}

func (s *TileScreen) Palette() [PALETTE_SIZE]uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.palette
}

func (s *TileScreen) Snapshot() FrameSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := FrameSnapshot{
		Buffer:    make([]byte, len(s.rgba)),
		Width:     s.widthTiles * TILE_WIDTH,
		Height:    s.heightTiles * TILE_HEIGHT,
		Presents:  s.presents,
		Timestamp: time.Now(),
	}
	copy(snap.Buffer, s.rgba)
	return snap
}

// WritePNG encodes the current picture.
func (s *TileScreen) WritePNG(w io.Writer) error {
	snap := s.Snapshot()
	if snap.Width == 0 {
		return &VideoError{Operation: "snapshot", Details: "screen not configured"}
	}
	img := &image.RGBA{
		Pix:    snap.Buffer,
		Stride: snap.Width * 4,
		Rect:   image.Rect(0, 0, snap.Width, snap.Height),
	}
	return png.Encode(w, img)
}

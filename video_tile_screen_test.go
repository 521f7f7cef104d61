package main

import (
	"bytes"
	"errors"
	"image/png"
	"testing"
)

func TestTileScreen_ConfigureSizesOutput(t *testing.T) {
	out := NewHeadlessVideoOutput()
	s := NewTileScreen(out)
	if err := s.Configure(4, 3); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	cfg := out.GetDisplayConfig()
	if cfg.Width != 32 || cfg.Height != 24 {
		t.Fatalf("display = %dx%d, want 32x24", cfg.Width, cfg.Height)
	}
	var ve *VideoError
	if err := s.Configure(REEL_MAX_TILES_X+1, 1); !errors.As(err, &ve) {
		t.Fatalf("oversized geometry err = %v", err)
	}
}

func TestTileScreen_PresentRendersTiles(t *testing.T) {
	out := NewHeadlessVideoOutput()
	s := NewTileScreen(out)
	if err := s.Configure(2, 1); err != nil {
		t.Fatal(err)
	}
	palette := make([]uint16, PALETTE_SIZE)
	palette[1] = 0x000F // red
	palette[2] = 0x0F00 // blue
	if err := s.WritePalette(palette); err != nil {
		t.Fatal(err)
	}
	tiles := append(bytes.Repeat([]byte{0x11}, TILE_BYTES), bytes.Repeat([]byte{0x22}, TILE_BYTES)...)
	if err := s.WriteTiles(0, tiles); err != nil {
		t.Fatal(err)
	}
	if err := s.Present(); err != nil {
		t.Fatal(err)
	}

	frame := out.LastFrame()
	if len(frame) != 16*8*4 {
		t.Fatalf("frame is %d bytes", len(frame))
	}
	if !bytes.Equal(frame[0:4], []byte{0xFF, 0, 0, 0xFF}) {
		t.Fatalf("tile 0 pixel = % X", frame[0:4])
	}
	px := TILE_WIDTH * 4
	if !bytes.Equal(frame[px:px+4], []byte{0, 0, 0xFF, 0xFF}) {
		t.Fatalf("tile 1 pixel = % X", frame[px:px+4])
	}
	if s.Presents() != 1 || out.GetFrameCount() != 1 {
		t.Fatalf("presents %d frames %d", s.Presents(), out.GetFrameCount())
	}
}

func TestTileScreen_PaletteChangeRedrawsAll(t *testing.T) {
	s := NewTileScreen(nil)
	if err := s.Configure(2, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteTiles(0, bytes.Repeat([]byte{0x33}, 2*TILE_BYTES)); err != nil {
		t.Fatal(err)
	}
	if err := s.Present(); err != nil {
		t.Fatal(err)
	}
	palette := make([]uint16, PALETTE_SIZE)
	palette[3] = 0x00F0
	if err := s.WritePalette(palette); err != nil {
		t.Fatal(err)
	}
	if err := s.Present(); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	last := len(snap.Buffer) - 4
	if !bytes.Equal(snap.Buffer[last:], []byte{0, 0xFF, 0, 0xFF}) {
		t.Fatalf("untouched tile not redrawn after palette change: % X", snap.Buffer[last:])
	}
	if s.Palette()[3] != 0x00F0 {
		t.Fatal("palette not stored")
	}
}

func TestTileScreen_WriteTilesBounds(t *testing.T) {
	s := NewTileScreen(nil)
	if err := s.Configure(1, 1); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteTiles(0, make([]byte, TILE_BYTES+1)); err == nil {
		t.Fatal("partial tile accepted")
	}
	if err := s.WriteTiles(1, make([]byte, TILE_BYTES)); err == nil {
		t.Fatal("out of range tile accepted")
	}
	if err := s.WritePalette(make([]uint16, PALETTE_SIZE+1)); err == nil {
		t.Fatal("oversized palette accepted")
	}
}

func TestTileScreen_Blank(t *testing.T) {
	s := NewTileScreen(nil)
	if err := s.Configure(1, 1); err != nil {
		t.Fatal(err)
	}
	_ = s.WriteTiles(0, bytes.Repeat([]byte{0xFF}, TILE_BYTES))
	if err := s.Blank(); err != nil {
		t.Fatal(err)
	}
	if s.Tile(0)[0] != 0 {
		t.Fatal("Blank left tile data")
	}
	snap := s.Snapshot()
	if !bytes.Equal(snap.Buffer[0:4], []byte{0, 0, 0, 0xFF}) {
		t.Fatalf("blank pixel = % X", snap.Buffer[0:4])
	}
}

func TestTileScreen_WritePNG(t *testing.T) {
	s := NewTileScreen(nil)
	var buf bytes.Buffer
	if err := s.WritePNG(&buf); err == nil {
		t.Fatal("unconfigured screen encoded")
	}
	if err := s.Configure(3, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.Present(); err != nil {
		t.Fatal(err)
	}
	if err := s.WritePNG(&buf); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 24 || b.Dy() != 16 {
		t.Fatalf("png is %dx%d", b.Dx(), b.Dy())
	}
}

func TestTileScreen_DrivenByEngine(t *testing.T) {
	s := NewTileScreen(nil)
	data := newReelBuilder(2, 2, 1).keyFrames(2).build()
	e := NewReelEngine(EngineConfig{Logger: quietLogger()}, s, nil, nil)
	e.Init()
	if err := e.PlaySource(NewMemorySource(data), false); err != nil {
		t.Fatalf("PlaySource: %v", err)
	}
	if s.Tile(3)[0] != 1 || s.Palette() != *testPalette(1) {
		t.Fatal("frame 0 not on screen after Play")
	}
	e.ProcessFrames()
	e.ProcessFrames()
	if s.Tile(3)[0] != 2 {
		t.Fatal("frame 1 not on screen")
	}
	e.Stop()
	if s.Tile(0)[0] != 0 {
		t.Fatal("Stop did not blank the screen")
	}
}

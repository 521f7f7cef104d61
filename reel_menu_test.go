package main

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func menuEntries(n int) []CatalogEntry {
	var out []CatalogEntry
	for i := range n {
		out = append(out, CatalogEntry{Handle: string(rune('a'+i)) + ".reel", Title: "reel " + string(rune('A'+i))})
	}
	return out
}

// pixelAt reads one 4-bit pixel back out of menu tile memory.
func pixelAt(tiles []byte, x, y int) byte {
	tile := (y/TILE_HEIGHT)*MENU_TILES_X + x/TILE_WIDTH
	b := tiles[tile*TILE_BYTES+(y%TILE_HEIGHT)*(TILE_WIDTH/2)+(x%TILE_WIDTH)/2]
	if x%2 == 0 {
		return b >> 4
	}
	return b & 0x0F
}

func countColour(tiles []byte, y0, y1 int, c byte) int {
	n := 0
	for y := y0; y < y1; y++ {
		for x := range MENU_TILES_X * TILE_WIDTH {
			if pixelAt(tiles, x, y) == c {
				n++
			}
		}
	}
	return n
}

func TestReelMenu_SelectionWraps(t *testing.T) {
	m := NewReelMenu(menuEntries(3))
	m.Previous()
	if e, _ := m.Selected(); e.Handle != "c.reel" {
		t.Fatalf("expected previous to wrap to c.reel, got %s", e.Handle)
	}
	m.Next()
	m.Next()
	if m.SelectedIndex() != 1 {
		t.Fatalf("expected index 1, got %d", m.SelectedIndex())
	}

	empty := NewReelMenu(nil)
	empty.Next()
	empty.Previous()
	if _, ok := empty.Selected(); ok || empty.Len() != 0 {
		t.Fatal("expected nothing selectable in an empty menu")
	}
}

func TestReelMenu_DrawsListAndThumbnail(t *testing.T) {
	entries := menuEntries(3)
	entries[0].Thumbnail = &ReelThumbnail{
		WidthTiles:  2,
		HeightTiles: 1,
		Palette:     *testPalette(5),
		Tiles:       slices.Repeat([]byte{0x33}, 2*TILE_BYTES),
	}
	m := NewReelMenu(entries)
	sink := &recordingSink{}
	if err := m.Draw(sink); err != nil {
		t.Fatalf("Draw: %v", err)
	}

	if sink.widthTiles != MENU_TILES_X || sink.heightTiles != MENU_TILES_Y || sink.presents != 1 {
		t.Fatalf("expected one %dx%d present, got %dx%d x%d", MENU_TILES_X, MENU_TILES_Y, sink.widthTiles, sink.heightTiles, sink.presents)
	}
	if sink.palette[menuWhite] != 0x0FFF || sink.palette[menuYellow] != 0x00FF {
		t.Fatalf("text colours not loaded: %v", sink.palette)
	}
	if sink.palette[1] != testPalette(5)[1] {
		t.Fatal("thumbnail palette not loaded")
	}
	x0 := (MENU_TILES_X - 2) / 2
	at := (menuThumbY*MENU_TILES_X + x0) * TILE_BYTES
	if sink.tiles[at] != 0x33 || sink.tiles[at+2*TILE_BYTES-1] != 0x33 {
		t.Fatal("thumbnail tiles not placed")
	}

	if countColour(sink.tiles, menuItemY-12, menuItemY+2, menuYellow) == 0 {
		t.Fatal("selected item not drawn in yellow")
	}
	if countColour(sink.tiles, menuItemY-menuItemStep-12, menuItemY-menuItemStep+2, menuWhite) == 0 {
		t.Fatal("previous item not drawn in white")
	}

	if err := m.Draw(sink); err != nil || sink.presents != 1 {
		t.Fatalf("expected unchanged menu to skip drawing, presents %d", sink.presents)
	}
	m.Next()
	if err := m.Draw(sink); err != nil || sink.presents != 2 {
		t.Fatalf("expected redraw after Next, presents %d", sink.presents)
	}
	if sink.tiles[at] == 0x33 {
		t.Fatal("stale thumbnail left after moving to an entry without one")
	}
}

func TestReelMenu_ShowsError(t *testing.T) {
	m := NewReelMenu(menuEntries(1))
	sink := &recordingSink{}
	m.ShowError(errors.New("prefetch stalled on frame 12"))
	if err := m.Draw(sink); err != nil {
		t.Fatal(err)
	}
	if countColour(sink.tiles, menuMessageY-12, menuMessageY+2, menuYellow) == 0 {
		t.Fatal("error message not drawn")
	}
	if !strings.Contains(m.StatusLine(), "prefetch stalled") {
		t.Fatalf("status line %q lacks the error", m.StatusLine())
	}

	m.ClearError()
	if m.Message() != "" {
		t.Fatal("ClearError left the message")
	}
	if err := m.Draw(sink); err != nil {
		t.Fatal(err)
	}
	if countColour(sink.tiles, menuMessageY-12, menuMessageY+2, menuYellow) != 0 {
		t.Fatal("error message still on screen")
	}
}

func TestReelMenu_StatusLine(t *testing.T) {
	m := NewReelMenu(menuEntries(2))
	m.Next()
	if got := m.StatusLine(); !strings.Contains(got, "2/2 > reel B") {
		t.Fatalf("status line = %q", got)
	}
	if got := NewReelMenu(nil).StatusLine(); !strings.Contains(got, "no reels") {
		t.Fatalf("empty status line = %q", got)
	}
}

func TestWrapText(t *testing.T) {
	got := wrapText("one two three four", 9)
	want := []string{"one two", "three", "four"}
	if !slices.Equal(got, want) {
		t.Fatalf("wrap = %q, want %q", got, want)
	}
	if got := wrapText("abcdefghijkl", 8); len(got) != 1 || got[0] != "abcde..." {
		t.Fatalf("long word = %q", got)
	}
}

func TestSetTilePixel(t *testing.T) {
	tiles := make([]byte, 2*TILE_BYTES)
	setTilePixel(tiles, 2, 0, 0, 0xA)
	setTilePixel(tiles, 2, 1, 0, 0xB)
	setTilePixel(tiles, 2, 9, 1, 0xC)
	if tiles[0] != 0xAB {
		t.Fatalf("tile 0 byte 0 = 0x%02X", tiles[0])
	}
	if tiles[TILE_BYTES+TILE_WIDTH/2] != 0x0C {
		t.Fatalf("tile 1 row 1 = 0x%02X", tiles[TILE_BYTES+TILE_WIDTH/2])
	}
}

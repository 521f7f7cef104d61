// reel_menu.go - Catalog menu screen

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
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Menu screen layout, in pixels unless noted. The menu always uses the full
// display mode.
const (
	MENU_TILES_X = REEL_MAX_TILES_X
	MENU_TILES_Y = REEL_MAX_TILES_Y

	menuTitleY    = 16
	menuItemX     = 24
	menuSelectorX = 12
	menuItemY     = 60 // baseline of the selected item
	menuItemStep  = 16
	menuThumbY    = 11 // tiles
	menuMessageY  = 222
	menuLineStep  = 12
	menuLineChars = 44
	menuItemChars = 40

	menuWhite  = PALETTE_SIZE - 2
	menuYellow = PALETTE_SIZE - 1
)

// ReelMenu is the catalog browser shown between sessions: the selected
// entry with its neighbours, the entry's thumbnail, and the last error.
type ReelMenu struct {
	entries  []CatalogEntry
	selected int
	message  string
	changed  bool

	face  font.Face
	white *image.Alpha
	amber *image.Alpha
	tiles []byte
}

func NewReelMenu(entries []CatalogEntry) *ReelMenu {
	w, h := MENU_TILES_X*TILE_WIDTH, MENU_TILES_Y*TILE_HEIGHT
	return &ReelMenu{
		entries: entries,
		changed: true,
		face:    basicfont.Face7x13,
		white:   image.NewAlpha(image.Rect(0, 0, w, h)),
		amber:   image.NewAlpha(image.Rect(0, 0, w, h)),
		tiles:   make([]byte, MENU_TILES_X*MENU_TILES_Y*TILE_BYTES),
	}
}

func (m *ReelMenu) Len() int {
	return len(m.entries)
}

func (m *ReelMenu) Next() {
	if len(m.entries) == 0 {
		return
	}
	m.selected = (m.selected + 1) % len(m.entries)
	m.changed = true
}

func (m *ReelMenu) Previous() {
	if len(m.entries) == 0 {
		return
	}
	m.selected = (len(m.entries) + m.selected - 1) % len(m.entries)
	m.changed = true
}

func (m *ReelMenu) Selected() (CatalogEntry, bool) {
	if len(m.entries) == 0 {
		return CatalogEntry{}, false
	}
	return m.entries[m.selected], true
}

func (m *ReelMenu) SelectedIndex() int {
	return m.selected
}

// ShowError puts err under the list until the next ClearError.
func (m *ReelMenu) ShowError(err error) {
	if err == nil {
		return
	}
	m.message = err.Error()
	m.changed = true
}

func (m *ReelMenu) ClearError() {
	if m.message != "" {
		m.message = ""
		m.changed = true
	}
}

func (m *ReelMenu) Message() string {
	return m.message
}

// Invalidate forces the next Draw, e.g. after playback overwrote the screen.
func (m *ReelMenu) Invalidate() {
	m.changed = true
}

// Draw renders the menu into sink when it changed since the last Draw.
func (m *ReelMenu) Draw(sink TileSink) error {
	if !m.changed || sink == nil {
		return nil
	}
	clear(m.white.Pix)
	clear(m.amber.Pix)
	clear(m.tiles)
	var palette [PALETTE_SIZE]uint16
	palette[menuWhite] = 0x0FFF
	palette[menuYellow] = 0x00FF

	m.text(m.white, menuItemX, menuTitleY, "REELPLAY")
	if len(m.entries) == 0 {
		m.text(m.white, menuItemX, menuItemY, "No reels found.")
	}
	for offset := -1; offset <= 1 && len(m.entries) > 0; offset++ {
		if offset != 0 && len(m.entries) < 2 || offset == 1 && len(m.entries) < 3 {
			continue
		}
		i := (len(m.entries) + m.selected + offset) % len(m.entries)
		label := clipText(m.entries[i].Label(), menuItemChars)
		y := menuItemY + offset*menuItemStep
		if offset == 0 {
			m.text(m.amber, menuSelectorX, y, ">")
			m.text(m.amber, menuItemX, y, label)
			continue
		}
		m.text(m.white, menuItemX, y, label)
	}

	if e, ok := m.Selected(); ok && e.Thumbnail != nil {
		m.placeThumbnail(e.Thumbnail, &palette)
	}

	if m.message != "" {
		for i, line := range wrapText(m.message, menuLineChars) {
			y := menuMessageY + i*menuLineStep
			if y > MENU_TILES_Y*TILE_HEIGHT-2 {
				break
			}
			m.text(m.amber, 4, y, line)
		}
	} else {
		m.text(m.white, 4, menuMessageY+menuLineStep, "UP/DOWN choose  ENTER play  Q quit")
	}

	m.compose()
	if err := sink.Configure(MENU_TILES_X, MENU_TILES_Y); err != nil {
		return err
	}
	if err := sink.WriteTiles(0, m.tiles); err != nil {
		return err
	}
	if err := sink.WritePalette(palette[:]); err != nil {
		return err
	}
	if err := sink.Present(); err != nil {
		return err
	}
	m.changed = false
	return nil
}

func (m *ReelMenu) text(dst *image.Alpha, x, y int, s string) {
	d := font.Drawer{Dst: dst, Src: image.Opaque, Face: m.face, Dot: fixed.P(x, y)}
	d.DrawString(s)
}

// placeThumbnail copies the thumbnail tiles centred under the list. Its
// palette fills every entry the menu text does not use.
func (m *ReelMenu) placeThumbnail(t *ReelThumbnail, palette *[PALETTE_SIZE]uint16) {
	copy(palette[:PALETTE_SIZE-THUMB_TEXT_COLOURS], t.Palette[:])
	x0 := (MENU_TILES_X - t.WidthTiles) / 2
	for row := range t.HeightTiles {
		for col := range t.WidthTiles {
			src := (row*t.WidthTiles + col) * TILE_BYTES
			dst := ((menuThumbY+row)*MENU_TILES_X + x0 + col) * TILE_BYTES
			copy(m.tiles[dst:dst+TILE_BYTES], t.Tiles[src:src+TILE_BYTES])
		}
	}
}

// compose stamps the text masks over the tiles, amber over white.
func (m *ReelMenu) compose() {
	w := m.white.Rect.Dx()
	for y := range m.white.Rect.Dy() {
		for x := range w {
			switch {
			case m.amber.Pix[y*w+x] >= 0x80:
				setTilePixel(m.tiles, MENU_TILES_X, x, y, menuYellow)
			case m.white.Pix[y*w+x] >= 0x80:
				setTilePixel(m.tiles, MENU_TILES_X, x, y, menuWhite)
			}
		}
	}
}

// setTilePixel writes one 4-bit pixel into tile memory laid out widthTiles
// tiles across.
func setTilePixel(tiles []byte, widthTiles, x, y int, c byte) {
	tile := (y/TILE_HEIGHT)*widthTiles + x/TILE_WIDTH
	i := tile*TILE_BYTES + (y%TILE_HEIGHT)*(TILE_WIDTH/2) + (x%TILE_WIDTH)/2
	if x%2 == 0 {
		tiles[i] = tiles[i]&0x0F | c<<4
	} else {
		tiles[i] = tiles[i]&0xF0 | c&0x0F
	}
}

func clipText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// wrapText breaks s on spaces into lines of at most n runes. A word longer
// than a line is cut.
func wrapText(s string, n int) []string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(s) {
		word = clipText(word, n)
		switch {
		case line == "":
			line = word
		case len([]rune(line))+1+len([]rune(word)) <= n:
			line += " " + word
		default:
			lines = append(lines, line)
			line = word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// StatusLine renders the menu for the terminal host.
func (m *ReelMenu) StatusLine() string {
	e, ok := m.Selected()
	if !ok {
		return "[menu    ] no reels found"
	}
	line := fmt.Sprintf("[%-8s] %d/%d > %s", "menu", m.selected+1, len(m.entries), e.Label())
	if m.message != "" {
		line += " (" + m.message + ")"
	}
	return line
}

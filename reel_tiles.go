// reel_tiles.go - Decoded tile frames and tile rendering

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

// DecodedFrame is tile pattern memory plus the active palette, in the
// layout the display hardware consumes: 8x8 tiles, 4 bits per pixel, two
// pixels per byte with the left pixel in the high nibble, rows top to bottom.
type DecodedFrame struct {
	Number  int // frame index this content belongs to, -1 when blank
	Palette [PALETTE_SIZE]uint16
	Tiles   []byte

	// Written by the last decode. Full means every tile changed.
	Full    bool
	Changed []int
}

func newDecodedFrame(tileCount int) *DecodedFrame {
	return &DecodedFrame{
		Number:  -1,
		Tiles:   make([]byte, tileCount*TILE_BYTES),
		Changed: make([]int, 0, tileCount),
	}
}

func (f *DecodedFrame) Tile(i int) []byte {
	return f.Tiles[i*TILE_BYTES : (i+1)*TILE_BYTES]
}

func (f *DecodedFrame) copyFrom(src *DecodedFrame) {
	f.Number = src.Number
	f.Palette = src.Palette
	copy(f.Tiles, src.Tiles)
	f.Full = false
	f.Changed = f.Changed[:0]
}

func (f *DecodedFrame) clear() {
	f.Number = -1
	f.Palette = [PALETTE_SIZE]uint16{}
	clear(f.Tiles)
	f.Full = false
	f.Changed = f.Changed[:0]
}

// paletteRGBA expands a 0x0BGR colour word (4 bits per channel, top nibble
// ignored) to packed little-endian RGBA.
func paletteRGBA(c uint16) uint32 {
	r := uint32(c&0x00F) * 0x11
	g := uint32(c>>4&0x00F) * 0x11
	b := uint32(c>>8&0x00F) * 0x11
	return r | g<<8 | b<<16 | 0xFF000000
}

// renderTile draws one 4bpp tile into an RGBA buffer stride pixels wide.
func renderTile(dst []byte, stride, x, y int, tile []byte, colors *[PALETTE_SIZE]uint32) {
	for row := range TILE_HEIGHT {
		off := ((y+row)*stride + x) * 4
		for col := 0; col < TILE_WIDTH/2; col++ {
			b := tile[row*(TILE_WIDTH/2)+col]
			putRGBA(dst[off:], colors[b>>4])
			putRGBA(dst[off+4:], colors[b&0x0F])
			off += 8
		}
	}
}

func putRGBA(dst []byte, c uint32) {
	dst[0] = byte(c)
	dst[1] = byte(c >> 8)
	dst[2] = byte(c >> 16)
	dst[3] = byte(c >> 24)
}

// reel_thumbnail.go - Catalog thumbnail block

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
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

// Thumbnail block, present when REEL_FLAG_THUMBNAIL is set. It sits right
// after the header, ahead of both index tables.
//
//	0   width in tiles
//	2   height in tiles
//	4   palette, 16 0x0BGR words
//	36  tiles, width*height*TILE_BYTES
//	..  CRC32 of everything above
//
// Palette entries 14 and 15 are taken over by menu text.
const (
	THUMB_PREFIX_SIZE  = 4
	THUMB_MAX_TILES_X  = REEL_MAX_TILES_X / 2
	THUMB_MAX_TILES_Y  = REEL_MAX_TILES_Y / 2
	THUMB_TEXT_COLOURS = 2
)

type ReelThumbnail struct {
	WidthTiles  int
	HeightTiles int
	Palette     [PALETTE_SIZE]uint16
	Tiles       []byte
}

func thumbnailBlockSize(widthTiles, heightTiles int) int {
	return THUMB_PREFIX_SIZE + FRAME_PALETTE_SIZE + widthTiles*heightTiles*TILE_BYTES + PAYLOAD_CRC_SIZE
}

// readThumbnailSize reads the block geometry and returns the block length.
func readThumbnailSize(src ReelSource, size int64) (int, error) {
	var prefix [THUMB_PREFIX_SIZE]byte
	if err := readFull(src, prefix[:], REEL_HEADER_SIZE); err != nil {
		return 0, fmt.Errorf("%w: thumbnail: %v", ErrTruncated, err)
	}
	w := int(binary.LittleEndian.Uint16(prefix[0:]))
	h := int(binary.LittleEndian.Uint16(prefix[2:]))
	if w == 0 || w > THUMB_MAX_TILES_X || h == 0 || h > THUMB_MAX_TILES_Y {
		return 0, fmt.Errorf("%w: %dx%d tile thumbnail", ErrMalformedHeader, w, h)
	}
	n := thumbnailBlockSize(w, h)
	if int64(REEL_HEADER_SIZE+n) > size {
		return 0, fmt.Errorf("%w: thumbnail ends at 0x%X past 0x%X", ErrTruncated, REEL_HEADER_SIZE+n, size)
	}
	return n, nil
}

// ReadThumbnail loads and checks the thumbnail block. It returns nil when the
// container has none.
func (x *ReelIndex) ReadThumbnail(src ReelSource) (*ReelThumbnail, error) {
	if x.thumbSize == 0 {
		return nil, nil
	}
	buf := make([]byte, x.thumbSize)
	if err := readFull(src, buf, REEL_HEADER_SIZE); err != nil {
		return nil, fmt.Errorf("%w: thumbnail: %v", ErrTruncated, err)
	}
	le := binary.LittleEndian
	body := len(buf) - PAYLOAD_CRC_SIZE
	if got, want := crc32.ChecksumIEEE(buf[:body]), le.Uint32(buf[body:]); got != want {
		return nil, fmt.Errorf("%w: thumbnail crc 0x%08X, want 0x%08X", ErrCorruptFrame, got, want)
	}

	t := &ReelThumbnail{
		WidthTiles:  int(le.Uint16(buf[0:])),
		HeightTiles: int(le.Uint16(buf[2:])),
	}
	for i := range t.Palette {
		t.Palette[i] = le.Uint16(buf[THUMB_PREFIX_SIZE+2*i:])
	}
	t.Tiles = buf[THUMB_PREFIX_SIZE+FRAME_PALETTE_SIZE : body]
	return t, nil
}

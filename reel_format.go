// reel_format.go - REEL container layout and header parsing

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
	"strings"
)

// Container layout. All multi-byte fields are little-endian.
//
//	0   magic "REEL"
//	4   version
//	6   flags (REEL_FLAG_*)
//	8   width in tiles
//	10  height in tiles
//	12  ticks per frame
//	14  tick rate (Hz)
//	16  frame count
//	20  sample rate (Hz)
//	24  samples per audio chunk
//	28  audio chunk count
//	32  frame index table offset
//	36  audio index table offset
//	40  largest frame payload
//	44  largest audio payload
//	48  title, NUL padded
const (
	REEL_MAGIC       = "REEL"
	REEL_VERSION     = 1
	REEL_HEADER_SIZE = 64
	REEL_ENTRY_SIZE  = 12
	REEL_TITLE_SIZE  = 16

	REEL_FLAG_AUDIO     = 0x0001
	REEL_FLAG_THUMBNAIL = 0x0002
	reelFlagMask        = REEL_FLAG_AUDIO | REEL_FLAG_THUMBNAIL

	REEL_ENTRY_KEY = 0x0001 // frame payload is a keyframe
)

// Display mode limits. 8x8 tiles, 4 bits per pixel, 16 colour palette.
const (
	TILE_WIDTH       = 8
	TILE_HEIGHT      = 8
	TILE_BYTES       = TILE_WIDTH * TILE_HEIGHT / 2
	PALETTE_SIZE     = 16
	REEL_MAX_TILES_X = 40
	REEL_MAX_TILES_Y = 30

	REEL_MAX_TICKS_PER_FRAME = 255
)

// Frame payload layout
const (
	FRAME_TYPE_KEY   = 0
	FRAME_TYPE_DELTA = 1

	FRAME_FLAG_PALETTE = 0x01
	FRAME_FLAG_RLE     = 0x02
	frameFlagMask      = FRAME_FLAG_PALETTE | FRAME_FLAG_RLE

	FRAME_PREFIX_SIZE  = 4
	FRAME_PALETTE_SIZE = PALETTE_SIZE * 2
	DELTA_RECORD_SIZE  = 2 + TILE_BYTES
	PAYLOAD_CRC_SIZE   = 4
)

// Audio payload layout
const (
	AUDIO_CODEC_PCM8  = 0
	AUDIO_CODEC_RLE8  = 1
	AUDIO_CODEC_DPCM4 = 2

	AUDIO_PREFIX_SIZE = 4
)

type ReelHeader struct {
	Version          uint16
	Flags            uint16
	WidthTiles       uint16
	HeightTiles      uint16
	TicksPerFrame    uint16
	TickRate         uint16
	FrameCount       uint32
	SampleRate       uint32
	SamplesPerChunk  uint32
	AudioChunks      uint32
	FrameIndexOffset uint32
	AudioIndexOffset uint32
	MaxFrameBytes    uint32
	MaxChunkBytes    uint32
	Title            string
}

func (h ReelHeader) HasAudio() bool {
	return h.Flags&REEL_FLAG_AUDIO != 0
}

func (h ReelHeader) HasThumbnail() bool {
	return h.Flags&REEL_FLAG_THUMBNAIL != 0
}

func (h ReelHeader) TileCount() int {
	return int(h.WidthTiles) * int(h.HeightTiles)
}

// DurationTicks is the number of display ticks one pass over the frames takes.
func (h ReelHeader) DurationTicks() uint64 {
	return uint64(h.FrameCount) * uint64(h.TicksPerFrame)
}

func (h ReelHeader) DurationText() string {
	if h.TickRate == 0 {
		return ""
	}
	seconds := h.DurationTicks() / uint64(h.TickRate)
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

func parseReelHeader(buf []byte) (ReelHeader, error) {
	var h ReelHeader
	if len(buf) < REEL_HEADER_SIZE {
		return h, fmt.Errorf("%w: header is %d bytes", ErrTruncated, len(buf))
	}
	if string(buf[0:4]) != REEL_MAGIC {
		return h, fmt.Errorf("%w: bad magic %q", ErrMalformedHeader, buf[0:4])
	}

	le := binary.LittleEndian
	h.Version = le.Uint16(buf[4:])
	h.Flags = le.Uint16(buf[6:])
	h.WidthTiles = le.Uint16(buf[8:])
	h.HeightTiles = le.Uint16(buf[10:])
	h.TicksPerFrame = le.Uint16(buf[12:])
	h.TickRate = le.Uint16(buf[14:])
	h.FrameCount = le.Uint32(buf[16:])
	h.SampleRate = le.Uint32(buf[20:])
	h.SamplesPerChunk = le.Uint32(buf[24:])
	h.AudioChunks = le.Uint32(buf[28:])
	h.FrameIndexOffset = le.Uint32(buf[32:])
	h.AudioIndexOffset = le.Uint32(buf[36:])
	h.MaxFrameBytes = le.Uint32(buf[40:])
	h.MaxChunkBytes = le.Uint32(buf[44:])
	h.Title = strings.TrimRight(string(buf[48:48+REEL_TITLE_SIZE]), "\x00")

	if err := h.validate(); err != nil {
		return ReelHeader{}, err
	}
	return h, nil
}

func (h ReelHeader) validate() error {
	switch {
	case h.Version != REEL_VERSION:
		return fmt.Errorf("%w: unsupported version %d", ErrMalformedHeader, h.Version)
	case h.Flags&^reelFlagMask != 0:
		return fmt.Errorf("%w: unknown flags 0x%04X", ErrMalformedHeader, h.Flags)
	case h.WidthTiles == 0 || h.WidthTiles > REEL_MAX_TILES_X,
		h.HeightTiles == 0 || h.HeightTiles > REEL_MAX_TILES_Y:
		return fmt.Errorf("%w: %dx%d tiles outside display mode", ErrMalformedHeader, h.WidthTiles, h.HeightTiles)
	case h.TicksPerFrame == 0 || h.TicksPerFrame > REEL_MAX_TICKS_PER_FRAME:
		return fmt.Errorf("%w: ticks per frame %d", ErrMalformedHeader, h.TicksPerFrame)
	case h.TickRate == 0:
		return fmt.Errorf("%w: zero tick rate", ErrMalformedHeader)
	case h.FrameCount == 0:
		return fmt.Errorf("%w: container has no frames", ErrMalformedHeader)
	case h.MaxFrameBytes < FRAME_PREFIX_SIZE+PAYLOAD_CRC_SIZE:
		return fmt.Errorf("%w: max frame size %d", ErrMalformedHeader, h.MaxFrameBytes)
	}

	if !h.HasAudio() {
		if h.AudioChunks != 0 {
			return fmt.Errorf("%w: %d audio chunks without audio flag", ErrMalformedHeader, h.AudioChunks)
		}
		return nil
	}
	switch {
	case h.SampleRate == 0 || h.SamplesPerChunk == 0 || h.AudioChunks == 0:
		return fmt.Errorf("%w: audio flag set with empty audio description", ErrMalformedHeader)
	case h.SamplesPerChunk > 0xFFFF:
		return fmt.Errorf("%w: %d samples per chunk", ErrMalformedHeader, h.SamplesPerChunk)
	case h.MaxChunkBytes < AUDIO_PREFIX_SIZE+PAYLOAD_CRC_SIZE:
		return fmt.Errorf("%w: max chunk size %d", ErrMalformedHeader, h.MaxChunkBytes)
	}
	return nil
}

type ReelIndexEntry struct {
	Offset uint32
	Length uint32
	Flags  uint16
}

func (e ReelIndexEntry) End() uint64 {
	return uint64(e.Offset) + uint64(e.Length)
}

func (e ReelIndexEntry) IsKey() bool {
	return e.Flags&REEL_ENTRY_KEY != 0
}

func parseIndexEntry(buf []byte) ReelIndexEntry {
	le := binary.LittleEndian
	return ReelIndexEntry{
		Offset: le.Uint32(buf[0:]),
		Length: le.Uint32(buf[4:]),
		Flags:  le.Uint16(buf[8:]),
	}
}

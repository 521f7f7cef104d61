// reel_frame_decoder.go - Keyframe and delta frame decoder

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
	"hash/crc32"
)

// frameJob is a validated frame waiting to be copied into the back buffer.
// Tile copies can be spread over several ticks; the job is only published
// once every tile has landed.
type frameJob struct {
	frame   int
	key     bool
	palette *[PALETTE_SIZE]uint16
	body    []byte // key: tiles*TILE_BYTES, delta: tiles*DELTA_RECORD_SIZE
	tiles   int
	next    int
}

// FrameDecoder expands frame payloads into a double-buffered DecodedFrame.
// It never touches playback state; its only output is the back frame.
type FrameDecoder struct {
	tileCount int
	front     *DecodedFrame
	back      *DecodedFrame
	scratch   []byte
	job       *frameJob
	jobPal    [PALETTE_SIZE]uint16
}

func NewFrameDecoder(h ReelHeader) *FrameDecoder {
	tiles := h.TileCount()
	bodyMax := tiles * DELTA_RECORD_SIZE
	return &FrameDecoder{
		tileCount: tiles,
		front:     newDecodedFrame(tiles),
		back:      newDecodedFrame(tiles),
		scratch:   make([]byte, bodyMax),
	}
}

// decodedFrameBytes is the working memory a decoder needs for a header.
func decodedFrameBytes(h ReelHeader) int {
	tiles := h.TileCount()
	return 2*tiles*TILE_BYTES + tiles*DELTA_RECORD_SIZE
}

// Begin validates a payload and stages it for Step. A corrupt payload
// leaves both frames untouched.
func (d *FrameDecoder) Begin(frame int, payload []byte) error {
	d.job = nil

	n := len(payload)
	if n < FRAME_PREFIX_SIZE+PAYLOAD_CRC_SIZE {
		return corruptFrame("%d byte payload", n)
	}
	want := binary.LittleEndian.Uint32(payload[n-PAYLOAD_CRC_SIZE:])
	if got := crc32.ChecksumIEEE(payload[:n-PAYLOAD_CRC_SIZE]); got != want {
		return corruptFrame("crc 0x%08X, want 0x%08X", got, want)
	}

	kind := payload[0]
	flags := payload[1]
	tiles := int(binary.LittleEndian.Uint16(payload[2:]))
	if flags&^frameFlagMask != 0 {
		return corruptFrame("unknown flags 0x%02X", flags)
	}

	job := &frameJob{frame: frame, tiles: tiles}
	recordSize := TILE_BYTES
	switch kind {
	case FRAME_TYPE_KEY:
		if tiles != d.tileCount {
			return corruptFrame("keyframe carries %d of %d tiles", tiles, d.tileCount)
		}
		if flags&FRAME_FLAG_PALETTE == 0 {
			return corruptFrame("keyframe without palette")
		}
		job.key = true
	case FRAME_TYPE_DELTA:
		if tiles > d.tileCount {
			return corruptFrame("delta carries %d tiles, screen has %d", tiles, d.tileCount)
		}
		recordSize = DELTA_RECORD_SIZE
	default:
		return corruptFrame("unknown frame type %d", kind)
	}

	pos := FRAME_PREFIX_SIZE
	end := n - PAYLOAD_CRC_SIZE
	if flags&FRAME_FLAG_PALETTE != 0 {
		if end-pos < FRAME_PALETTE_SIZE {
			return corruptFrame("palette truncated")
		}
		for i := range d.jobPal {
			d.jobPal[i] = binary.LittleEndian.Uint16(payload[pos+i*2:])
		}
		job.palette = &d.jobPal
		pos += FRAME_PALETTE_SIZE
	}

	bodyLen := tiles * recordSize
	if flags&FRAME_FLAG_RLE != 0 {
		job.body = d.scratch[:bodyLen]
		if err := rleExpand(job.body, payload[pos:end]); err != nil {
			return corruptFrame("tile body: %v", err)
		}
	} else {
		if end-pos != bodyLen {
			return corruptFrame("tile body is %d bytes, want %d", end-pos, bodyLen)
		}
		job.body = payload[pos:end]
	}

	if !job.key {
		for i := range tiles {
			idx := int(binary.LittleEndian.Uint16(job.body[i*DELTA_RECORD_SIZE:]))
			if idx >= d.tileCount {
				return corruptFrame("delta tile %d out of range", idx)
			}
		}
	}

	d.back.copyFrom(d.front)
	d.back.Number = frame
	d.back.Full = job.key
	if job.palette != nil {
		d.back.Palette = *job.palette
	}
	d.job = job
	return nil
}

// Step copies up to budget tiles (all when budget <= 0) and reports whether
// the staged frame is complete.
func (d *FrameDecoder) Step(budget int) bool {
	job := d.job
	if job == nil {
		return true
	}
	limit := job.tiles
	if budget > 0 && job.next+budget < limit {
		limit = job.next + budget
	}
	for i := job.next; i < limit; i++ {
		if job.key {
			copy(d.back.Tile(i), job.body[i*TILE_BYTES:(i+1)*TILE_BYTES])
			continue
		}
		rec := job.body[i*DELTA_RECORD_SIZE : (i+1)*DELTA_RECORD_SIZE]
		idx := int(binary.LittleEndian.Uint16(rec))
		copy(d.back.Tile(idx), rec[2:])
		d.back.Changed = append(d.back.Changed, idx)
	}
	job.next = limit
	return job.next >= job.tiles
}

// Decode runs Begin and a full Step.
func (d *FrameDecoder) Decode(frame int, payload []byte) error {
	if err := d.Begin(frame, payload); err != nil {
		return err
	}
	d.Step(0)
	return nil
}

func (d *FrameDecoder) Pending() bool {
	return d.job != nil && d.job.next < d.job.tiles
}

// Ready reports a staged frame whose tiles are all in place.
func (d *FrameDecoder) Ready() bool {
	return d.job != nil && d.job.next >= d.job.tiles
}

// Publish swaps a completed back frame to the front and returns it.
func (d *FrameDecoder) Publish() *DecodedFrame {
	if !d.Ready() {
		return nil
	}
	d.job = nil
	d.front, d.back = d.back, d.front
	return d.front
}

func (d *FrameDecoder) Front() *DecodedFrame {
	return d.front
}

// Abort drops any staged frame; the front frame stays as it was.
func (d *FrameDecoder) Abort() {
	d.job = nil
}

func (d *FrameDecoder) Reset() {
	d.job = nil
	d.front.clear()
	d.back.clear()
}

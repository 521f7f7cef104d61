// reel_index.go - Container index

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
)

// ReelIndex is the parsed header plus frame and audio offset tables. It never
// holds payload bytes.
type ReelIndex struct {
	header ReelHeader
	frames []ReelIndexEntry
	audio  []ReelIndexEntry
	size   int64

	// thumbSize is the thumbnail block length, zero without one. Index
	// tables and payloads start after it.
	thumbSize int
}

// OpenReelIndex reads and validates the header and both index tables. Every
// entry is checked against the source extent here, so a damaged container
// fails at open time instead of feeding garbage to the decoders.
func OpenReelIndex(src ReelSource) (*ReelIndex, error) {
	if src == nil {
		return nil, ErrNoSuchSource
	}
	size := src.Size()
	if size < REEL_HEADER_SIZE {
		return nil, fmt.Errorf("%w: %d byte source", ErrTruncated, size)
	}

	buf := make([]byte, REEL_HEADER_SIZE)
	if err := readFull(src, buf, 0); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrTruncated, err)
	}
	h, err := parseReelHeader(buf)
	if err != nil {
		return nil, err
	}

	idx := &ReelIndex{header: h, size: size}
	if h.HasThumbnail() {
		if idx.thumbSize, err = readThumbnailSize(src, size); err != nil {
			return nil, err
		}
	}
	dataStart := uint32(REEL_HEADER_SIZE + idx.thumbSize)
	idx.frames, err = readIndexTable(src, size, dataStart, "frame", h.FrameIndexOffset, h.FrameCount, h.MaxFrameBytes)
	if err != nil {
		return nil, err
	}
	if h.HasAudio() {
		idx.audio, err = readIndexTable(src, size, dataStart, "audio", h.AudioIndexOffset, h.AudioChunks, h.MaxChunkBytes)
		if err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// readIndexTable loads one offset table. dataStart is the first byte past the
// header and thumbnail; nothing may point below it.
func readIndexTable(src ReelSource, size int64, dataStart uint32, name string, offset, count, maxLen uint32) ([]ReelIndexEntry, error) {
	if offset < dataStart {
		return nil, fmt.Errorf("%w: %s index at 0x%X overlaps header", ErrMalformedHeader, name, offset)
	}
	end := uint64(offset) + uint64(count)*REEL_ENTRY_SIZE
	if end > uint64(size) {
		return nil, fmt.Errorf("%w: %s index ends at 0x%X past 0x%X", ErrTruncated, name, end, size)
	}

	raw := make([]byte, int(count)*REEL_ENTRY_SIZE)
	if err := readFull(src, raw, int64(offset)); err != nil {
		return nil, fmt.Errorf("%w: %s index: %v", ErrTruncated, name, err)
	}

	entries := make([]ReelIndexEntry, count)
	for i := range entries {
		e := parseIndexEntry(raw[i*REEL_ENTRY_SIZE:])
		switch {
		case e.Length == 0:
			return nil, fmt.Errorf("%w: %s %d is empty", ErrMalformedHeader, name, i)
		case e.Length > maxLen:
			return nil, fmt.Errorf("%w: %s %d is %d bytes, header allows %d", ErrMalformedHeader, name, i, e.Length, maxLen)
		case e.Offset < dataStart:
			return nil, fmt.Errorf("%w: %s %d at 0x%X overlaps header", ErrMalformedHeader, name, i, e.Offset)
		case e.End() > uint64(size):
			return nil, fmt.Errorf("%w: %s %d ends at 0x%X past 0x%X", ErrTruncated, name, i, e.End(), size)
		}
		entries[i] = e
	}
	return entries, nil
}

func (x *ReelIndex) Header() ReelHeader {
	return x.header
}

func (x *ReelIndex) FrameCount() int {
	return len(x.frames)
}

func (x *ReelIndex) AudioChunkCount() int {
	return len(x.audio)
}

func (x *ReelIndex) Entry(frame int) (ReelIndexEntry, error) {
	if frame < 0 || frame >= len(x.frames) {
		return ReelIndexEntry{}, &ReelError{Op: "entry", Index: frame, Err: ErrOutOfRange}
	}
	return x.frames[frame], nil
}

func (x *ReelIndex) AudioEntry(chunk int) (ReelIndexEntry, error) {
	if chunk < 0 || chunk >= len(x.audio) {
		return ReelIndexEntry{}, &ReelError{Op: "audio entry", Index: chunk, Err: ErrOutOfRange}
	}
	return x.audio[chunk], nil
}

// reel_errors.go - Playback error values

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
	"errors"
	"fmt"
)

var (
	ErrNoSuchSource    = errors.New("reel: no such source")
	ErrMalformedHeader = errors.New("reel: malformed header")
	ErrTruncated       = errors.New("reel: truncated container")
	ErrOutOfRange      = errors.New("reel: index out of range")
	ErrCorruptFrame    = errors.New("reel: corrupt frame")
	ErrCorruptChunk    = errors.New("reel: corrupt audio chunk")
	ErrPrefetchStall   = errors.New("reel: prefetch stall limit exceeded")
	ErrOutOfMemory     = errors.New("reel: working buffers exceed memory budget")
	ErrNotInitialized  = errors.New("reel: engine not initialized")
	ErrSlotBusy        = errors.New("reel: working slot busy")
)

// ReelError provides frame/chunk context for a failed engine operation
type ReelError struct {
	Op    string // prefetch, decode, entry, ...
	Index int    // frame or chunk number, -1 when not applicable
	Err   error
}

func (e *ReelError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("reel %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("reel %s %d: %v", e.Op, e.Index, e.Err)
}

func (e *ReelError) Unwrap() error {
	return e.Err
}

func corruptFrame(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrCorruptFrame}, args...)...)
}

func corruptChunk(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrCorruptChunk}, args...)...)
}

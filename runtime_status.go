// runtime_status.go - Engine status shared with the display and terminal

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
	"sync"
)

// runtimeStatusStore publishes the engine status from the tick goroutine to
// readers on other goroutines (the ebiten draw loop, the terminal).
type runtimeStatusStore struct {
	mu sync.RWMutex
	EngineStatus
}

func (s *runtimeStatusStore) publish(st EngineStatus) {
	s.mu.Lock()
	s.EngineStatus = st
	s.mu.Unlock()
}

func (s *runtimeStatusStore) snapshot() EngineStatus {
	s.mu.RLock()
	snap := s.EngineStatus
	s.mu.RUnlock()
	return snap
}

var runtimeStatus = &runtimeStatusStore{}

func formatFramePosition(s EngineStatus) string {
	if s.Shown < 0 || s.FrameCount == 0 {
		return "--/--"
	}
	return fmt.Sprintf("%d/%d", s.Shown+1, s.FrameCount)
}

// formatStatusLine renders one console line for the terminal host.
func formatStatusLine(s EngineStatus) string {
	line := fmt.Sprintf("[%-8s] %s frame %s", s.State, s.Title, formatFramePosition(s))
	if s.Loop {
		line += fmt.Sprintf(" loop %d", s.Loops)
	}
	if s.TotalStalls > 0 {
		line += fmt.Sprintf(" stalls %d", s.TotalStalls)
	}
	if s.DroppedSamples > 0 || s.Underruns > 0 {
		line += fmt.Sprintf(" audio drop %d underrun %d", s.DroppedSamples, s.Underruns)
	}
	if n := s.CorruptFrames + s.CorruptChunks; n > 0 {
		line += fmt.Sprintf(" errors %d", n)
	}
	if s.State == StateAborted && s.LastError != nil {
		line += fmt.Sprintf(" (%v)", s.LastError)
	}
	return line
}

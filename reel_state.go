// reel_state.go - Engine and session state

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

type EngineState int

const (
	StateUninitialized EngineState = iota
	StateReady
	StatePlaying
	StatePaused
	StateFinished
	StateStopped
	StateAborted
)

func (s EngineState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	case StateStopped:
		return "stopped"
	case StateAborted:
		return "aborted"
	}
	return "unknown"
}

// PlaybackState is the per-session record. It is created by Play and only
// mutated by the engine's control methods, all called from one goroutine.
type PlaybackState struct {
	Session string
	Title   string
	Loop    bool
	Paused  bool

	// Frame is the scheduled frame index; Shown is the frame whose pixels
	// are on screen. They differ after a substitution or while a decode is
	// still in progress.
	Frame int
	Shown int

	// Ticks is the media clock: it only advances on ticks where playback
	// actually progressed (not paused, not stalled).
	Ticks         uint64
	HostTicks     uint64
	nextFrameTick uint64

	// Audio cadence for the current pass over the frames.
	passStart    uint64
	audioNext    int
	audioQueued  int
	audioDone    bool
	suppressNext int

	Stalls        int // consecutive
	TotalStalls   int
	LateTicks     int
	CorruptFrames int
	CorruptChunks int
	Loops         int

	// Samples the queue refused and device reads it could not fill.
	DroppedSamples int
	Underruns      uint64
	underrunBase   uint64
}

// EngineStatus is a copy of the state safe to hand to other goroutines.
type EngineStatus struct {
	State         EngineState
	Session       string
	Title         string
	Frame         int
	Shown         int
	FrameCount    int
	Loop          bool
	Ticks         uint64
	HostTicks     uint64
	Stalls        int
	TotalStalls   int
	CorruptFrames int
	CorruptChunks int
	Loops         int
	QueueDepth    int

	DroppedSamples int
	Underruns      uint64
	LastError      error
}

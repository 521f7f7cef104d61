// reel_config.go - Playback engine configuration

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
	"log/slog"
)

// EngineConfig holds the playback policy knobs. The zero value is usable;
// DefaultEngineConfig documents the defaults.
type EngineConfig struct {
	// MaxStallTicks is how many consecutive ticks a due frame or audio chunk
	// may wait on its prefetch before the session is aborted.
	MaxStallTicks int

	// Strict aborts the session on the first corrupt frame or chunk instead
	// of substituting the previous frame or silence.
	Strict bool

	// SuppressAudioOnCorruptFrame replaces the next audio chunk with silence
	// whenever a frame had to be substituted.
	SuppressAudioOnCorruptFrame bool

	// TileBudget caps how many tiles are copied per tick. Zero is unbounded.
	TileBudget int

	// TickRate is the host display refresh in Hz, the rate ProcessFrames is
	// called at. Reels authored for another rate are refused.
	TickRate int

	// MemoryBudget caps working memory (slots plus decoded frames) in bytes.
	// Zero is unbounded.
	MemoryBudget int

	// Transport builds the backing-store transport per session. Defaults to
	// NewDirectTransport.
	Transport TransportFactory

	Logger  *slog.Logger
	Metrics *ReelMetrics
}

const (
	defaultMaxStallTicks = 30
	defaultMemoryBudget  = 256 * 1024
	defaultTickRate      = 60
)

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxStallTicks: defaultMaxStallTicks,
		MemoryBudget:  defaultMemoryBudget,
		TickRate:      defaultTickRate,
		Transport:     NewDirectTransport,
	}
}

func (c EngineConfig) withDefaults() EngineConfig {
	if c.MaxStallTicks <= 0 {
		c.MaxStallTicks = defaultMaxStallTicks
	}
	if c.TickRate <= 0 {
		c.TickRate = defaultTickRate
	}
	if c.Transport == nil {
		c.Transport = NewDirectTransport
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

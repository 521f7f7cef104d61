// audio_sample_ring.go - Sample FIFO between the engine and the audio device

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
	"sync"
	"sync/atomic"
)

// SampleQueue is the sound hardware's sample FIFO as seen by the engine.
type SampleQueue interface {
	// PushSamples appends as many samples as fit and returns that count.
	PushSamples(samples []int8) int
	// Queued is the number of samples not yet played.
	Queued() int
	// SetHold freezes output (silence, nothing consumed) while true.
	SetHold(hold bool)
	Clear()
}

// RateAdapter is implemented by queues that play at a fixed device rate and
// need to know the rate samples are produced at.
type RateAdapter interface {
	SetSourceRate(hz int)
}

// UnderrunCounter is implemented by queues that count device reads they
// could not fill.
type UnderrunCounter interface {
	Underruns() uint64
}

// SampleRing is a fixed-capacity FIFO between the control goroutine
// (producer) and the audio device callback (consumer).
type SampleRing struct {
	mu    sync.Mutex
	buf   []int8
	head  int // next read
	count int
	hold  atomic.Bool

	// Source samples consumed per device sample, 16.16 fixed point.
	sourceRate int
	outputRate int
	step       uint32
	phase      uint32

	underruns atomic.Uint64
}

func NewSampleRing(capacity int) *SampleRing {
	if capacity <= 0 {
		capacity = 1
	}
	return &SampleRing{buf: make([]int8, capacity), step: 1 << 16}
}

func (r *SampleRing) SetSourceRate(hz int) {
	r.mu.Lock()
	r.sourceRate = hz
	r.updateStep()
	r.mu.Unlock()
}

func (r *SampleRing) SetOutputRate(hz int) {
	r.mu.Lock()
	r.outputRate = hz
	r.updateStep()
	r.mu.Unlock()
}

func (r *SampleRing) updateStep() {
	r.phase = 0
	if r.sourceRate <= 0 || r.outputRate <= 0 {
		r.step = 1 << 16
		return
	}
	r.step = uint32(uint64(r.sourceRate) << 16 / uint64(r.outputRate))
	if r.step == 0 {
		r.step = 1
	}
}

func (r *SampleRing) PushSamples(samples []int8) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	free := len(r.buf) - r.count
	n := min(free, len(samples))
	tail := (r.head + r.count) % len(r.buf)
	first := min(n, len(r.buf)-tail)
	copy(r.buf[tail:], samples[:first])
	copy(r.buf, samples[first:n])
	r.count += n
	return n
}

func (r *SampleRing) Queued() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func (r *SampleRing) Capacity() int {
	return len(r.buf)
}

func (r *SampleRing) SetHold(hold bool) {
	r.hold.Store(hold)
}

func (r *SampleRing) Clear() {
	r.mu.Lock()
	r.head = 0
	r.count = 0
	r.phase = 0
	r.mu.Unlock()
}

// Underruns counts device reads that found the ring empty while not held.
func (r *SampleRing) Underruns() uint64 {
	return r.underruns.Load()
}

// ReadFloat32 fills dst for the audio device, holding each source sample
// for as many device samples as the rate ratio requires. Missing samples are
// silence.
func (r *SampleRing) ReadFloat32(dst []float32) {
	if r.hold.Load() {
		clear(dst)
		return
	}

	r.mu.Lock()
	n := 0
	for ; n < len(dst) && r.count > 0; n++ {
		dst[n] = float32(r.buf[r.head]) / 128
		r.phase += r.step
		for r.phase >= 1<<16 && r.count > 0 {
			r.phase -= 1 << 16
			r.head++
			if r.head == len(r.buf) {
				r.head = 0
			}
			r.count--
		}
	}
	r.mu.Unlock()

	if n < len(dst) {
		clear(dst[n:])
		r.underruns.Add(1)
	}
}

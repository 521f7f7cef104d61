// reel_buffer_manager.go - Double-buffered working slots for video and audio prefetch

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

import "fmt"

type StreamKind int

const (
	StreamVideo StreamKind = iota
	StreamAudio
	streamKinds
)

func (k StreamKind) String() string {
	if k == StreamAudio {
		return "audio"
	}
	return "video"
}

type SlotID int

const (
	SlotCurrent SlotID = iota
	SlotNext
)

type slotState int

const (
	slotEmpty slotState = iota
	slotFilling
	slotReady
)

// workingSlot is one fixed-capacity staging buffer. While filling, buf
// belongs to the transfer and nothing else may read or write it.
type workingSlot struct {
	buf   []byte
	data  []byte
	unit  int
	state slotState
	xfer  Transfer
	err   error
}

// slotPair is the current/next arena for one stream. current indexes the
// slot the decoder consumes; the other one is the only prefetch target.
type slotPair struct {
	slots   [2]workingSlot
	current int
}

func (p *slotPair) slot(id SlotID) *workingSlot {
	if id == SlotCurrent {
		return &p.slots[p.current]
	}
	return &p.slots[p.current^1]
}

// BufferManager owns the video and audio working slots and hides
// backing-store latency behind decode time by filling "next" while
// "current" is being consumed.
type BufferManager struct {
	transport Transport
	pairs     [streamKinds]slotPair
	capacity  [streamKinds]int
	discarded int
}

func NewBufferManager(t Transport, frameBytes, chunkBytes int) *BufferManager {
	m := &BufferManager{transport: t}
	m.capacity[StreamVideo] = frameBytes
	m.capacity[StreamAudio] = chunkBytes
	for k := range streamKinds {
		for i := range m.pairs[k].slots {
			m.pairs[k].slots[i] = workingSlot{buf: make([]byte, m.capacity[k]), unit: -1}
		}
	}
	return m
}

// workingBufferBytes is the slot memory NewBufferManager allocates.
func workingBufferBytes(frameBytes, chunkBytes int) int {
	return 2*frameBytes + 2*chunkBytes
}

// Prefetch starts copying entry into the next slot of kind. The slot must be
// empty: it is refilled only after Swap hands its old contents back.
func (m *BufferManager) Prefetch(kind StreamKind, unit int, entry ReelIndexEntry) error {
	s := m.pairs[kind].slot(SlotNext)
	if s.state != slotEmpty {
		return &ReelError{Op: kind.String() + " prefetch", Index: unit, Err: ErrSlotBusy}
	}
	if int(entry.Length) > len(s.buf) {
		return &ReelError{Op: kind.String() + " prefetch", Index: unit,
			Err: fmt.Errorf("%w: %d byte payload, slot holds %d", ErrOutOfMemory, entry.Length, len(s.buf))}
	}
	s.unit = unit
	s.data = s.buf[:entry.Length]
	s.err = nil
	s.state = slotFilling
	s.xfer = m.transport.Begin(s.data, int64(entry.Offset))
	m.poll(s)
	return nil
}

// Poll advances every filling slot whose transfer has completed.
func (m *BufferManager) Poll() {
	for k := range streamKinds {
		for i := range m.pairs[k].slots {
			m.poll(&m.pairs[k].slots[i])
		}
	}
}

func (m *BufferManager) poll(s *workingSlot) {
	if s.state != slotFilling || !s.xfer.Done() {
		return
	}
	s.err = s.xfer.Err()
	s.xfer = nil
	s.state = slotReady
}

func (m *BufferManager) IsReady(kind StreamKind, id SlotID) bool {
	s := m.pairs[kind].slot(id)
	m.poll(s)
	return s.state == slotReady
}

// Pending reports the unit in the next slot, whether filling or ready.
func (m *BufferManager) Pending(kind StreamKind) (int, bool) {
	s := m.pairs[kind].slot(SlotNext)
	if s.state == slotEmpty {
		return -1, false
	}
	return s.unit, true
}

// WaitNext blocks until the next slot's transfer finishes. Only Play uses it,
// to decode the first frame before returning.
func (m *BufferManager) WaitNext(kind StreamKind) error {
	s := m.pairs[kind].slot(SlotNext)
	if s.state == slotFilling {
		s.err = s.xfer.Wait()
		s.xfer = nil
		s.state = slotReady
	}
	return s.err
}

// Swap retires the current slot and promotes a ready next slot.
func (m *BufferManager) Swap(kind StreamKind) error {
	p := &m.pairs[kind]
	next := p.slot(SlotNext)
	m.poll(next)
	if next.state != slotReady {
		return &ReelError{Op: kind.String() + " swap", Index: next.unit, Err: ErrSlotBusy}
	}
	cur := p.slot(SlotCurrent)
	cur.state = slotEmpty
	cur.data = nil
	cur.unit = -1
	cur.err = nil
	p.current ^= 1
	return nil
}

// Current returns the consumer's slot contents and the transfer error, if any.
func (m *BufferManager) Current(kind StreamKind) (int, []byte, error) {
	s := m.pairs[kind].slot(SlotCurrent)
	if s.state != slotReady {
		return -1, nil, &ReelError{Op: kind.String() + " current", Index: -1, Err: ErrSlotBusy}
	}
	return s.unit, s.data, s.err
}

// Reset empties both slots of one stream. A slot still being written is
// abandoned to its transfer and replaced by a fresh buffer, so nothing the
// engine holds can alias memory the transport is writing.
func (m *BufferManager) Reset(kind StreamKind) {
	p := &m.pairs[kind]
	for i := range p.slots {
		s := &p.slots[i]
		if s.state == slotFilling {
			m.discarded++
			s.buf = make([]byte, m.capacity[kind])
		}
		*s = workingSlot{buf: s.buf, unit: -1}
	}
	p.current = 0
}

// Release drops every slot. In-flight transfers finish into buffers nobody
// references any more.
func (m *BufferManager) Release() {
	for k := range streamKinds {
		p := &m.pairs[k]
		for i := range p.slots {
			if p.slots[i].state == slotFilling {
				m.discarded++
			}
			p.slots[i] = workingSlot{unit: -1}
		}
		p.current = 0
	}
}

// InFlight counts slots whose transfer has not completed.
func (m *BufferManager) InFlight() int {
	n := 0
	for k := range streamKinds {
		for i := range m.pairs[k].slots {
			if m.pairs[k].slots[i].state == slotFilling {
				n++
			}
		}
	}
	return n
}

func (m *BufferManager) Discarded() int {
	return m.discarded
}

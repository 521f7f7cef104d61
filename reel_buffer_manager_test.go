package main

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func bufferFixture(t *testing.T) (*ReelIndex, ReelSource, []byte) {
	t.Helper()
	data := newReelBuilder(2, 1, 1).keyFrames(3).withAudio(8000, 8).pcmChunks(2).build()
	src := NewMemorySource(data)
	idx, err := OpenReelIndex(src)
	if err != nil {
		t.Fatalf("OpenReelIndex: %v", err)
	}
	return idx, src, data
}

func newTestBuffers(idx *ReelIndex, tr Transport) *BufferManager {
	h := idx.Header()
	return NewBufferManager(tr, int(h.MaxFrameBytes), int(h.MaxChunkBytes))
}

func TestBufferManager_PrefetchSwapCurrent(t *testing.T) {
	idx, src, data := bufferFixture(t)
	m := newTestBuffers(idx, NewDirectTransport(src))

	e, _ := idx.Entry(1)
	if err := m.Prefetch(StreamVideo, 1, e); err != nil {
		t.Fatalf("Prefetch: %v", err)
	}
	if !m.IsReady(StreamVideo, SlotNext) {
		t.Fatal("direct transfer should be ready at once")
	}
	if unit, ok := m.Pending(StreamVideo); !ok || unit != 1 {
		t.Fatalf("Pending = %d %v", unit, ok)
	}
	if err := m.Swap(StreamVideo); err != nil {
		t.Fatalf("Swap: %v", err)
	}
	unit, payload, err := m.Current(StreamVideo)
	if err != nil || unit != 1 {
		t.Fatalf("Current = %d %v", unit, err)
	}
	if !bytes.Equal(payload, data[e.Offset:e.End()]) {
		t.Fatal("slot holds the wrong bytes")
	}
	if _, ok := m.Pending(StreamVideo); ok {
		t.Fatal("next slot should be empty after swap")
	}
}

func TestBufferManager_NextSlotBusy(t *testing.T) {
	idx, src, _ := bufferFixture(t)
	m := newTestBuffers(idx, NewDirectTransport(src))
	e0, _ := idx.Entry(0)
	e1, _ := idx.Entry(1)
	if err := m.Prefetch(StreamVideo, 0, e0); err != nil {
		t.Fatal(err)
	}
	if err := m.Prefetch(StreamVideo, 1, e1); !errors.Is(err, ErrSlotBusy) {
		t.Fatalf("second prefetch err = %v, want ErrSlotBusy", err)
	}
	// Streams are independent.
	a0, _ := idx.AudioEntry(0)
	if err := m.Prefetch(StreamAudio, 0, a0); err != nil {
		t.Fatalf("audio prefetch: %v", err)
	}
}

func TestBufferManager_SwapRequiresReady(t *testing.T) {
	idx, src, _ := bufferFixture(t)
	tr := newManualTransport(src)
	tr.hold = true
	m := newTestBuffers(idx, tr)

	if err := m.Swap(StreamVideo); !errors.Is(err, ErrSlotBusy) {
		t.Fatalf("swap of empty slot err = %v", err)
	}
	e, _ := idx.Entry(2)
	if err := m.Prefetch(StreamVideo, 2, e); err != nil {
		t.Fatal(err)
	}
	m.Poll()
	if m.IsReady(StreamVideo, SlotNext) {
		t.Fatal("held transfer reported ready")
	}
	if err := m.Swap(StreamVideo); !errors.Is(err, ErrSlotBusy) {
		t.Fatalf("swap of filling slot err = %v", err)
	}
	if m.InFlight() != 1 {
		t.Fatalf("in flight = %d", m.InFlight())
	}
	tr.completeAll()
	m.Poll()
	if !m.IsReady(StreamVideo, SlotNext) || m.InFlight() != 0 {
		t.Fatal("completed transfer not promoted by Poll")
	}
	if err := m.Swap(StreamVideo); err != nil {
		t.Fatalf("Swap: %v", err)
	}
}

func TestBufferManager_TransferError(t *testing.T) {
	idx, src, _ := bufferFixture(t)
	tr := newManualTransport(src)
	e, _ := idx.Entry(0)
	tr.fail[int64(e.Offset)] = io.ErrUnexpectedEOF
	m := newTestBuffers(idx, tr)

	if err := m.Prefetch(StreamVideo, 0, e); err != nil {
		t.Fatal(err)
	}
	if err := m.Swap(StreamVideo); err != nil {
		t.Fatal(err)
	}
	if _, _, err := m.Current(StreamVideo); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("Current err = %v", err)
	}
}

func TestBufferManager_WaitNext(t *testing.T) {
	idx, src, _ := bufferFixture(t)
	tr := newManualTransport(src)
	tr.hold = true
	m := newTestBuffers(idx, tr)
	e, _ := idx.Entry(0)
	if err := m.Prefetch(StreamVideo, 0, e); err != nil {
		t.Fatal(err)
	}
	if err := m.WaitNext(StreamVideo); err != nil {
		t.Fatalf("WaitNext: %v", err)
	}
	if !m.IsReady(StreamVideo, SlotNext) {
		t.Fatal("WaitNext did not complete the slot")
	}
}

func TestBufferManager_PayloadLargerThanSlot(t *testing.T) {
	idx, src, _ := bufferFixture(t)
	m := NewBufferManager(NewDirectTransport(src), 8, 8)
	e, _ := idx.Entry(0)
	if err := m.Prefetch(StreamVideo, 0, e); !errors.Is(err, ErrOutOfMemory) {
		t.Fatalf("err = %v, want ErrOutOfMemory", err)
	}
}

func TestBufferManager_ResetAbandonsInFlightSlot(t *testing.T) {
	idx, src, _ := bufferFixture(t)
	tr := newManualTransport(src)
	tr.hold = true
	m := newTestBuffers(idx, tr)
	e, _ := idx.Entry(1)
	if err := m.Prefetch(StreamVideo, 1, e); err != nil {
		t.Fatal(err)
	}
	stale := tr.pending[0].dst

	m.Reset(StreamVideo)
	if m.Discarded() != 1 || m.InFlight() != 0 {
		t.Fatalf("discarded %d in flight %d", m.Discarded(), m.InFlight())
	}

	e0, _ := idx.Entry(0)
	if err := m.Prefetch(StreamVideo, 0, e0); err != nil {
		t.Fatalf("prefetch after reset: %v", err)
	}
	fresh := tr.pending[1].dst
	if &stale[0] == &fresh[0] {
		t.Fatal("reset slot reuses memory an abandoned transfer still writes")
	}
	tr.completeAll()
	if err := m.Swap(StreamVideo); err != nil {
		t.Fatal(err)
	}
	if unit, _, _ := m.Current(StreamVideo); unit != 0 {
		t.Fatalf("current unit = %d, want 0", unit)
	}
}

func TestBufferManager_Release(t *testing.T) {
	idx, src, _ := bufferFixture(t)
	tr := newManualTransport(src)
	tr.hold = true
	m := newTestBuffers(idx, tr)
	e, _ := idx.Entry(0)
	a, _ := idx.AudioEntry(0)
	_ = m.Prefetch(StreamVideo, 0, e)
	_ = m.Prefetch(StreamAudio, 0, a)

	m.Release()
	if m.Discarded() != 2 || m.InFlight() != 0 {
		t.Fatalf("discarded %d in flight %d", m.Discarded(), m.InFlight())
	}
	tr.completeAll()
	m.Poll()
	if _, ok := m.Pending(StreamVideo); ok {
		t.Fatal("released manager still reports a pending unit")
	}
}

func TestWorkingBufferBytes(t *testing.T) {
	if got := workingBufferBytes(100, 20); got != 240 {
		t.Fatalf("workingBufferBytes = %d, want 240", got)
	}
}

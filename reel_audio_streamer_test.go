package main

import (
	"errors"
	"slices"
	"testing"
)

func TestAudioStreamer_DecodeQueues(t *testing.T) {
	q := &memoryQueue{}
	a := NewAudioStreamer(q, 4)
	payload := encodeTestChunk(testChunk{codec: AUDIO_CODEC_PCM8, samples: []int8{1, 2, 3, 4}})
	if err := a.Decode(0, payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !slices.Equal(q.samples, []int8{1, 2, 3, 4}) {
		t.Fatalf("queued %v", q.samples)
	}
	if a.ChunksQueued() != 1 || a.QueueDepth() != 4 {
		t.Fatalf("chunks %d depth %d", a.ChunksQueued(), a.QueueDepth())
	}
}

func TestAudioStreamer_CorruptChunkIsSilence(t *testing.T) {
	q := &memoryQueue{}
	a := NewAudioStreamer(q, 4)
	payload := encodeTestChunk(testChunk{codec: AUDIO_CODEC_PCM8, samples: []int8{1, 2, 3, 4}, corrupt: true})

	err := a.Decode(3, payload)
	var re *ReelError
	if !errors.As(err, &re) || re.Index != 3 || !errors.Is(err, ErrCorruptChunk) {
		t.Fatalf("err = %v, want ReelError for chunk 3", err)
	}
	if !slices.Equal(q.samples, []int8{0, 0, 0, 0}) {
		t.Fatalf("queued %v, want four silent samples", q.samples)
	}
	if a.CorruptChunks() != 1 || a.ChunksQueued() != 1 {
		t.Fatalf("corrupt %d chunks %d", a.CorruptChunks(), a.ChunksQueued())
	}
}

func TestAudioStreamer_QueueSilenceAndDrops(t *testing.T) {
	ring := NewSampleRing(6)
	a := NewAudioStreamer(ring, 4)
	a.QueueSilence()
	a.QueueSilence()
	if ring.Queued() != 6 {
		t.Fatalf("ring holds %d, want 6", ring.Queued())
	}
	if a.DroppedSamples() != 2 {
		t.Fatalf("dropped %d, want 2", a.DroppedSamples())
	}
}

func TestAudioStreamer_HoldAndFlush(t *testing.T) {
	q := &memoryQueue{}
	a := NewAudioStreamer(q, 2)
	a.QueueSilence()
	a.Hold(true)
	if !q.held {
		t.Fatal("Hold(true) not forwarded")
	}
	a.Flush()
	if q.held || len(q.samples) != 0 || q.clears != 1 {
		t.Fatalf("after Flush held=%v samples=%d clears=%d", q.held, len(q.samples), q.clears)
	}
}

func TestAudioStreamer_NilQueue(t *testing.T) {
	a := NewAudioStreamer(nil, 2)
	a.QueueSilence()
	a.Hold(true)
	a.Flush()
	if a.QueueDepth() != 0 || a.ChunksQueued() != 1 {
		t.Fatalf("depth %d chunks %d", a.QueueDepth(), a.ChunksQueued())
	}
}

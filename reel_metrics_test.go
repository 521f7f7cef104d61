package main

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func counterValue(t *testing.T, c prometheus.Collector) float64 {
	t.Helper()
	return testutil.ToFloat64(c)
}

func TestReelMetrics_NilReceiver(t *testing.T) {
	var m *ReelMetrics
	m.sessionStarted()
	m.sessionEnded("stopped")
	m.frameShown()
	m.frameCorrupt()
	m.chunkQueued(true, 10)
	m.stall(StreamAudio)
	m.lateTick()
	m.decodeTime(0.001)
}

func TestReelMetrics_Registered(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReelMetrics(reg)

	m.sessionStarted()
	m.chunkQueued(false, 64)
	m.chunkQueued(true, 128)
	m.stall(StreamVideo)
	m.stall(StreamVideo)
	m.stall(StreamAudio)

	if got := counterValue(t, m.SessionsStarted); got != 1 {
		t.Fatalf("sessions started = %v, want 1", got)
	}
	if got := counterValue(t, m.ChunksQueued); got != 2 {
		t.Fatalf("chunks queued = %v, want 2", got)
	}
	if got := counterValue(t, m.ChunksCorrupt); got != 1 {
		t.Fatalf("chunks corrupt = %v, want 1", got)
	}
	if got := counterValue(t, m.QueueDepth); got != 128 {
		t.Fatalf("queue depth = %v, want 128", got)
	}
	if got := counterValue(t, m.PrefetchStalls.WithLabelValues("video")); got != 2 {
		t.Fatalf("video stalls = %v, want 2", got)
	}
	if got := counterValue(t, m.PrefetchStalls.WithLabelValues("audio")); got != 1 {
		t.Fatalf("audio stalls = %v, want 1", got)
	}

	n, err := testutil.GatherAndCount(reg, "reelplay_prefetch_stalls_total")
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if n != 2 {
		t.Fatalf("stall series = %d, want 2", n)
	}
}

func TestReelMetrics_Unregistered(t *testing.T) {
	m := NewReelMetrics(nil)
	m.frameShown()
	if got := counterValue(t, m.FramesShown); got != 1 {
		t.Fatalf("frames shown = %v, want 1", got)
	}
}

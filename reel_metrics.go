// reel_metrics.go - Prometheus playback metrics

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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ReelMetrics holds the Prometheus collectors for playback. All methods are
// safe on a nil receiver so the engine can run without metrics.
type ReelMetrics struct {
	SessionsStarted prometheus.Counter
	SessionsEnded   *prometheus.CounterVec
	FramesShown     prometheus.Counter
	FramesCorrupt   prometheus.Counter
	ChunksQueued    prometheus.Counter
	ChunksCorrupt   prometheus.Counter
	PrefetchStalls  *prometheus.CounterVec
	LateTicks       prometheus.Counter
	QueueDepth      prometheus.Gauge
	SamplesDropped  prometheus.Counter
	Underruns       prometheus.Counter
	DecodeTime      prometheus.Histogram
}

// NewReelMetrics creates the collectors and registers them with reg. A nil
// reg leaves them unregistered.
func NewReelMetrics(reg prometheus.Registerer) *ReelMetrics {
	factory := promauto.With(reg)
	return &ReelMetrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "reelplay_sessions_started_total",
			Help: "Total number of playback sessions started",
		}),
		SessionsEnded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reelplay_sessions_ended_total",
				Help: "Total number of playback sessions ended",
			},
			[]string{"outcome"}, // finished, stopped, aborted
		),
		FramesShown: factory.NewCounter(prometheus.CounterOpts{
			Name: "reelplay_frames_shown_total",
			Help: "Total number of frames published to the display",
		}),
		FramesCorrupt: factory.NewCounter(prometheus.CounterOpts{
			Name: "reelplay_frames_corrupt_total",
			Help: "Total number of frame payloads that failed to decode",
		}),
		ChunksQueued: factory.NewCounter(prometheus.CounterOpts{
			Name: "reelplay_audio_chunks_queued_total",
			Help: "Total number of audio chunks pushed to the sample queue",
		}),
		ChunksCorrupt: factory.NewCounter(prometheus.CounterOpts{
			Name: "reelplay_audio_chunks_corrupt_total",
			Help: "Total number of audio chunk payloads that failed to decode",
		}),
		PrefetchStalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reelplay_prefetch_stalls_total",
				Help: "Ticks spent waiting on a late prefetch",
			},
			[]string{"stream"},
		),
		LateTicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "reelplay_late_decode_ticks_total",
			Help: "Ticks that repeated a frame because its decode was unfinished",
		}),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Name: "reelplay_audio_queue_samples",
			Help: "Samples waiting in the audio queue",
		}),
		SamplesDropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "reelplay_audio_dropped_samples_total",
			Help: "Samples the audio queue had no room for",
		}),
		Underruns: factory.NewCounter(prometheus.CounterOpts{
			Name: "reelplay_audio_underruns_total",
			Help: "Audio device reads that found the queue empty during playback",
		}),
		DecodeTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "reelplay_frame_decode_seconds",
			Help:    "Time spent decoding frame tiles per tick",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 10), // 50us to ~25ms
		}),
	}
}

func (m *ReelMetrics) sessionStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

func (m *ReelMetrics) sessionEnded(outcome string) {
	if m == nil {
		return
	}
	m.SessionsEnded.WithLabelValues(outcome).Inc()
}

func (m *ReelMetrics) frameShown() {
	if m == nil {
		return
	}
	m.FramesShown.Inc()
}

func (m *ReelMetrics) frameCorrupt() {
	if m == nil {
		return
	}
	m.FramesCorrupt.Inc()
}

func (m *ReelMetrics) chunkQueued(corrupt bool, depth int) {
	if m == nil {
		return
	}
	m.ChunksQueued.Inc()
	if corrupt {
		m.ChunksCorrupt.Inc()
	}
	m.QueueDepth.Set(float64(depth))
}

func (m *ReelMetrics) samplesDropped(n int) {
	if m == nil {
		return
	}
	m.SamplesDropped.Add(float64(n))
}

func (m *ReelMetrics) underruns(n uint64) {
	if m == nil {
		return
	}
	m.Underruns.Add(float64(n))
}

func (m *ReelMetrics) stall(kind StreamKind) {
	if m == nil {
		return
	}
	m.PrefetchStalls.WithLabelValues(kind.String()).Inc()
}

func (m *ReelMetrics) lateTick() {
	if m == nil {
		return
	}
	m.LateTicks.Inc()
}

func (m *ReelMetrics) decodeTime(seconds float64) {
	if m == nil {
		return
	}
	m.DecodeTime.Observe(seconds)
}

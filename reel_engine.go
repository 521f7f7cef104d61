// reel_engine.go - Tile video playback engine

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
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ReelEngine is the playback state machine. Every method must be called from
// the same goroutine; ProcessFrames exactly once per display tick.
//
//	Uninitialized -> Ready -> Playing <-> Paused
//	Playing -> Finished | Aborted
//	any -> Stop -> Ready
type ReelEngine struct {
	cfg      EngineConfig
	log      *slog.Logger
	sink     TileSink
	queue    SampleQueue
	resolver SourceResolver

	state   EngineState
	session *PlaybackState
	lastErr error

	src     ReelSource
	index   *ReelIndex
	header  ReelHeader
	buffers *BufferManager
	decoder *FrameDecoder
	audio   *AudioStreamer
}

func NewReelEngine(cfg EngineConfig, sink TileSink, queue SampleQueue, resolver SourceResolver) *ReelEngine {
	cfg = cfg.withDefaults()
	return &ReelEngine{
		cfg:      cfg,
		log:      cfg.Logger,
		sink:     sink,
		queue:    queue,
		resolver: resolver,
	}
}

// Init prepares the engine for playback. Calling it again tears down any
// session in progress.
func (e *ReelEngine) Init() {
	if e.session != nil {
		e.Stop()
	}
	e.blankSink()
	e.state = StateReady
	e.lastErr = nil
}

// Play resolves handle and starts playback; see PlaySource.
func (e *ReelEngine) Play(handle string, loop bool) error {
	if e.state == StateUninitialized {
		return ErrNotInitialized
	}
	if e.resolver == nil {
		e.lastErr = fmt.Errorf("%w: %q", ErrNoSuchSource, handle)
		return e.lastErr
	}
	src, err := e.resolver.Resolve(handle)
	if err != nil {
		e.lastErr = err
		return err
	}
	if err := e.PlaySource(src, loop); err != nil {
		closeSource(src)
		return err
	}
	return nil
}

// PlaySource opens src, primes the working buffers and decodes frame 0
// before returning, so the first tick never shows a blank frame. On error
// the engine is left in Ready with no session. On success the engine owns
// src and closes it on Stop when it implements io.Closer.
func (e *ReelEngine) PlaySource(src ReelSource, loop bool) error {
	if e.state == StateUninitialized {
		return ErrNotInitialized
	}
	if src == nil {
		e.lastErr = ErrNoSuchSource
		return ErrNoSuchSource
	}
	if e.session != nil || e.state != StateReady {
		e.Stop()
	}
	e.lastErr = nil

	idx, err := OpenReelIndex(src)
	if err != nil {
		e.lastErr = err
		e.log.Warn("reel open failed", "error", err)
		return err
	}
	h := idx.Header()
	if int(h.TickRate) != e.cfg.TickRate {
		e.lastErr = fmt.Errorf("%w: reel ticks at %d Hz, display runs at %d Hz", ErrMalformedHeader, h.TickRate, e.cfg.TickRate)
		return e.lastErr
	}

	frameBytes := int(h.MaxFrameBytes)
	chunkBytes := 0
	audioBytes := 0
	if h.HasAudio() {
		chunkBytes = int(h.MaxChunkBytes)
		audioBytes = 2 * int(h.SamplesPerChunk)
	}
	need := workingBufferBytes(frameBytes, chunkBytes) + decodedFrameBytes(h) + audioBytes
	if e.cfg.MemoryBudget > 0 && need > e.cfg.MemoryBudget {
		e.lastErr = fmt.Errorf("%w: need %d bytes, budget %d", ErrOutOfMemory, need, e.cfg.MemoryBudget)
		return e.lastErr
	}

	if e.sink != nil {
		if err := e.sink.Configure(int(h.WidthTiles), int(h.HeightTiles)); err != nil {
			e.lastErr = fmt.Errorf("configure display: %w", err)
			return e.lastErr
		}
	}

	e.src = src
	e.index = idx
	e.header = h
	e.buffers = NewBufferManager(e.cfg.Transport(src), frameBytes, chunkBytes)
	e.decoder = NewFrameDecoder(h)
	if h.HasAudio() {
		e.audio = NewAudioStreamer(e.queue, int(h.SamplesPerChunk))
		e.audio.Flush()
		if ra, ok := e.queue.(RateAdapter); ok {
			ra.SetSourceRate(int(h.SampleRate))
		}
	}
	e.session = &PlaybackState{
		Session:       uuid.NewString(),
		Title:         h.Title,
		Loop:          loop,
		Shown:         -1,
		nextFrameTick: uint64(h.TicksPerFrame),
	}
	if uc, ok := e.queue.(UnderrunCounter); ok && e.audio != nil {
		e.session.underrunBase = uc.Underruns()
	}

	if err := e.primeVideo(); err != nil {
		return e.failPlay(err)
	}
	if err := e.primeAudio(); err != nil {
		return e.failPlay(err)
	}

	e.state = StatePlaying
	e.cfg.Metrics.sessionStarted()
	e.log.Info("playback started",
		"session", e.session.Session,
		"title", h.Title,
		"frames", h.FrameCount,
		"ticks_per_frame", h.TicksPerFrame,
		"audio", h.HasAudio(),
		"loop", loop)
	return nil
}

// failPlay drops a half-built session. src goes back to the caller unclosed.
func (e *ReelEngine) failPlay(err error) error {
	e.src = nil
	e.teardown()
	e.lastErr = err
	return err
}

func (e *ReelEngine) primeVideo() error {
	entry, err := e.index.Entry(0)
	if err != nil {
		return err
	}
	if err := e.buffers.Prefetch(StreamVideo, 0, entry); err != nil {
		return err
	}
	if err := e.buffers.WaitNext(StreamVideo); err != nil {
		return &ReelError{Op: "prefetch", Index: 0, Err: fmt.Errorf("%w: %v", ErrTruncated, err)}
	}
	if err := e.buffers.Swap(StreamVideo); err != nil {
		return err
	}
	_, data, _ := e.buffers.Current(StreamVideo)
	if err := e.decoder.Decode(0, data); err != nil {
		return &ReelError{Op: "decode", Index: 0, Err: err}
	}
	e.present()
	e.prefetchAfter(StreamVideo, 0)
	return nil
}

func (e *ReelEngine) primeAudio() error {
	if e.audio == nil {
		return nil
	}
	entry, err := e.index.AudioEntry(0)
	if err != nil {
		return err
	}
	if err := e.buffers.Prefetch(StreamAudio, 0, entry); err != nil {
		return err
	}
	if err := e.buffers.WaitNext(StreamAudio); err != nil {
		return &ReelError{Op: "audio prefetch", Index: 0, Err: fmt.Errorf("%w: %v", ErrTruncated, err)}
	}
	s := e.session
	s.audioNext = 0
	s.audioQueued = 0
	// Chunk 0 is due on the first tick, which queues it from the ready slot.
	return nil
}

// ProcessFrames is the per-tick driver. It never waits on the backing store:
// a late prefetch or an unfinished budgeted decode repeats the current frame
// and freezes the media clock for this tick instead. At most one frame is
// presented per call.
func (e *ReelEngine) ProcessFrames() {
	if e.buffers != nil {
		e.buffers.Poll()
	}
	if e.state != StatePlaying {
		return
	}
	s := e.session
	s.HostTicks++
	e.syncAudioCounters()

	if e.decoder.Pending() || e.decoder.Ready() {
		e.stepDecode()
	} else if s.Ticks >= s.nextFrameTick {
		if !e.advanceVideo() {
			return
		}
	}
	if !e.pumpAudio() {
		return
	}
	s.Stalls = 0
	if e.decoder.Pending() {
		// The due frame is still being assembled; it owns the current
		// media tick until it is presented.
		s.LateTicks++
		e.cfg.Metrics.lateTick()
		return
	}
	s.Ticks++
}

// advanceVideo moves to the next frame. It returns false when the tick made
// no progress: end of stream, a stall, or an abort.
func (e *ReelEngine) advanceVideo() bool {
	s := e.session
	next := s.Frame + 1
	if next >= e.index.FrameCount() {
		if !s.Loop {
			e.finish()
			return false
		}
		next = 0
	}

	if !e.buffers.IsReady(StreamVideo, SlotNext) {
		return e.stall(StreamVideo, next)
	}
	if err := e.buffers.Swap(StreamVideo); err != nil {
		e.abort(err)
		return false
	}
	unit, data, xerr := e.buffers.Current(StreamVideo)

	s.Frame = next
	s.nextFrameTick += uint64(e.header.TicksPerFrame)
	e.prefetchAfter(StreamVideo, next)
	if next == 0 {
		s.Loops++
		e.restartAudioPass()
	}

	var err error
	switch {
	case xerr != nil:
		err = &ReelError{Op: "prefetch", Index: next, Err: fmt.Errorf("%w: %v", ErrCorruptFrame, xerr)}
	case unit != next:
		err = &ReelError{Op: "decode", Index: next, Err: corruptFrame("slot holds frame %d", unit)}
	default:
		if derr := e.decoder.Begin(next, data); derr != nil {
			err = &ReelError{Op: "decode", Index: next, Err: derr}
		}
	}
	if err != nil {
		return e.frameCorrupt(err)
	}

	e.stepDecode()
	return true
}

func (e *ReelEngine) stepDecode() bool {
	start := time.Now()
	done := e.decoder.Step(e.cfg.TileBudget)
	e.cfg.Metrics.decodeTime(time.Since(start).Seconds())
	if done {
		e.present()
	}
	return done
}

// present pushes a completed frame to the display: tiles, then palette.
// Only tiles touched by a delta are rewritten.
func (e *ReelEngine) present() {
	f := e.decoder.Publish()
	if f == nil {
		return
	}
	if e.session != nil {
		e.session.Shown = f.Number
	}
	e.cfg.Metrics.frameShown()
	if e.sink == nil {
		return
	}

	var err error
	if f.Full {
		err = e.sink.WriteTiles(0, f.Tiles)
	} else {
		for _, i := range f.Changed {
			if err = e.sink.WriteTiles(i, f.Tile(i)); err != nil {
				break
			}
		}
	}
	if err == nil {
		err = e.sink.WritePalette(f.Palette[:])
	}
	if err == nil {
		err = e.sink.Present()
	}
	if err != nil {
		e.log.Warn("display write failed", "frame", f.Number, "error", err)
	}
}

func (e *ReelEngine) frameCorrupt(err error) bool {
	s := e.session
	s.CorruptFrames++
	e.cfg.Metrics.frameCorrupt()
	if e.cfg.Strict {
		e.abort(err)
		return false
	}
	e.lastErr = err
	e.log.Warn("frame substituted", "session", s.Session, "frame", s.Frame, "shown", s.Shown, "error", err)
	if e.cfg.SuppressAudioOnCorruptFrame && e.audio != nil {
		s.suppressNext++
	}
	return true
}

// pumpAudio keeps one chunk queued ahead of the play head. The play head is
// derived from the media clock with integer math so it cannot drift from
// the video cadence.
func (e *ReelEngine) pumpAudio() bool {
	if e.audio == nil {
		return true
	}
	s := e.session
	h := e.header

	elapsed := s.Ticks - s.passStart
	due := int(elapsed * uint64(h.SampleRate) / (uint64(h.TickRate) * uint64(h.SamplesPerChunk)))
	for !s.audioDone && s.audioQueued <= due {
		chunk := s.audioNext
		if !e.buffers.IsReady(StreamAudio, SlotNext) {
			return e.stall(StreamAudio, chunk)
		}
		if err := e.buffers.Swap(StreamAudio); err != nil {
			e.abort(err)
			return false
		}
		unit, data, xerr := e.buffers.Current(StreamAudio)
		e.prefetchAfter(StreamAudio, unit)
		s.audioNext++
		s.audioQueued++
		if s.audioNext >= e.index.AudioChunkCount() {
			s.audioDone = true
		}

		if s.suppressNext > 0 {
			s.suppressNext--
			e.audio.QueueSilence()
			e.cfg.Metrics.chunkQueued(false, e.audio.QueueDepth())
			continue
		}

		var err error
		switch {
		case xerr != nil:
			e.audio.QueueSilence()
			err = &ReelError{Op: "audio prefetch", Index: unit, Err: fmt.Errorf("%w: %v", ErrCorruptChunk, xerr)}
		case unit != chunk:
			e.audio.QueueSilence()
			err = &ReelError{Op: "audio decode", Index: chunk, Err: corruptChunk("slot holds chunk %d", unit)}
		default:
			err = e.audio.Decode(unit, data)
		}
		e.cfg.Metrics.chunkQueued(err != nil, e.audio.QueueDepth())
		if err != nil {
			s.CorruptChunks++
			if e.cfg.Strict {
				e.abort(err)
				return false
			}
			e.lastErr = err
			e.log.Warn("audio chunk replaced with silence", "session", s.Session, "chunk", unit, "error", err)
		}
	}
	return true
}

// syncAudioCounters folds the queue's refused samples and underruns since the
// last tick into the session.
func (e *ReelEngine) syncAudioCounters() {
	if e.audio == nil {
		return
	}
	s := e.session
	if d := e.audio.DroppedSamples() - s.DroppedSamples; d > 0 {
		s.DroppedSamples += d
		e.cfg.Metrics.samplesDropped(d)
	}
	if uc, ok := e.queue.(UnderrunCounter); ok {
		if u := uc.Underruns(); u > s.underrunBase {
			s.Underruns += u - s.underrunBase
			e.cfg.Metrics.underruns(u - s.underrunBase)
			s.underrunBase = u
		}
	}
}

// restartAudioPass rewinds the audio cadence when video wraps to frame 0.
func (e *ReelEngine) restartAudioPass() {
	if e.audio == nil {
		return
	}
	s := e.session
	s.passStart = s.Ticks
	s.audioNext = 0
	s.audioQueued = 0
	s.audioDone = false
	if unit, ok := e.buffers.Pending(StreamAudio); ok && unit == 0 {
		return
	}
	// Audio ran longer than the video; drop the rest of the previous pass.
	e.buffers.Reset(StreamAudio)
	e.prefetchUnit(StreamAudio, 0)
}

// following is the unit to prefetch after unit, honouring loop.
func (e *ReelEngine) following(kind StreamKind, unit int) (int, bool) {
	count := e.index.FrameCount()
	if kind == StreamAudio {
		count = e.index.AudioChunkCount()
	}
	if unit+1 < count {
		return unit + 1, true
	}
	if e.session.Loop {
		return 0, true
	}
	return -1, false
}

func (e *ReelEngine) prefetchAfter(kind StreamKind, unit int) {
	if next, ok := e.following(kind, unit); ok {
		e.prefetchUnit(kind, next)
	}
}

func (e *ReelEngine) prefetchUnit(kind StreamKind, unit int) {
	var entry ReelIndexEntry
	var err error
	if kind == StreamAudio {
		entry, err = e.index.AudioEntry(unit)
	} else {
		entry, err = e.index.Entry(unit)
	}
	if err == nil {
		err = e.buffers.Prefetch(kind, unit, entry)
	}
	if err != nil {
		e.log.Error("prefetch not issued", "stream", kind.String(), "unit", unit, "error", err)
	}
}

func (e *ReelEngine) stall(kind StreamKind, unit int) bool {
	s := e.session
	s.Stalls++
	s.TotalStalls++
	e.cfg.Metrics.stall(kind)
	if s.Stalls > e.cfg.MaxStallTicks {
		e.abort(&ReelError{Op: kind.String() + " prefetch", Index: unit, Err: ErrPrefetchStall})
		return false
	}
	e.log.Debug("prefetch late", "session", s.Session, "stream", kind.String(), "unit", unit, "stalls", s.Stalls)
	return false
}

func (e *ReelEngine) finish() {
	e.state = StateFinished
	e.decoder.Abort()
	e.buffers.Release()
	e.cfg.Metrics.sessionEnded("finished")
	e.log.Info("playback finished", "session", e.session.Session, "ticks", e.session.Ticks)
}

func (e *ReelEngine) abort(err error) {
	e.state = StateAborted
	e.lastErr = err
	e.decoder.Abort()
	e.buffers.Release()
	if e.audio != nil {
		e.audio.Flush()
	}
	e.cfg.Metrics.sessionEnded("aborted")
	e.log.Error("playback aborted", "session", e.session.Session, "frame", e.session.Frame, "error", err)
}

// TogglePause flips between Playing and Paused. Other states ignore it.
func (e *ReelEngine) TogglePause() {
	switch e.state {
	case StatePlaying:
		e.Pause()
	case StatePaused:
		e.Resume()
	}
}

func (e *ReelEngine) Pause() {
	if e.state != StatePlaying {
		return
	}
	e.state = StatePaused
	e.session.Paused = true
	if e.audio != nil {
		e.audio.Hold(true)
	}
}

func (e *ReelEngine) Resume() {
	if e.state != StatePaused {
		return
	}
	e.state = StatePlaying
	e.session.Paused = false
	if e.audio != nil {
		e.audio.Hold(false)
	}
}

// Stop ends the session from any state and returns to Ready. In-flight
// transfers are abandoned with their buffers.
func (e *ReelEngine) Stop() {
	switch e.state {
	case StateUninitialized:
		return
	case StatePlaying, StatePaused:
		e.cfg.Metrics.sessionEnded("stopped")
	}
	if e.session != nil {
		e.log.Info("playback stopped", "session", e.session.Session, "state", e.state.String())
	}
	e.state = StateStopped
	e.teardown()
	e.state = StateReady
}

func (e *ReelEngine) teardown() {
	if e.decoder != nil {
		e.decoder.Abort()
	}
	if e.buffers != nil {
		e.buffers.Release()
	}
	if e.audio != nil {
		e.audio.Flush()
	}
	closeSource(e.src)
	e.src = nil
	e.index = nil
	e.header = ReelHeader{}
	e.buffers = nil
	e.decoder = nil
	e.audio = nil
	e.session = nil
	e.blankSink()
}

func (e *ReelEngine) blankSink() {
	if e.sink == nil {
		return
	}
	if err := e.sink.Blank(); err != nil {
		e.log.Warn("display blank failed", "error", err)
	}
}

func closeSource(src ReelSource) {
	if c, ok := src.(io.Closer); ok {
		c.Close()
	}
}

func (e *ReelEngine) IsPlaying() bool {
	return e.state == StatePlaying || e.state == StatePaused
}

func (e *ReelEngine) State() EngineState {
	return e.state
}

func (e *ReelEngine) LastError() error {
	return e.lastErr
}

// SetLoop changes the loop flag of the running session. Turning it on at the
// last frame issues the wrap-around prefetch that was skipped.
func (e *ReelEngine) SetLoop(loop bool) {
	if !e.IsPlaying() || e.session.Loop == loop {
		return
	}
	e.session.Loop = loop
	if !loop {
		return
	}
	s := e.session
	if s.Frame == e.index.FrameCount()-1 {
		if _, ok := e.buffers.Pending(StreamVideo); !ok {
			e.prefetchUnit(StreamVideo, 0)
		}
	}
	if e.audio != nil && s.audioDone {
		if _, ok := e.buffers.Pending(StreamAudio); !ok {
			e.prefetchUnit(StreamAudio, 0)
		}
	}
}

// Restart replays the current source from frame 0.
func (e *ReelEngine) Restart() error {
	if e.src == nil {
		return ErrNotInitialized
	}
	src, loop := e.src, e.session.Loop
	e.src = nil // keep it open across the teardown
	e.Stop()
	if err := e.PlaySource(src, loop); err != nil {
		closeSource(src)
		return err
	}
	return nil
}

func (e *ReelEngine) Status() EngineStatus {
	st := EngineStatus{State: e.state, Frame: -1, Shown: -1, LastError: e.lastErr}
	if e.index != nil {
		st.FrameCount = e.index.FrameCount()
	}
	if e.audio != nil {
		st.QueueDepth = e.audio.QueueDepth()
	}
	if s := e.session; s != nil {
		st.Session = s.Session
		st.Title = s.Title
		st.Frame = s.Frame
		st.Shown = s.Shown
		st.Loop = s.Loop
		st.Ticks = s.Ticks
		st.HostTicks = s.HostTicks
		st.Stalls = s.Stalls
		st.TotalStalls = s.TotalStalls
		st.CorruptFrames = s.CorruptFrames
		st.CorruptChunks = s.CorruptChunks
		st.Loops = s.Loops
		st.DroppedSamples = s.DroppedSamples
		st.Underruns = s.Underruns
	}
	return st
}

// reel_audio_streamer.go - Audio chunk decode into the sample queue

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

// AudioStreamer turns chunk payloads into samples on the output queue.
// A chunk that fails to decode is replaced by silence of the same length so
// the queue keeps its timing.
type AudioStreamer struct {
	queue      SampleQueue
	maxSamples int
	scratch    []int8
	silence    []int8

	chunks  int
	corrupt int
	dropped int // samples the queue could not take
}

func NewAudioStreamer(queue SampleQueue, samplesPerChunk int) *AudioStreamer {
	return &AudioStreamer{
		queue:      queue,
		maxSamples: samplesPerChunk,
		scratch:    make([]int8, samplesPerChunk),
		silence:    make([]int8, samplesPerChunk),
	}
}

func (a *AudioStreamer) Decode(chunk int, payload []byte) error {
	n, err := decodeAudioChunk(a.scratch, payload, a.maxSamples)
	if err != nil {
		a.corrupt++
		a.push(a.silence)
		return &ReelError{Op: "audio decode", Index: chunk, Err: err}
	}
	a.push(a.scratch[:n])
	return nil
}

// QueueSilence stands in for one chunk without decoding anything.
func (a *AudioStreamer) QueueSilence() {
	a.push(a.silence)
}

func (a *AudioStreamer) push(samples []int8) {
	a.chunks++
	if a.queue == nil {
		return
	}
	if n := a.queue.PushSamples(samples); n < len(samples) {
		a.dropped += len(samples) - n
	}
}

func (a *AudioStreamer) QueueDepth() int {
	if a.queue == nil {
		return 0
	}
	return a.queue.Queued()
}

func (a *AudioStreamer) Hold(hold bool) {
	if a.queue != nil {
		a.queue.SetHold(hold)
	}
}

// Flush discards queued samples and releases any hold.
func (a *AudioStreamer) Flush() {
	if a.queue != nil {
		a.queue.Clear()
		a.queue.SetHold(false)
	}
}

func (a *AudioStreamer) ChunksQueued() int  { return a.chunks }
func (a *AudioStreamer) CorruptChunks() int { return a.corrupt }
func (a *AudioStreamer) DroppedSamples() int {
	return a.dropped
}

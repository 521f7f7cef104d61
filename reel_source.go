// reel_source.go - Backing store sources and transports

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
	"bytes"
	"fmt"
	"io"
	"os"
	"sync/atomic"
)

// ReelSource is the backing store: random access to the raw container bytes.
// It may be ROM, a file, or a staging buffer filled by a transport.
type ReelSource interface {
	io.ReaderAt
	Size() int64
}

// NewMemorySource wraps a container that is already in addressable memory.
func NewMemorySource(data []byte) ReelSource {
	return bytes.NewReader(data)
}

type fileSource struct {
	*os.File
	size int64
}

func (f *fileSource) Size() int64 {
	return f.size
}

// OpenFileSource opens a container file. The caller owns the Close.
func OpenFileSource(path string) (ReelSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s is a directory", path)
	}
	return &fileSource{File: f, size: info.Size()}, nil
}

// Transfer is one in-flight copy from the backing store into a working slot.
// Done is polled from the control goroutine and never blocks.
type Transfer interface {
	Done() bool
	Err() error
	// Wait blocks until the copy has finished. Only used outside the tick path.
	Wait() error
}

// Transport moves bytes from a ReelSource into working memory.
type Transport interface {
	Begin(dst []byte, off int64) Transfer
}

// TransportFactory builds the transport used for one playback session.
type TransportFactory func(src ReelSource) Transport

func readFull(src ReelSource, dst []byte, off int64) error {
	n, err := src.ReadAt(dst, off)
	if n == len(dst) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// completedTransfer is returned by transports that copy inside Begin.
type completedTransfer struct {
	err error
}

func (t completedTransfer) Done() bool  { return true }
func (t completedTransfer) Err() error  { return t.err }
func (t completedTransfer) Wait() error { return t.err }

type directTransport struct {
	src ReelSource
}

// NewDirectTransport copies synchronously inside Begin. Suitable for
// memory-mapped sources where a read costs no more than a copy.
func NewDirectTransport(src ReelSource) Transport {
	return &directTransport{src: src}
}

func (d *directTransport) Begin(dst []byte, off int64) Transfer {
	return completedTransfer{err: readFull(d.src, dst, off)}
}

type backgroundTransfer struct {
	done atomic.Bool
	err  error
	ch   chan struct{}
}

func (t *backgroundTransfer) Done() bool {
	return t.done.Load()
}

func (t *backgroundTransfer) Err() error {
	if !t.done.Load() {
		return nil
	}
	return t.err
}

func (t *backgroundTransfer) Wait() error {
	<-t.ch
	return t.err
}

type backgroundTransport struct {
	src ReelSource
}

// NewBackgroundTransport runs every read on its own goroutine, standing in
// for a DMA or network bridge transfer. It is the only concurrent activity
// the engine allows, and the destination slot belongs to the transfer until
// Done reports true.
func NewBackgroundTransport(src ReelSource) Transport {
	return &backgroundTransport{src: src}
}

func (b *backgroundTransport) Begin(dst []byte, off int64) Transfer {
	t := &backgroundTransfer{ch: make(chan struct{})}
	go func() {
		t.err = readFull(b.src, dst, off)
		t.done.Store(true)
		close(t.ch)
	}()
	return t
}

// LatencyFunc returns how many polls a transfer at off needs before it
// completes.
type LatencyFunc func(off int64) int

type polledTransfer struct {
	inner     Transfer
	remaining int
}

func (t *polledTransfer) Done() bool {
	if t.remaining > 0 {
		t.remaining--
		return false
	}
	return t.inner.Done()
}

func (t *polledTransfer) Err() error {
	if t.remaining > 0 {
		return nil
	}
	return t.inner.Err()
}

func (t *polledTransfer) Wait() error {
	t.remaining = 0
	return t.inner.Wait()
}

type latencyTransport struct {
	inner   Transport
	latency LatencyFunc
}

// NewLatencyTransport delays completion of each inner transfer by a number of
// polls, modelling a slow or bursty link without wall-clock sleeps.
func NewLatencyTransport(inner Transport, latency LatencyFunc) Transport {
	return &latencyTransport{inner: inner, latency: latency}
}

func (l *latencyTransport) Begin(dst []byte, off int64) Transfer {
	polls := 0
	if l.latency != nil {
		polls = l.latency(off)
	}
	return &polledTransfer{inner: l.inner.Begin(dst, off), remaining: polls}
}

// FixedLatency delays every transfer by the same number of polls.
func FixedLatency(polls int) LatencyFunc {
	return func(int64) int { return polls }
}

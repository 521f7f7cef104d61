package main

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"slices"
)

// testFrame describes one frame payload for reelBuilder.
type testFrame struct {
	key     bool
	palette *[PALETTE_SIZE]uint16
	tiles   []byte       // key: every tile, TILE_BYTES each
	delta   map[int]byte // delta: tile index -> fill byte
	rle     bool
	corrupt bool   // break the CRC
	raw     []byte // used verbatim when set
}

type testChunk struct {
	codec   byte
	samples []int8
	corrupt bool
	raw     []byte
}

type reelBuilder struct {
	widthTiles  int
	heightTiles int
	ticks       int
	tickRate    int
	sampleRate  int
	spc         int
	title       string
	version     int
	frames      []testFrame
	chunks      []testChunk
	thumb       *testThumb
}

// testThumb is a thumbnail block filled with one mark byte.
type testThumb struct {
	widthTiles  int
	heightTiles int
	mark        byte
	corrupt     bool
}

func newReelBuilder(widthTiles, heightTiles, ticksPerFrame int) *reelBuilder {
	return &reelBuilder{
		widthTiles:  widthTiles,
		heightTiles: heightTiles,
		ticks:       ticksPerFrame,
		tickRate:    60,
		title:       "test",
		version:     REEL_VERSION,
	}
}

func (b *reelBuilder) tileCount() int {
	return b.widthTiles * b.heightTiles
}

// testPalette derives a palette unique to mark.
func testPalette(mark byte) *[PALETTE_SIZE]uint16 {
	var p [PALETTE_SIZE]uint16
	for i := range p {
		p[i] = (uint16(mark)<<4 + uint16(i)) & 0x0FFF
	}
	return &p
}

// keyFrame appends a keyframe whose every tile byte is mark.
func (b *reelBuilder) keyFrame(mark byte) *reelBuilder {
	return b.add(testFrame{
		key:     true,
		palette: testPalette(mark),
		tiles:   bytes.Repeat([]byte{mark}, b.tileCount()*TILE_BYTES),
	})
}

// keyFrames appends n keyframes marked 1..n.
func (b *reelBuilder) keyFrames(n int) *reelBuilder {
	for i := range n {
		b.keyFrame(byte(i + 1))
	}
	return b
}

func (b *reelBuilder) deltaFrame(tiles map[int]byte) *reelBuilder {
	return b.add(testFrame{delta: tiles})
}

func (b *reelBuilder) add(f testFrame) *reelBuilder {
	b.frames = append(b.frames, f)
	return b
}

// withAudio sets the audio description; chunks are added with chunk().
func (b *reelBuilder) withAudio(sampleRate, samplesPerChunk int) *reelBuilder {
	b.sampleRate = sampleRate
	b.spc = samplesPerChunk
	return b
}

// pcmChunks appends n full PCM8 chunks; chunk i holds the value i+1.
func (b *reelBuilder) pcmChunks(n int) *reelBuilder {
	for i := range n {
		samples := make([]int8, b.spc)
		for j := range samples {
			samples[j] = int8(i + 1)
		}
		b.chunk(testChunk{codec: AUDIO_CODEC_PCM8, samples: samples})
	}
	return b
}

func (b *reelBuilder) chunk(c testChunk) *reelBuilder {
	b.chunks = append(b.chunks, c)
	return b
}

func (b *reelBuilder) withThumbnail(widthTiles, heightTiles int, mark byte) *reelBuilder {
	b.thumb = &testThumb{widthTiles: widthTiles, heightTiles: heightTiles, mark: mark}
	return b
}

func encodeTestThumb(t *testThumb) []byte {
	p := binary.LittleEndian.AppendUint16(nil, uint16(t.widthTiles))
	p = binary.LittleEndian.AppendUint16(p, uint16(t.heightTiles))
	for _, c := range testPalette(t.mark) {
		p = binary.LittleEndian.AppendUint16(p, c)
	}
	p = append(p, bytes.Repeat([]byte{t.mark}, t.widthTiles*t.heightTiles*TILE_BYTES)...)
	return sealPayload(p, t.corrupt)
}

func (b *reelBuilder) hasAudio() bool {
	return b.spc > 0
}

func (b *reelBuilder) build() []byte {
	framePayloads := make([][]byte, len(b.frames))
	maxFrame := FRAME_PREFIX_SIZE + PAYLOAD_CRC_SIZE
	for i, f := range b.frames {
		framePayloads[i] = encodeTestFrame(f)
		maxFrame = max(maxFrame, len(framePayloads[i]))
	}
	chunkPayloads := make([][]byte, len(b.chunks))
	maxChunk := 0
	if b.hasAudio() {
		maxChunk = AUDIO_PREFIX_SIZE + PAYLOAD_CRC_SIZE
	}
	for i, c := range b.chunks {
		chunkPayloads[i] = encodeTestChunk(c)
		maxChunk = max(maxChunk, len(chunkPayloads[i]))
	}

	var thumbBlock []byte
	if b.thumb != nil {
		thumbBlock = encodeTestThumb(b.thumb)
	}
	frameIndex := REEL_HEADER_SIZE + len(thumbBlock)
	audioIndex := frameIndex + len(b.frames)*REEL_ENTRY_SIZE
	data := audioIndex + len(b.chunks)*REEL_ENTRY_SIZE

	out := make([]byte, data)
	le := binary.LittleEndian
	copy(out, REEL_MAGIC)
	le.PutUint16(out[4:], uint16(b.version))
	flags := uint16(0)
	if b.hasAudio() {
		flags |= REEL_FLAG_AUDIO
	}
	if b.thumb != nil {
		flags |= REEL_FLAG_THUMBNAIL
	}
	le.PutUint16(out[6:], flags)
	le.PutUint16(out[8:], uint16(b.widthTiles))
	le.PutUint16(out[10:], uint16(b.heightTiles))
	le.PutUint16(out[12:], uint16(b.ticks))
	le.PutUint16(out[14:], uint16(b.tickRate))
	le.PutUint32(out[16:], uint32(len(b.frames)))
	le.PutUint32(out[20:], uint32(b.sampleRate))
	le.PutUint32(out[24:], uint32(b.spc))
	le.PutUint32(out[28:], uint32(len(b.chunks)))
	le.PutUint32(out[32:], uint32(frameIndex))
	le.PutUint32(out[36:], uint32(audioIndex))
	le.PutUint32(out[40:], uint32(maxFrame))
	le.PutUint32(out[44:], uint32(maxChunk))
	copy(out[48:48+REEL_TITLE_SIZE], b.title)
	copy(out[REEL_HEADER_SIZE:], thumbBlock)

	for i, p := range framePayloads {
		entry := out[frameIndex+i*REEL_ENTRY_SIZE:]
		le.PutUint32(entry[0:], uint32(len(out)))
		le.PutUint32(entry[4:], uint32(len(p)))
		if b.frames[i].key {
			le.PutUint16(entry[8:], REEL_ENTRY_KEY)
		}
		out = append(out, p...)
	}
	for i, p := range chunkPayloads {
		entry := out[audioIndex+i*REEL_ENTRY_SIZE:]
		le.PutUint32(entry[0:], uint32(len(out)))
		le.PutUint32(entry[4:], uint32(len(p)))
		out = append(out, p...)
	}
	return out
}

func encodeTestFrame(f testFrame) []byte {
	if f.raw != nil {
		return f.raw
	}
	var body []byte
	tiles := 0
	kind := byte(FRAME_TYPE_DELTA)
	if f.key {
		kind = FRAME_TYPE_KEY
		body = f.tiles
		tiles = len(f.tiles) / TILE_BYTES
	} else {
		idx := make([]int, 0, len(f.delta))
		for i := range f.delta {
			idx = append(idx, i)
		}
		slices.Sort(idx)
		for _, i := range idx {
			rec := make([]byte, DELTA_RECORD_SIZE)
			binary.LittleEndian.PutUint16(rec, uint16(i))
			for j := 2; j < len(rec); j++ {
				rec[j] = f.delta[i]
			}
			body = append(body, rec...)
		}
		tiles = len(idx)
	}

	flags := byte(0)
	if f.palette != nil {
		flags |= FRAME_FLAG_PALETTE
	}
	if f.rle {
		flags |= FRAME_FLAG_RLE
		body = rleCompress(body)
	}
	p := []byte{kind, flags, 0, 0}
	binary.LittleEndian.PutUint16(p[2:], uint16(tiles))
	if f.palette != nil {
		for _, c := range f.palette {
			p = binary.LittleEndian.AppendUint16(p, c)
		}
	}
	p = append(p, body...)
	return sealPayload(p, f.corrupt)
}

func encodeTestChunk(c testChunk) []byte {
	if c.raw != nil {
		return c.raw
	}
	raw := make([]byte, len(c.samples))
	for i, s := range c.samples {
		raw[i] = byte(s)
	}
	var body []byte
	switch c.codec {
	case AUDIO_CODEC_RLE8:
		body = rleCompress(raw)
	default:
		body = raw
	}
	p := []byte{c.codec, 0, 0, 0}
	binary.LittleEndian.PutUint16(p[2:], uint16(len(c.samples)))
	p = append(p, body...)
	return sealPayload(p, c.corrupt)
}

// dpcmChunk builds a DPCM4 chunk payload from raw nibbles.
func dpcmChunk(count int, nibbles []byte) []byte {
	p := []byte{AUDIO_CODEC_DPCM4, 0, 0, 0}
	binary.LittleEndian.PutUint16(p[2:], uint16(count))
	for i := 0; i < len(nibbles); i += 2 {
		b := nibbles[i] << 4
		if i+1 < len(nibbles) {
			b |= nibbles[i+1] & 0x0F
		}
		p = append(p, b)
	}
	return sealPayload(p, false)
}

func sealPayload(p []byte, corrupt bool) []byte {
	sum := crc32.ChecksumIEEE(p)
	if corrupt {
		sum ^= 0xFFFFFFFF
	}
	return binary.LittleEndian.AppendUint32(p, sum)
}

// rleCompress emits repeat commands for runs of three or more and literal
// commands otherwise.
func rleCompress(src []byte) []byte {
	var out []byte
	var lit []byte
	flush := func() {
		for len(lit) > 0 {
			n := min(len(lit), RLE_SIZE_MASK)
			out = append(out, byte(n))
			out = append(out, lit[:n]...)
			lit = lit[n:]
		}
	}
	for i := 0; i < len(src); {
		run := 1
		for i+run < len(src) && src[i+run] == src[i] && run < RLE_SIZE_MASK {
			run++
		}
		if run >= 3 {
			flush()
			out = append(out, RLE_REPEAT|byte(run), src[i])
		} else {
			lit = append(lit, src[i:i+run]...)
		}
		i += run
	}
	flush()
	return out
}

// recordingSink is a TileSink that remembers tile memory and every call.
type recordingSink struct {
	widthTiles  int
	heightTiles int
	tiles       []byte
	palette     [PALETTE_SIZE]uint16
	presents    int
	blanks      int
	tileWrites  int
	shown       []byte // tile 0's first byte at each Present
}

func (s *recordingSink) Configure(w, h int) error {
	s.widthTiles, s.heightTiles = w, h
	s.tiles = make([]byte, w*h*TILE_BYTES)
	return nil
}

func (s *recordingSink) WriteTiles(first int, data []byte) error {
	copy(s.tiles[first*TILE_BYTES:], data)
	s.tileWrites += len(data) / TILE_BYTES
	return nil
}

func (s *recordingSink) WritePalette(colors []uint16) error {
	copy(s.palette[:], colors)
	return nil
}

func (s *recordingSink) Present() error {
	s.presents++
	s.shown = append(s.shown, s.mark())
	return nil
}

func (s *recordingSink) Blank() error {
	s.blanks++
	clear(s.tiles)
	s.palette = [PALETTE_SIZE]uint16{}
	return nil
}

// mark is the fill byte of the frame on screen, 0 when blank.
func (s *recordingSink) mark() byte {
	if len(s.tiles) == 0 {
		return 0
	}
	return s.tiles[0]
}

// manualTransport completes transfers only when told to.
type manualTransport struct {
	src     ReelSource
	hold    bool
	pending []*manualTransfer
	fail    map[int64]error
	begun   int
}

type manualTransfer struct {
	src  ReelSource
	dst  []byte
	off  int64
	done bool
	err  error
	fail error
}

func newManualTransport(src ReelSource) *manualTransport {
	return &manualTransport{src: src, fail: make(map[int64]error)}
}

func (m *manualTransport) Begin(dst []byte, off int64) Transfer {
	m.begun++
	t := &manualTransfer{src: m.src, dst: dst, off: off, fail: m.fail[off]}
	if m.hold {
		m.pending = append(m.pending, t)
	} else {
		t.complete()
	}
	return t
}

func (m *manualTransport) completeAll() {
	for _, t := range m.pending {
		t.complete()
	}
	m.pending = nil
}

func (t *manualTransfer) complete() {
	if t.done {
		return
	}
	t.done = true
	if t.fail != nil {
		t.err = t.fail
		return
	}
	t.err = readFull(t.src, t.dst, t.off)
}

func (t *manualTransfer) Done() bool { return t.done }
func (t *manualTransfer) Err() error  { return t.err }
func (t *manualTransfer) Wait() error {
	t.complete()
	return t.err
}

// memoryQueue collects every sample pushed, with no capacity limit.
type memoryQueue struct {
	samples []int8
	held    bool
	clears  int
	rate    int
}

func (q *memoryQueue) PushSamples(s []int8) int {
	q.samples = append(q.samples, s...)
	return len(s)
}
func (q *memoryQueue) Queued() int          { return len(q.samples) }
func (q *memoryQueue) SetHold(hold bool)    { q.held = hold }
func (q *memoryQueue) SetSourceRate(hz int) { q.rate = hz }
func (q *memoryQueue) Clear() {
	q.samples = nil
	q.clears++
}

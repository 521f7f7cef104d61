// reel_audio_codec.go - Audio chunk codecs (PCM8, RLE8, DPCM4)

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
	"encoding/binary"
	"hash/crc32"
	"unsafe"
)

// dpcmSteps is the 4-bit DPCM step table. Index 8 is zero; steps grow
// roughly as Fibonacci numbers in both directions.
var dpcmSteps = [16]int{-34, -21, -13, -8, -5, -3, -2, -1, 0, 1, 2, 3, 5, 8, 13, 21}

// decodeAudioChunk validates a chunk payload and expands it into dst, which
// must hold at least maxSamples. Returns the number of samples produced.
func decodeAudioChunk(dst []int8, payload []byte, maxSamples int) (int, error) {
	n := len(payload)
	if n < AUDIO_PREFIX_SIZE+PAYLOAD_CRC_SIZE {
		return 0, corruptChunk("%d byte payload", n)
	}
	want := binary.LittleEndian.Uint32(payload[n-PAYLOAD_CRC_SIZE:])
	if got := crc32.ChecksumIEEE(payload[:n-PAYLOAD_CRC_SIZE]); got != want {
		return 0, corruptChunk("crc 0x%08X, want 0x%08X", got, want)
	}

	codec := payload[0]
	if payload[1] != 0 {
		return 0, corruptChunk("reserved byte 0x%02X", payload[1])
	}
	count := int(binary.LittleEndian.Uint16(payload[2:]))
	if count > maxSamples || count > len(dst) {
		return 0, corruptChunk("%d samples, chunk limit %d", count, maxSamples)
	}
	body := payload[AUDIO_PREFIX_SIZE : n-PAYLOAD_CRC_SIZE]
	out := dst[:count]

	switch codec {
	case AUDIO_CODEC_PCM8:
		if len(body) != count {
			return 0, corruptChunk("pcm body is %d bytes, want %d", len(body), count)
		}
		for i, b := range body {
			out[i] = int8(b)
		}
	case AUDIO_CODEC_RLE8:
		raw := int8AsBytes(out)
		if err := rleExpand(raw, body); err != nil {
			return 0, corruptChunk("rle body: %v", err)
		}
	case AUDIO_CODEC_DPCM4:
		if len(body) != (count+1)/2 {
			return 0, corruptChunk("dpcm body is %d bytes, want %d", len(body), (count+1)/2)
		}
		decodeDPCM4(out, body)
	default:
		return 0, corruptChunk("unknown codec %d", codec)
	}
	return count, nil
}

// decodeDPCM4 expands two 4-bit deltas per byte, high nibble first. The
// predictor starts at zero for every chunk and saturates at the int8 range.
func decodeDPCM4(dst []int8, body []byte) {
	acc := 0
	for i := range dst {
		b := body[i/2]
		nib := b >> 4
		if i&1 == 1 {
			nib = b & 0x0F
		}
		acc += dpcmSteps[nib]
		acc = max(-128, min(127, acc))
		dst[i] = int8(acc)
	}
}

// int8AsBytes reinterprets signed samples as raw bytes without copying.
func int8AsBytes(s []int8) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s))
}

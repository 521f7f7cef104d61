// reel_rle.go - Run-length expansion

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

import "errors"

// Run-length scheme shared by tile bodies and RLE8 audio. Each command
// starts with a control byte: bit 7 set means the following single byte is
// repeated (control & 0x7F) times, clear means (control & 0x7F) literal bytes
// follow.
const (
	RLE_REPEAT    = 0x80
	RLE_SIZE_MASK = 0x7F
)

var (
	errRLEOverrun   = errors.New("rle output overrun")
	errRLETruncated = errors.New("rle input truncated")
	errRLEShort     = errors.New("rle output short")
)

// rleExpand decodes src into dst and requires the output to fill dst exactly.
func rleExpand(dst, src []byte) error {
	out := 0
	for i := 0; i < len(src); {
		control := src[i]
		i++
		size := int(control & RLE_SIZE_MASK)
		if out+size > len(dst) {
			return errRLEOverrun
		}
		if control&RLE_REPEAT != 0 {
			if i >= len(src) {
				return errRLETruncated
			}
			b := src[i]
			i++
			for j := range size {
				dst[out+j] = b
			}
		} else {
			if i+size > len(src) {
				return errRLETruncated
			}
			copy(dst[out:], src[i:i+size])
			i += size
		}
		out += size
	}
	if out != len(dst) {
		return errRLEShort
	}
	return nil
}

package main

import (
	"bytes"
	"testing"
)

func TestRLEExpand(t *testing.T) {
	tests := []struct {
		name string
		src  []byte
		want []byte
	}{
		{"repeat", []byte{RLE_REPEAT | 4, 0xAA}, []byte{0xAA, 0xAA, 0xAA, 0xAA}},
		{"literal", []byte{3, 1, 2, 3}, []byte{1, 2, 3}},
		{"mixed", []byte{2, 9, 8, RLE_REPEAT | 3, 0}, []byte{9, 8, 0, 0, 0}},
		{"zero length command", []byte{0, RLE_REPEAT | 2, 7}, []byte{7, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := make([]byte, len(tt.want))
			if err := rleExpand(dst, tt.src); err != nil {
				t.Fatalf("rleExpand: %v", err)
			}
			if !bytes.Equal(dst, tt.want) {
				t.Fatalf("got % X, want % X", dst, tt.want)
			}
		})
	}
}

func TestRLEExpand_Errors(t *testing.T) {
	tests := []struct {
		name string
		size int
		src  []byte
		want error
	}{
		{"overrun", 2, []byte{RLE_REPEAT | 3, 1}, errRLEOverrun},
		{"literal overrun", 1, []byte{2, 1, 2}, errRLEOverrun},
		{"missing repeat byte", 4, []byte{RLE_REPEAT | 4}, errRLETruncated},
		{"missing literals", 4, []byte{4, 1, 2}, errRLETruncated},
		{"short", 4, []byte{RLE_REPEAT | 3, 1}, errRLEShort},
		{"empty", 1, nil, errRLEShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := rleExpand(make([]byte, tt.size), tt.src); err != tt.want {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestRLEExpand_RoundTripLongRuns(t *testing.T) {
	src := append(bytes.Repeat([]byte{5}, 300), 1, 2, 3)
	src = append(src, bytes.Repeat([]byte{9, 8}, 100)...)
	dst := make([]byte, len(src))
	if err := rleExpand(dst, rleCompress(src)); err != nil {
		t.Fatalf("rleExpand: %v", err)
	}
	if !bytes.Equal(dst, src) {
		t.Fatal("round trip mismatch")
	}
}

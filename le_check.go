//go:build amd64 || arm64 || 386 || arm || riscv64 || loong64 || mipsle || mips64le || ppc64le || wasm

// le_check.go - Reelplay requires a little-endian architecture.
//
// The oto callback hands the device float32 samples reinterpreted as bytes,
// which the device reads as little-endian. be_unsupported.go fails the build
// everywhere else.

package main

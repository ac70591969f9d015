package rng

import (
	"crypto/rand"
	"encoding/binary"
	"log/slog"
	"time"
)

// RandomSeed returns a fresh non-zero seed from crypto/rand. Used when a
// galaxy config asks for seed 0, meaning "pick one for me". The chosen seed
// is recorded in the generated galaxy so saves can reproduce it.
func RandomSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// This should never happen; the clock is still unpredictable enough
		// for a new game.
		slog.Warn("crypto/rand unavailable, seeding from clock", "error", err)
		return time.Now().UnixNano() | 1
	}
	// Keep seeds positive so they round-trip cleanly through JSON and YAML.
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed
}

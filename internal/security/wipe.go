// Package security provides command filtering and credential handling.
package security

import "crypto/rand"

// WipeBytes overwrites a byte slice with random data and then zeros so key
// material does not linger in memory after a session ends.
func WipeBytes(data []byte) {
	if len(data) == 0 {
		return
	}

	rand.Read(data)
	for i := range data {
		data[i] = 0
	}
}

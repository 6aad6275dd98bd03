package server

import (
	"crypto/rand"
	"strconv"
)

// maxRoomCodeAttempts bounds the retries when a generated code is
// already taken.
const maxRoomCodeAttempts = 10

// newRoomCode returns a 6-character code from an alphabet without the
// easily confused characters. Declared as a variable so tests can pin
// the generated codes.
var newRoomCode = func() string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "AAAAAA"
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}

func atoiOrZero(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return 0
	}
	return n
}

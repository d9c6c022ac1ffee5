package aes

import (
	"encoding/hex"
	"fmt"
)

// Word is the 4-byte unit of the key schedule.
type Word [4]byte

// String returns the word as 8 hex digits, the form FIPS-197 prints schedules in.
func (w Word) String() string {
	return hex.EncodeToString(w[:])
}

// Schedule is an expanded key: 4*(Nr+1) words, where words [4r, 4r+4) form the
// key for round r. It is never modified after ExpandKey or ExpandKeyInverse returns.
type Schedule struct {
	words  []Word
	rounds int
}

// Rounds returns Nr for a key of keyLen bytes: 10, 12 or 14.
// Any other length is rejected instead of yielding a zero-round cipher.
func Rounds(keyLen int) (int, error) {
	switch keyLen {
	case 16:
		return 10, nil
	case 24:
		return 12, nil
	case 32:
		return 14, nil
	}
	return 0, fmt.Errorf("%w: %d bytes", ErrInvalidKeyLength, keyLen)
}

// ExpandKey runs the FIPS-197 KeyExpansion routine over a 16, 24 or 32 byte key.
func ExpandKey(key []byte) (Schedule, error) {
	nr, err := Rounds(len(key))
	if err != nil {
		return Schedule{}, err
	}

	nk := len(key) / 4
	total := 4 * (nr + 1)
	w := make([]Word, total)

	for i := 0; i < nk; i++ {
		copy(w[i][:], key[4*i:4*i+4])
	}

	for i := nk; i < total; i++ {
		tmp := w[i-1]

		if i%nk == 0 {
			tmp = subWord(rotWord(tmp))
			// Rcon is 1-indexed in the standard.
			tmp[0] ^= rcon[i/nk-1]
		} else if nk > 6 && i%nk == 4 {
			tmp = subWord(tmp)
		}

		for j := 0; j < 4; j++ {
			w[i][j] = w[i-nk][j] ^ tmp[j]
		}
	}

	return Schedule{words: w, rounds: nr}, nil
}

// ExpandKeyInverse builds the schedule for the equivalent inverse cipher: the
// forward schedule with InvMixColumns applied to the keys of rounds 1..Nr-1.
// Round 0 and round Nr are left as they are.
func ExpandKeyInverse(key []byte) (Schedule, error) {
	s, err := ExpandKey(key)
	if err != nil {
		return Schedule{}, err
	}

	for round := 1; round < s.rounds; round++ {
		words := s.words[4*round : 4*round+4]
		mixed := mixColumns(roundKeyMatrix(words), invMixMatrix)
		wordsFromMatrix(mixed, words)
	}

	return s, nil
}

// Rounds returns Nr for this schedule.
func (s Schedule) Rounds() int {
	return s.rounds
}

// Len returns the number of words, 4*(Nr+1).
func (s Schedule) Len() int {
	return len(s.words)
}

// Words returns a copy of the schedule.
func (s Schedule) Words() []Word {
	out := make([]Word, len(s.words))
	copy(out, s.words)
	return out
}

// RoundKey returns the 16-byte key of round r in schedule order (word 0 first).
func (s Schedule) RoundKey(r int) ([BlockSize]byte, error) {
	var k [BlockSize]byte
	if r < 0 || r > s.rounds {
		return k, fmt.Errorf("round %d out of range [0, %d]", r, s.rounds)
	}
	for c, w := range s.words[4*r : 4*r+4] {
		copy(k[4*c:], w[:])
	}
	return k, nil
}

func (s Schedule) roundKey(r int) state {
	return roundKeyMatrix(s.words[4*r : 4*r+4])
}

// wipe zeroes the words in place.
func (s Schedule) wipe() {
	for i := range s.words {
		s.words[i] = Word{}
	}
}

// rotWord rotates a word left by one byte.
func rotWord(w Word) Word {
	return Word{w[1], w[2], w[3], w[0]}
}

// subWord applies the S-box to each byte of a word.
func subWord(w Word) Word {
	return Word{sbox[w[0]], sbox[w[1]], sbox[w[2]], sbox[w[3]]}
}

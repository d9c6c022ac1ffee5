package aes

// state is the 4x4 byte matrix a block is transformed in, indexed [row][column].
// It is passed by value so no two rounds ever share a buffer.
type state [4][4]byte

// stateFromBlock fills the matrix column by column: byte i lands in row i%4,
// column i/4. The caller guarantees len(block) == BlockSize.
func stateFromBlock(block []byte) state {
	var s state
	for i := 0; i < BlockSize; i++ {
		s[i%4][i/4] = block[i]
	}
	return s
}

// bytes reads the matrix back out in the same column-major order.
func (s state) bytes(dst []byte) {
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			dst[4*c+r] = s[r][c]
		}
	}
}

// roundKeyMatrix transposes four schedule words so that byte r of word c sits
// at row r, column c, matching the state layout.
func roundKeyMatrix(words []Word) state {
	var m state
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			m[r][c] = words[c][r]
		}
	}
	return m
}

// wordsFromMatrix is the inverse of roundKeyMatrix.
func wordsFromMatrix(m state, dst []Word) {
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			dst[c][r] = m[r][c]
		}
	}
}

package aes

// Round transforms. Each takes the state by value and returns the new state.

func subBytes(s state) state {
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			s[r][c] = sbox[s[r][c]]
		}
	}
	return s
}

func invSubBytes(s state) state {
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			s[r][c] = invSbox[s[r][c]]
		}
	}
	return s
}

// shiftRows rotates row r left by r positions.
func shiftRows(s state) state {
	var out state
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[r][c] = s[r][(c+r)%4]
		}
	}
	return out
}

// invShiftRows rotates row r right by r positions.
func invShiftRows(s state) state {
	var out state
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[r][(c+r)%4] = s[r][c]
		}
	}
	return out
}

// mixColumns replaces every column with its product by m over GF(2^8).
func mixColumns(s state, m [4][4]byte) state {
	var out state
	for c := 0; c < 4; c++ {
		col := [4]byte{s[0][c], s[1][c], s[2][c], s[3][c]}
		mixed := mixColumn(col, m)
		for r := 0; r < 4; r++ {
			out[r][c] = mixed[r]
		}
	}
	return out
}

// mixColumn computes m * col; each output byte is the XOR of four products.
func mixColumn(col [4]byte, m [4][4]byte) [4]byte {
	var out [4]byte
	for r := 0; r < 4; r++ {
		out[r] = mul(col[0], m[r][0]) ^ mul(col[1], m[r][1]) ^ mul(col[2], m[r][2]) ^ mul(col[3], m[r][3])
	}
	return out
}

func addRoundKey(s, k state) state {
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			s[r][c] ^= k[r][c]
		}
	}
	return s
}

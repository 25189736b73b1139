package goFlags

import "math/bits"

// Bit sets are held as minimal big-endian byte strings: the zero value is ""
// and a non-empty value never starts with a zero byte. With that invariant
// string equality is integer equality and shorter means numerically smaller.

func byteAt(s string, i int) byte {
	if i >= len(s) {
		return 0
	}
	return s[len(s)-1-i]
}

func trimBits(b []byte) string {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return string(b[i:])
}

func combine(a, b string, op func(x, y byte) byte) string {
	n := max(len(a), len(b))
	if n == 0 {
		return ""
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[n-1-i] = op(byteAt(a, i), byteAt(b, i))
	}
	return trimBits(out)
}

func orBits(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "" || a == b:
		return a
	}
	return combine(a, b, func(x, y byte) byte { return x | y })
}

func andBits(a, b string) string {
	if a == "" || b == "" {
		return ""
	}
	return combine(a, b, func(x, y byte) byte { return x & y })
}

func xorBits(a, b string) string {
	return combine(a, b, func(x, y byte) byte { return x ^ y })
}

func andNotBits(a, b string) string {
	if a == "" || b == "" {
		return a
	}
	return combine(a, b, func(x, y byte) byte { return x &^ y })
}

// containsBits reports whether every bit of sub is set in s.
func containsBits(s, sub string) bool {
	if len(sub) > len(s) {
		return false
	}
	for i := 0; i < len(sub); i++ {
		x := byteAt(sub, i)
		if byteAt(s, i)&x != x {
			return false
		}
	}
	return true
}

func intersects(a, b string) bool {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if byteAt(a, i)&byteAt(b, i) != 0 {
			return true
		}
	}
	return false
}

func testBit(s string, pos int) bool {
	if pos < 0 {
		return false
	}
	return byteAt(s, pos/8)&(1<<(pos%8)) != 0
}

func singleBit(pos int) string {
	if pos < 0 {
		return ""
	}
	out := make([]byte, pos/8+1)
	out[0] = 1 << (pos % 8)
	return string(out)
}

// fillBits returns the value with bits [0, n) set.
func fillBits(n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, (n+7)/8)
	for i := range out {
		out[i] = 0xff
	}
	if rem := n % 8; rem != 0 {
		out[0] = byte(1<<rem) - 1
	}
	return string(out)
}

func compareBits(a, b string) int {
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func countBits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n += bits.OnesCount8(s[i])
	}
	return n
}

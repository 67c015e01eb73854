package ecs

import "github.com/rotisserie/eris"

// BitVector is a packed, growable vector of bits stored over a byte buffer.
// Indices past Len fail with ErrOutOfRange; callers pre-size with Resize or grow with PushBack.
type BitVector struct {
	bytes []byte
	n     int
}

// NewBitVector returns a zero-filled vector holding n bits.
func NewBitVector(n int) *BitVector {
	v := &BitVector{}
	v.Resize(n)
	return v
}

// Len returns the number of addressable bits.
func (v *BitVector) Len() int {
	return v.n
}

// Resize grows the vector to hold at least n bits. New bits are zero. Shrinking is ignored.
func (v *BitVector) Resize(n int) {
	if n <= v.n {
		return
	}
	need := (n + 7) / 8
	if need > len(v.bytes) {
		v.bytes = append(v.bytes, make([]byte, need-len(v.bytes))...)
	}
	v.n = n
}

// PushBack appends one bit. The backing buffer grows by one byte only when the last byte is full.
func (v *BitVector) PushBack(bit bool) {
	if v.n%8 == 0 {
		v.bytes = append(v.bytes, 0)
	}
	i := v.n
	v.n++
	if bit {
		v.bytes[i/8] |= 1 << (i % 8)
	}
}

// Set turns bit i on.
func (v *BitVector) Set(i int) error {
	if err := v.check(i); err != nil {
		return err
	}
	v.bytes[i/8] |= 1 << (i % 8)
	return nil
}

// Unset turns bit i off.
func (v *BitVector) Unset(i int) error {
	if err := v.check(i); err != nil {
		return err
	}
	v.bytes[i/8] &^= 1 << (i % 8)
	return nil
}

// Test reports whether bit i is on.
func (v *BitVector) Test(i int) (bool, error) {
	if err := v.check(i); err != nil {
		return false, err
	}
	return v.bytes[i/8]&(1<<(i%8)) != 0, nil
}

// Clear turns every bit off, keeping the length.
func (v *BitVector) Clear() {
	clear(v.bytes)
}

// Count returns the number of bits set.
func (v *BitVector) Count() int {
	count := 0
	for _, b := range v.bytes {
		for ; b != 0; b &= b - 1 {
			count++
		}
	}
	return count
}

func (v *BitVector) check(i int) error {
	if i < 0 || i >= v.n {
		return eris.Wrapf(ErrOutOfRange, "bit %d of %d", i, v.n)
	}
	return nil
}

package ecs

import (
	"math/bits"

	"github.com/rotisserie/eris"
)

const (
	maskWords = 4
	// MaxComponentTypes is the fixed upper bound on registered component types per registry.
	MaxComponentTypes = maskWords * 64
)

// Mask is a set of component types, one bit per ComponentType.
type Mask [maskWords]uint64

// MaskOf builds a mask with the given types set.
func MaskOf(types ...ComponentType) Mask {
	var m Mask
	for _, t := range types {
		m.Set(t)
	}
	return m
}

// Set adds t to the mask. Types at or above MaxComponentTypes are ignored.
func (m *Mask) Set(t ComponentType) {
	if int(t) >= MaxComponentTypes {
		return
	}
	m[t>>6] |= 1 << (t & 63)
}

// Unset removes t from the mask.
func (m *Mask) Unset(t ComponentType) {
	if int(t) >= MaxComponentTypes {
		return
	}
	m[t>>6] &^= 1 << (t & 63)
}

// Has reports whether t is in the mask.
func (m Mask) Has(t ComponentType) bool {
	if int(t) >= MaxComponentTypes {
		return false
	}
	return m[t>>6]&(1<<(t&63)) != 0
}

// Contains reports whether every type in sub is also in m.
func (m Mask) Contains(sub Mask) bool {
	return m[0]&sub[0] == sub[0] &&
		m[1]&sub[1] == sub[1] &&
		m[2]&sub[2] == sub[2] &&
		m[3]&sub[3] == sub[3]
}

// And returns the intersection of m and o.
func (m Mask) And(o Mask) Mask {
	return Mask{m[0] & o[0], m[1] & o[1], m[2] & o[2], m[3] & o[3]}
}

// Or returns the union of m and o.
func (m Mask) Or(o Mask) Mask {
	return Mask{m[0] | o[0], m[1] | o[1], m[2] | o[2], m[3] | o[3]}
}

// IsZero reports whether the mask is empty.
func (m Mask) IsZero() bool {
	return m == Mask{}
}

// Count returns the number of types in the mask.
func (m Mask) Count() int {
	return bits.OnesCount64(m[0]) + bits.OnesCount64(m[1]) + bits.OnesCount64(m[2]) + bits.OnesCount64(m[3])
}

// ForEach calls fn for every type in the mask in ascending order.
func (m Mask) ForEach(fn func(ComponentType)) {
	for w, word := range m {
		for word != 0 {
			pos := bits.TrailingZeros64(word)
			fn(ComponentType(w*64 + pos))
			word &^= 1 << pos
		}
	}
}

// ObjBitField stores one fixed-width bit mask per object. Each object owns a word-aligned run of
// ceil(BitsPerObject/64) uint64 words so its whole mask can be read back as a Mask in one copy.
// The width is fixed at construction.
type ObjBitField struct {
	bitsPerObject int
	words         int
	data          []uint64
	objects       int
}

// NewObjBitField creates an empty field with the given per-object width (1..MaxComponentTypes).
func NewObjBitField(bitsPerObject int) (*ObjBitField, error) {
	if bitsPerObject < 1 || bitsPerObject > MaxComponentTypes {
		return nil, eris.Wrapf(ErrOutOfRange, "bits per object %d (max %d)", bitsPerObject, MaxComponentTypes)
	}
	return &ObjBitField{
		bitsPerObject: bitsPerObject,
		words:         (bitsPerObject + 63) / 64,
	}, nil
}

// BitsPerObject returns the fixed per-object width.
func (f *ObjBitField) BitsPerObject() int {
	return f.bitsPerObject
}

// Len returns the number of objects in the field.
func (f *ObjBitField) Len() int {
	return f.objects
}

// Push appends one zeroed object mask and returns its index.
func (f *ObjBitField) Push() int {
	for i := 0; i < f.words; i++ {
		f.data = append(f.data, 0)
	}
	f.objects++
	return f.objects - 1
}

// Set turns bit on for obj.
func (f *ObjBitField) Set(obj, bit int) error {
	w, o, err := f.locate(obj, bit)
	if err != nil {
		return err
	}
	f.data[w] |= 1 << o
	return nil
}

// Unset turns bit off for obj.
func (f *ObjBitField) Unset(obj, bit int) error {
	w, o, err := f.locate(obj, bit)
	if err != nil {
		return err
	}
	f.data[w] &^= 1 << o
	return nil
}

// Test reports whether bit is on for obj.
func (f *ObjBitField) Test(obj, bit int) (bool, error) {
	w, o, err := f.locate(obj, bit)
	if err != nil {
		return false, err
	}
	return f.data[w]&(1<<o) != 0, nil
}

// UnsetAll clears every bit belonging to obj.
func (f *ObjBitField) UnsetAll(obj int) error {
	if obj < 0 || obj >= f.objects {
		return eris.Wrapf(ErrOutOfRange, "object %d of %d", obj, f.objects)
	}
	clear(f.data[obj*f.words : (obj+1)*f.words])
	return nil
}

// Mask returns the full mask of obj. Out of range objects yield an empty mask.
func (f *ObjBitField) Mask(obj int) Mask {
	var m Mask
	if obj < 0 || obj >= f.objects {
		return m
	}
	copy(m[:], f.data[obj*f.words:(obj+1)*f.words])
	return m
}

// Matches reports whether obj has every bit of required set.
func (f *ObjBitField) Matches(obj int, required Mask) bool {
	if obj < 0 || obj >= f.objects {
		return false
	}
	base := obj * f.words
	for i := 0; i < f.words; i++ {
		if f.data[base+i]&required[i] != required[i] {
			return false
		}
	}
	for i := f.words; i < maskWords; i++ {
		if required[i] != 0 {
			return false
		}
	}
	return true
}

func (f *ObjBitField) locate(obj, bit int) (int, uint, error) {
	if obj < 0 || obj >= f.objects {
		return 0, 0, eris.Wrapf(ErrOutOfRange, "object %d of %d", obj, f.objects)
	}
	if bit < 0 || bit >= f.bitsPerObject {
		return 0, 0, eris.Wrapf(ErrOutOfRange, "bit %d of %d", bit, f.bitsPerObject)
	}
	return obj*f.words + bit/64, uint(bit % 64), nil
}

package object

import (
	"encoding/binary"
	"math"
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// Hasher is implemented by values that provide their own hash. Values that
// compare equal must hash equal.
type Hasher interface {
	Hash() (uint64, error)
}

const (
	noneSeed  = 0x6e6f6e65
	tupleSeed = 0x7475706c
)

// Hash returns the hash of v, forcing it first. Numbers that compare equal
// across int, float and bool hash identically. Mutable containers are not
// hashable.
func Hash(v Object) (uint64, error) {
	v, err := Strict(v)
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case noneValue:
		return noneSeed, nil
	case Bool:
		if v {
			return hashInt(1), nil
		}
		return hashInt(0), nil
	case Int:
		return hashInt(int64(v)), nil
	case Float:
		f := float64(v)
		if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1<<63 {
			return hashInt(int64(f)), nil
		}
		return hashUint(math.Float64bits(f)), nil
	case Str:
		return xxhash.Sum64String(string(v)), nil
	case *Tuple:
		d := xxhash.New()
		writeUint(d, tupleSeed)
		for _, e := range v.Elems {
			h, err := Hash(e)
			if err != nil {
				return 0, err
			}
			writeUint(d, h)
		}
		return d.Sum64(), nil
	case *List, *Dict, *Set:
		return 0, Errorf(TypeError, "unhashable type: '%s'", v.Type())
	case Hasher:
		return v.Hash()
	}
	return IdentityHash(v), nil
}

// IdentityHash hashes v by address. It is used for values that have no
// notion of structural equality.
func IdentityHash(v Object) uint64 {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return hashUint(uint64(rv.Pointer()))
	}
	return xxhash.Sum64String(string(v.Type()) + ":" + v.String())
}

// Combine mixes a sequence of hashes into one, order sensitively.
func Combine(seed uint64, hashes ...uint64) uint64 {
	d := xxhash.New()
	writeUint(d, seed)
	for _, h := range hashes {
		writeUint(d, h)
	}
	return d.Sum64()
}

func hashInt(i int64) uint64 {
	return hashUint(uint64(i))
}

func hashUint(u uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], u)
	return xxhash.Sum64(buf[:])
}

func writeUint(d *xxhash.Digest, u uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], u)
	_, _ = d.Write(buf[:])
}

package infra

import (
	"strconv"
	"strings"
	"unsafe"
)

// Unsigned is a constraint that permits any unsigned integer type.
// If future releases of Go add new predeclared unsigned integer types,
// this constraint will be modified to include them.
type Unsigned interface {
	~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// OrderedKeyComparator
// Assume i is the new key.
//  1. i == j (return 0)
//  2. i > j (return 1), turn to right part.
//  3. i < j (return -1), turn to left part.
type OrderedKeyComparator[K Unsigned] func(i, j K) int64

func UnsignedCompare[K Unsigned](i, j K) int64 {
	if i == j {
		return 0
	} else if i < j {
		return -1
	}
	return 1
}

// ParseUnsigned parses a base 10 key and rejects values that
// overflow the bit size of K.
func ParseUnsigned[K Unsigned](s string) (K, error) {
	var zero K
	bitSize := int(unsafe.Sizeof(zero)) << 3
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, bitSize)
	if err != nil {
		return zero, err
	}
	return K(v), nil
}

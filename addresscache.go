package vcdiff

import (
	"bytes"
	"fmt"
)

const (
	SelfMode = 0
	HereMode = 1
)

// AddressCache implements the NEAR/SAME address cache described in RFC
// 3284 Section 5.3 and used by both the decoder and the encoder. With the
// default sizes (nearSize=4, sameSize=3) it offers 9 address modes:
//
//	0      SELF  - absolute address, a varint
//	1      HERE  - here - value, a varint
//	2..5   NEAR  - near[mode-2] + value, a varint
//	6..8   SAME  - same[(mode-6)*256 + byte], a single raw byte
//
// Addresses are uint64: they range over the combined source+target address
// space of a window, which is not bounded to 32 bits.
type AddressCache struct {
	nearSize      int
	sameSize      int
	near          []uint64
	nextNearSlot  int
	same          []uint64
	addressStream *bytes.Reader
}

// NewAddressCache creates a new address cache with the specified sizes.
func NewAddressCache(nearSize, sameSize int) *AddressCache {
	return &AddressCache{
		nearSize: nearSize,
		sameSize: sameSize,
		near:     make([]uint64, nearSize),
		same:     make([]uint64, sameSize*256),
	}
}

// Reset clears the cache for a new window and, for decoding, attaches the
// window's address section as the source of subsequent varints/bytes.
func (ac *AddressCache) Reset(addresses []byte) {
	ac.nextNearSlot = 0

	for i := range ac.near {
		ac.near[i] = 0
	}
	for i := range ac.same {
		ac.same[i] = 0
	}

	ac.addressStream = bytes.NewReader(addresses)
}

func (ac *AddressCache) sameStart() int {
	return 2 + ac.nearSize
}

// DecodeAddress decodes the address for a COPY instruction with the given
// mode, reading from the address section attached by Reset. here is the
// current cumulative position in the combined address space (source
// segment length plus target bytes produced so far).
func (ac *AddressCache) DecodeAddress(here uint64, mode byte) (uint64, error) {
	sameStart := ac.sameStart()

	var addr uint64

	switch {
	case int(mode) == SelfMode:
		v, err := ReadVarint64(ac.addressStream)
		if err != nil {
			return 0, fmt.Errorf("error reading address for SELF mode: %w", err)
		}
		addr = v

	case int(mode) == HereMode:
		offset, err := ReadVarint64(ac.addressStream)
		if err != nil {
			return 0, fmt.Errorf("error reading offset for HERE mode: %w", err)
		}
		if offset > here {
			return 0, fmt.Errorf("HERE mode offset %d exceeds current position %d", offset, here)
		}
		addr = here - offset

	case int(mode) < sameStart:
		cacheIndex := int(mode) - 2
		if cacheIndex < 0 || cacheIndex >= ac.nearSize {
			return 0, fmt.Errorf("invalid address cache mode %d: valid modes are 0-%d", mode, sameStart+ac.sameSize-1)
		}
		offset, err := ReadVarint64(ac.addressStream)
		if err != nil {
			return 0, fmt.Errorf("error reading offset for near cache mode %d: %w", mode, err)
		}
		addr = ac.near[cacheIndex] + offset

	default:
		m := int(mode) - sameStart
		if m >= ac.sameSize {
			return 0, fmt.Errorf("same cache mode %d exceeds available slots (max %d)", mode, sameStart+ac.sameSize-1)
		}
		b, err := ac.addressStream.ReadByte()
		if err != nil {
			return 0, fmt.Errorf("error reading SAME cache byte for mode %d: %w", mode, err)
		}
		addr = ac.same[m*256+int(b)]
	}

	if addr >= here {
		return 0, fmt.Errorf("decoded address %d is not less than current position %d", addr, here)
	}

	ac.Update(addr)
	return addr, nil
}

// EncodeAddress chooses the cheapest mode for addr given the current
// position here, returning the mode and its encoded representation: a
// varint for SELF/HERE/NEAR, a single raw byte for SAME. This is
// xdelta3's xd3_encode_address: try SELF, then HERE, then each NEAR slot,
// short-circuiting as soon as a one-byte varint is found, and finally
// prefer an exact SAME cache hit (a fixed one-byte cost) over anything
// that needed more than a single varint byte.
func (ac *AddressCache) EncodeAddress(addr, here uint64) (byte, []byte) {
	bestDist := addr
	bestMode := byte(SelfMode)

	if bestDist <= 127 {
		return ac.emitNonSame(bestDist, bestMode, addr)
	}

	if d := here - addr; d < bestDist {
		bestDist = d
		bestMode = HereMode
		if bestDist <= 127 {
			return ac.emitNonSame(bestDist, bestMode, addr)
		}
	}

	for i := 0; i < ac.nearSize; i++ {
		if addr >= ac.near[i] {
			if d := addr - ac.near[i]; d < bestDist {
				bestDist = d
				bestMode = byte(i + 2)
				if bestDist <= 127 {
					return ac.emitNonSame(bestDist, bestMode, addr)
				}
			}
		}
	}

	if ac.sameSize > 0 {
		idx := int(addr % uint64(ac.sameSize*256))
		if ac.same[idx] == addr {
			mode := byte(ac.sameStart() + idx/256)
			ac.Update(addr)
			return mode, []byte{byte(idx % 256)}
		}
	}

	return ac.emitNonSame(bestDist, bestMode, addr)
}

func (ac *AddressCache) emitNonSame(dist uint64, mode byte, addr uint64) (byte, []byte) {
	ac.Update(addr)
	return mode, WriteVarint64(nil, dist)
}

// Update records a decoded or encoded address in the NEAR and SAME
// caches. Address 0 is a perfectly valid cached value; unlike a prior
// version of this cache, a zero slot is never treated as "unset" during
// lookup.
func (ac *AddressCache) Update(address uint64) {
	if ac.nearSize > 0 {
		ac.near[ac.nextNearSlot] = address
		ac.nextNearSlot = (ac.nextNearSlot + 1) % ac.nearSize
	}

	if ac.sameSize > 0 {
		ac.same[address%uint64(ac.sameSize*256)] = address
	}
}

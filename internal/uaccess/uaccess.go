// Copyright 2018 Canonical Ltd.
// Licensed under the LGPLv3 with static-linking exception.
// See LICENCE file for details.

/*
Package uaccess converts between byte slices and the 64-bit addresses that
are embedded in uverbs commands.

Addresses are only meaningful whilst the memory they refer to is pinned
for the duration of a command. Slice is only intended for in-process
implementations of the kernel side of the interface, such as test
transports.
*/
package uaccess

import "unsafe"

// Address returns the address of the first byte of b, or 0 if b is empty.
func Address(b []byte) uint64 {
	if len(b) == 0 {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(&b[0])))
}

// Slice returns a slice of length bytes that aliases the memory at addr.
// It returns nil if addr is 0 or length is 0.
func Slice(addr uint64, length int) []byte {
	if addr == 0 || length == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), length)
}

// CopyFrom copies length bytes from addr into a new slice.
func CopyFrom(addr uint64, length int) []byte {
	out := make([]byte, length)
	copy(out, Slice(addr, length))
	return out
}

// CopyTo copies data to the memory at addr, writing at most length bytes.
// It returns the number of bytes copied.
func CopyTo(addr uint64, length int, data []byte) int {
	return copy(Slice(addr, length), data)
}

// Package permission implements the gate that guards the bridge: a synchronous
// grant check plus the asynchronous prompt handshake with the OS.
//
// The handshake has two independent inputs. Calls on the dispatch path arm a
// single pending slot with a Resolver; results arrive later from the OS on an
// arbitrary goroutine and resolve the slot. The slot guarantees each Resolver
// runs at most once, however the two inputs interleave.
package permission

// Package hostfuncs holds the bridge's operation registry: the fixed table
// mapping a method name to its argument schema, the host engine call it makes
// and the shaping applied to the result.
//
// The table is built once with NewRegistry and never changes afterwards, so
// lookups need no locking.
package hostfuncs

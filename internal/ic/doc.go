// Package ic owns the typed marshaling runtime.
//
// Ownership boundary:
// - per-type helper bundles (Port, Pid, Ref): ids, names, descriptors, codecs
// - lazily built TypeCode descriptors
// - Holder and Any containers
// - local id registry used by the CLI and the inspection server
//
// Term-level encoding lives in internal/term; TypeCode trees live in
// internal/typecode.
package ic

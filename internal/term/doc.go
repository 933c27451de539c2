// Package term owns the external term format stream primitives.
//
// Ownership boundary:
// - fixed-width unsigned integers and bounded strings
// - atoms and identity terms (port, pid, reference)
// - tuple/list headers and whole-term skipping
// - {packet,4} framing with size limits
//
// Only the subset of the format needed by typed marshaling is produced.
// The reader accepts the older encodings of every term it can produce.
package term

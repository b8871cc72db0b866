// Package mmap allocates the large, fixed-size buffers backing a mirrored
// device. Where the platform allows it the memory comes from an anonymous
// mapping so that multi-gigabyte devices stay out of the garbage collector's
// scan set.
//
// Allocation failure is reported as an error rather than a runtime panic,
// which lets device construction fail cleanly when the host cannot provide
// the requested size.
package mmap

// Package canvas holds the spatial model of the board: coordinate frames,
// card footprints, overlap detection, group bounds, panning and the
// per-card drag lifecycle.
//
// # Frames
//
// Pointer events arrive in the viewport frame. Subtracting the container's
// screen origin gives the container frame; subtracting the pan offset gives
// the canvas frame, in which card positions are persisted.
//
// # Grouping
//
// A dropped card groups with another card when their footprints intersect
// over at least Layout.OverlapThreshold of one footprint's area. When
// several cards qualify the largest intersection wins; equal areas resolve
// to the first card in iteration order.
//
// Everything in this package is pure and free of I/O.
package canvas

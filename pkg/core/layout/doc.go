// Package layout turns a timeline configuration, its categories and its
// events into pixel geometry.
//
// # Overview
//
// [Build] runs one pass:
//
//  1. [ResolveWindow] turns the start and end tokens into a window snapped
//     to the scale's window unit.
//  2. The limiter rejects windows that would need more grids than the
//     scale's limit.
//  3. The window is decomposed once; the grid, the ruler lines and the
//     coordinate mapper all share that decomposition.
//  4. Each row's events go through the lane allocator.
//  5. Every event gets an x span from the mapper and a y slot from its
//     lane hint, then is clipped to the content area.
//
// Nothing survives a pass: the [Result] is a plain value and the engine
// keeps no state between calls. A failing pass returns no result at all.
//
// # Rows
//
// With categories, each category is one row, ordered by [OrderCategories].
// Without categories, events pick a numbered row through their Row hint.
// Under the multirow policy a row spans one physical row per track, so the
// content height is the sum of the spans plus a 1px border between physical
// rows.
//
// # Clipping
//
// A bar that starts before the window is cut to x=0, one that runs past
// the window is cut at the content width, and one narrower than 1px after
// clipping is dropped. Points outside the window are dropped. Events that do
// not intersect the window are reported as dropped and take no lane.
package layout

// Package lane partitions the events of one category into tracks and
// derives each event's vertical slot.
//
// # Tracks
//
// [Allocate] sorts items by start (ties keep input order) and places each
// one in the first track whose last end is not after the item's start,
// opening a new track otherwise. This greedy interval partitioning is
// optimal: the track count equals the largest number of items open at any
// single instant.
//
// Overlap is half-open. Two items overlap when a.Start < b.End and
// b.Start < a.End, so an item ending at 10:00 and one starting at 10:00 can
// share a track. A zero-length item overlaps the items open at its instant
// and nothing that starts or ends exactly there.
//
// # Policies
//
//   - [Overlay]: every item sits in slot 0 of a full-height row.
//   - [SplitRow]: the row height is divided by the track count, or by the
//     size of the item's parallel group in separate mode.
//   - [MultiRow]: the category expands to one full-height row per track, or
//     one per parallel group position in separate mode.
//
// # Parallel Groups
//
// A parallel group is the transitive closure of the overlap relation around
// an item: A overlapping B and B overlapping C puts all three in one group
// even when A and C are disjoint. [ParallelGroup] resolves one group by
// breadth-first expansion; [Groups] partitions a whole item set at once.
//
// # Overlap Figures
//
// [Allocation] carries two overlap figures that are not interchangeable:
// PackMaxOverlap is the track count minus one, MaxConcurrent is the sweep
// line maximum of simultaneously open items. [Allocation.MaxOverlap] returns
// the one the active mode consumes.
package lane

// Package ir is the mutable, arena-backed intermediate representation shared
// by every compiler stage.
//
// A Module owns all operations, regions, blocks and values. They are
// addressed by small integer handles (OpID, RegionID, BlockID, ValueID);
// the zero handle is never valid. Handles stay stable for the lifetime of the
// module and are never reused after an erase.
//
// Key constraints:
//   - All structural edits go through the Module methods in edit.go so that
//     use-lists and parent links stay consistent. Nothing outside this package
//     can reach the arena fields.
//   - Operation kinds and their traits come from a Dialect. This package only
//     knows the built-in module kind (Kind 0).
//   - A region may be marked as a barrier. Dominance never crosses a barrier,
//     which is how closure bodies are isolated from their defining scope.
//   - Integers only. There are no float attributes.
//
// ir imports nothing internal.
package ir

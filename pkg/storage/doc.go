// Package storage is the transactional row store underneath the catalog.
//
// Every table keeps its row versions in a B-tree ordered by RowID, so a full
// scan returns rows in insertion order. Secondary indexes are B-trees keyed by
// (key fields..., RowID) and hold every version, visible or not; readers
// filter by visibility.
//
// # Visibility
//
// A version records the transaction that created it (xmin) and the one that
// deleted it (xmax). Committed versions have xmin cleared. Transaction T sees
// a version when it is committed or created by T, and T has not deleted it.
// Commit physically removes the versions T deleted; abort removes the versions
// T inserted and clears T's delete marks.
//
// # Conflicts
//
//   - Unique and primary key indexes reject a key held by any version not
//     deleted by the inserting transaction, so of two concurrent inserts of
//     the same key the first one wins.
//   - Deleting a version already marked by another live transaction fails
//     with dberror.ErrWriteConflict.
//
// # Persistence
//
// Save and Load write the committed state as a msgpack document compressed
// with zstd. Tables, their indexes, row ids and the engine id survive a
// round trip.
package storage

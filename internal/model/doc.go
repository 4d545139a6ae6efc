// Package model provides the entity and mutation event types shared by every
// other listsync package.
//
// model imports nothing internal. The store produces these values, the bus
// carries them, and the live connections serialize them to clients.
//
// Key constraints:
//   - Ids are int64 surrogate keys generated by the store, never by callers
//   - Events carry value snapshots; nothing downstream mutates an entity
//   - The wire form of an Event is canonical JSON (see MarshalCanonical)
//   - All JSON tags use snake_case
package model

// Package journal records inbound realtime frames to SQLite so a session can
// be inspected or replayed through the engine later.
//
// Frames are stored raw, exactly as received, together with the decoded
// event tag. Each frame gets a seq from a counter that resumes from the
// highest stored seq when the journal is reopened, so replay order is the
// original delivery order.
package journal

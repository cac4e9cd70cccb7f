// Package harness runs notification scenarios against the real store,
// engine and notification centre.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: outbid_then_read
//	description: "A bid arrives, is outbid, and the user reads both"
//	now: "2026-10-19T12:00:00Z"
//	setup:
//	  - id: n1
//	    type: order_shipped
//	    priority: low
//	    age: 26h
//	flow:
//	  - frame:
//	      type: NEW_NOTIFICATION
//	      notification: { id: n2, type: auction_bid, priority: high, ... }
//	    expect: { outcome: added, unread: 2 }
//	  - op: mark_read
//	    ids: [n2]
//	    fail: true          # backend rejects the call; the store rolls back
//	    expect: { error: true, unread: 2 }
//	  - op: advance
//	    duration: 10s
//	assertions:
//	  - type: unread_count
//	    count: 2
//	  - type: order
//	    ids: [n2, n1]
//
// Frames go through engine.HandleFrame exactly as a websocket frame would.
// Ops go through the notification centre with a scripted backend, so
// optimistic mutations and their rollback are exercised. Toasts run on a
// fake clock that only moves on advance steps.
//
// # Invariants
//
// After every step the harness checks that the unread counter equals the
// number of unread records and that no id appears twice. A violation fails
// the scenario with the step number.
//
// # Golden Files
//
// RunWithGolden compares the step trace with testdata/golden/<name>.golden.
// Regenerate with:
//
//	go test ./internal/harness -update
package harness

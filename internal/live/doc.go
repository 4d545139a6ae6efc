// Package live keeps connected clients in sync with the mutation bus.
//
// Each connection runs one Session, a small state machine driven by a
// Transport (how bytes reach the client) and a Source (its own cursor on
// the mutation bus):
//
//	Handshaking ──probe sent──▶ AwaitingPong ──ack──▶ Forwarding
//	     ▲                           │                  │  │
//	     └─────────idle window expired──────────────────┘  │
//	                                 │                     │
//	                                 ▼                     ▼
//	                               Closed ◀──send failure, bus closed, shutdown
//
// A session forwards every event it receives, in bus order, while events keep
// arriving within the idle window. When the window passes with no event it
// probes the client again and waits a short time for the acknowledgment;
// a missing or late acknowledgment closes the session.
//
// A subscriber that falls behind the bus retention is told how many events it
// missed. The session logs the count and keeps forwarding from the oldest
// retained event. Missed events are not replayed.
//
// Failures are local to one session: they are logged and end that session
// without touching any other.
package live

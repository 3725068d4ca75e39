// Package core defines the domain model of the library assistant: books,
// conversational sessions, student identity and reservations, plus the
// narrow store and notifier interfaces the dialogue engine depends on.
// Concrete implementations live in the session, inventory and notify
// packages so the core stays free of transport and storage concerns.
package core

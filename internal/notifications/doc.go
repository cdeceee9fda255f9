// Package notifications delivers pipeline events to an ntfy topic. Without
// a configured topic every notification is a no-op, and callers always treat
// delivery failures as non-fatal.
package notifications

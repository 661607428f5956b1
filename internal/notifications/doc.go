// Package notifications sends ntfy push notifications for fact-check
// lifecycle events. A noop implementation is used when no topic is
// configured.
package notifications

// Package notifications publishes job alerts to an ntfy topic.
//
// A Notifier is built from the [notifications] config section; with no topic
// configured New returns a no-op implementation so callers never branch on
// whether alerts are enabled.
package notifications

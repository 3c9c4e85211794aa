// Package notifications delivers review and library events via ntfy.
//
// The ntfy implementation posts to the topic URL configured in config.toml and
// degrades to a no-op when no topic is set. Each event family can be switched
// off independently ([notifications] review, library, errors).
package notifications

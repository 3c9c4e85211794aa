// Package logging builds the slog loggers used across tuneshelf.
//
// The console handler prints one line per record with the component and item
// id lifted into a bracketed prefix; the JSON handler renames the time key to
// "ts" and lowercases levels. WarnWithContext and ErrorWithContext guarantee
// the event_type and error_hint fields operators filter on.
package logging

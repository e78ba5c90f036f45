// Package prefs persists local, per-device preferences in SQLite.
//
// The only preference the client needs across restarts is the user's
// display name, stored under UserNameKey. Sessions and board contents are
// never stored locally.
//
// # Database Configuration
//
//   - WAL mode
//   - synchronous=NORMAL
//   - busy_timeout=5000
package prefs

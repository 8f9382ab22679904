// Package calendar models calendar events and the source boundary that
// supplies them. Sources are exported snapshots on disk; a cached copy under
// the state directory keeps the morning run working when the export is
// missing or stale.
package calendar

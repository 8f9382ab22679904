// Package mail models the inbox snapshot read during the morning run. Like
// the calendar source it is an exported file with a cached fallback;
// unavailability degrades the brief's inbox section, never the run.
package mail

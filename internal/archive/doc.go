// Package archive rotates ephemeral workspace artifacts into date- and
// week-keyed archive entries, and relocates consumed daily archives into the
// long-term inbox during the weekly cycle. Every operation is idempotent and
// merge-tolerant so an interrupted run can simply be retried.
package archive

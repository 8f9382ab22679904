// Package prep tracks the per-meeting readiness lifecycle. Initial states
// come from an explicit rule table (category defaults, relationship-stage
// and title-keyword upgrades); transitions are monotonic forward except for
// an explicit reschedule reset, and completion is unconditional once a
// meeting's end time has passed.
package prep

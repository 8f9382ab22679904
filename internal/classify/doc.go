// Package classify assigns each calendar event a category and resolved
// entity. The priority order is: project keyword registry, personal,
// internal, then attendee-domain mapping through the entity index. Domains
// shared by several business units go through a persistent learning cache —
// exact attendee patterns beat title patterns beat domain defaults — and
// only a genuine cache miss escalates to the interactive resolver, whose
// answer is persisted so the same question is never asked twice.
package classify

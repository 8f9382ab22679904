// Package workspace defines the canonical on-disk layout of a daybook
// workspace and the artifact category rules that govern archival
// eligibility, plus the advisory lock that keeps overlapping invocations
// from corrupting shared files.
package workspace

// Package config loads, normalizes, and validates the daybook workspace
// configuration. All filesystem paths used anywhere in the program are
// resolved here once, at process start; no component assumes an ambient
// working directory.
package config

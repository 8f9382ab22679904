// Package services defines the error taxonomy shared by every daybook
// component. Sentinel errors mark the failure class; Wrap attaches component
// and operation context; IsWarning separates degraded-mode conditions (which
// the run survives with a visible warning) from fatal ones.
package services

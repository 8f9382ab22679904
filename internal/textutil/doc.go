// Package textutil provides the text normalization shared by classification,
// reconciliation, and file naming: safe file tokens, normalized titles for
// prefix matching, and display casing for entity names.
package textutil

// Package normalisers provides text normalisers used around retrieval.
// The query normaliser bridges spelling, separator and language
// differences between what users type and how campaigns are written.
package normalisers

// Package vectorindex provides a versioned, file-backed vector index.
// It implements the driven.VectorIndex interface.
//
// Each saved version is a directory under the base directory:
//
//	<base>/index_YYYYMMDD_HHMMSS_nnnnnnnnn/index.bin
//	<base>/index_YYYYMMDD_HHMMSS_nnnnnnnnn/metadata.json
//
// An unversioned index.bin/metadata.json pair directly in the base
// directory is read as the legacy version.
//
// Search is exact: every query scans all vectors by squared L2 distance.
// Versions are immutable once saved; readers hold the version they started
// with while a new one is built, saved and swapped in.
package vectorindex

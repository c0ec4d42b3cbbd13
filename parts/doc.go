// Package parts indexes a flat library of reusable part scripts and serves
// weighted relevance search over it.
//
// A scan reads every non-underscore part script in the library directory,
// parses the docstring metadata header, builds the script through the
// geometry kernel, and renders a thumbnail of the first published object.
// Unchanged files (by modification time) are skipped; vanished files are
// evicted together with their thumbnails. Failures are scoped to the file
// that caused them.
package parts

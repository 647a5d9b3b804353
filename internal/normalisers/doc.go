// Package normalisers turns raw files into plain text for indexing. Each
// sub-package handles a family of MIME types; Registry picks between them.
package normalisers

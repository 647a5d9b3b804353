// Package html provides a Normaliser for HTML pages. Article text is found
// with go-readability; pages it cannot handle fall back to tag stripping.
package html

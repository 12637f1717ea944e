// Package sanitizer normalizes user-supplied text before it is validated
// and stored.
//
// Each exported function is a Strategy; Pipeline chains strategies left to
// right.
package sanitizer

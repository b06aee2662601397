// Package interp provides the fractional-sample interpolation used by the
// bucket-brigade delay reads.
package interp

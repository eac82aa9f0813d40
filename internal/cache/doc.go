// Package cache keeps recently resampled cue files in memory so repeated
// writes of the same content are not resampled again.
package cache

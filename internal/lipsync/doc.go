// Package lipsync converts lip-sync metadata into animation data. A sound's
// mouth cues, as produced by Rhubarb Lip Sync, are resampled into a dense,
// fixed-interval byte sequence with one intensity per animation frame, ready
// to be spliced into one axis channel of a track.
package lipsync

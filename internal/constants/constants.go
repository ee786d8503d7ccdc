// Package constants provides shared constants used across the codebase.
package constants

// Face matching constants
const (
	// DefaultDistanceThreshold is the default maximum Euclidean distance for
	// accepting a roster match. Lower values = stricter matching.
	DefaultDistanceThreshold = 0.5

	// DefaultEncodingDim is the default face encoding length produced by the
	// extractor service.
	DefaultEncodingDim = 128

	// HNSWMaxNeighbors is the M parameter for the optional roster index.
	HNSWMaxNeighbors = 16
)

// Image handling constants
const (
	// MaxImageSize is the maximum dimension (width or height) for images
	// posted to the extractor; larger uploads are resized first.
	MaxImageSize = 1920

	// MaxUploadBytes caps multipart capture uploads.
	MaxUploadBytes = 16 << 20
)

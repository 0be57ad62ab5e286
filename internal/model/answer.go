package model

// SourceKind records where an answer came from
type SourceKind string

const (
	SourceGraph     SourceKind = "graph"     // Live knowledge-graph backend
	SourceGenerated SourceKind = "generated" // Generative fallback
	SourceError     SourceKind = "error"     // Nothing could be resolved
)

// Fixed values for the error record
const (
	ErrorTitle       = "Connection Error"
	ErrorExplanation = "Unable to verify the knowledge asset at this time."
	ZeroFingerprint  = "0x0000000000000000000000000000000000000000"
	PlaceholderHash  = "0x"
)

// AnswerRecord is the normalized result of a knowledge query
type AnswerRecord struct {
	Title       string     `json:"title" yaml:"title"`
	Explanation string     `json:"explanation" yaml:"explanation"`
	SourceHash  string     `json:"source_hash" yaml:"source_hash"`
	SourceKind  SourceKind `json:"source_kind" yaml:"source_kind"`
	AssetID     string     `json:"asset_id,omitempty" yaml:"asset_id,omitempty"`         // UAL of the knowledge asset
	ExplorerURL string     `json:"explorer_url,omitempty" yaml:"explorer_url,omitempty"` // Only set when AssetID and an explorer base exist
}

// ErrorRecord returns the fixed user-safe record for total resolution failure
func ErrorRecord() AnswerRecord {
	return AnswerRecord{
		Title:       ErrorTitle,
		Explanation: ErrorExplanation,
		SourceHash:  ZeroFingerprint,
		SourceKind:  SourceError,
	}
}

// HasAsset reports whether the answer points at a persistent knowledge asset
func (a AnswerRecord) HasAsset() bool {
	return a.AssetID != ""
}

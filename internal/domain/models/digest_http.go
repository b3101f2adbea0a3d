package models

import "time"

// Requests and views for the digest HTTP endpoints.

type DigestRequest struct {
	Format string `query:"format" json:"format" default:"html" validate:"oneof=html text"`
}

// StateView summarizes the last cycle without exposing AnalysisState itself.
type StateView struct {
	HasDigest   bool                    `json:"has_digest"`
	Status      string                  `json:"status,omitempty"`
	GeneratedAt *time.Time              `json:"generated_at,omitempty"`
	Assets      int                     `json:"assets"`
	HasBaseline bool                    `json:"has_baseline"`
	Sources     map[string]SourceStatus `json:"sources,omitempty"`
}

func NewStateView(rec DigestRecord, ok bool) StateView {
	if !ok {
		return StateView{}
	}
	ts := rec.GeneratedAt
	return StateView{
		HasDigest:   true,
		Status:      rec.Status,
		GeneratedAt: &ts,
		Assets:      rec.Assets,
		HasBaseline: rec.HasBaseline,
		Sources:     rec.Sources,
	}
}

package models

import "github.com/hyperjump/tfexplorer/internal/vector"

// NeighborsResponse is the answer to a NeighborsQuery or VectorQuery.
type NeighborsResponse struct {
	// Word is empty for vector queries.
	Word      string            `json:"word,omitempty"`
	Neighbors []vector.Neighbor `json:"neighbors"`
	QueryTime int64             `json:"query_time_ms"`
	HistoryID string            `json:"history_id,omitempty"`
}

// AnalogyResponse is the answer to an AnalogyQuery.
type AnalogyResponse struct {
	A         string            `json:"a"`
	B         string            `json:"b"`
	C         string            `json:"c"`
	Results   []vector.Neighbor `json:"results"`
	QueryTime int64             `json:"query_time_ms"`
	HistoryID string            `json:"history_id,omitempty"`
}

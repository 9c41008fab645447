package dto

import (
	"errors"
	"strings"

	"github.com/soundprediction/pathfinder/pkg/explore"
)

// Validation errors
var (
	ErrEmptySource     = errors.New("source cannot be empty")
	ErrEmptyTarget     = errors.New("target cannot be empty")
	ErrSourceTooLong   = errors.New("source exceeds maximum length (2048)")
	ErrTargetTooLong   = errors.New("target exceeds maximum length (2048)")
	ErrNegativeMaxHops = errors.New("max_hops cannot be negative")
	ErrMaxHopsTooLarge = errors.New("max_hops exceeds maximum (6)")
)

// MaxFieldLengths defines maximum sizes for request fields to prevent abuse
const (
	MaxEntityLength = 2048
	MaxHops         = 6
)

// FindPathRequest represents a request to find a relation path between two entities
type FindPathRequest struct {
	Source    string `json:"source" binding:"required"`
	Target    string `json:"target" binding:"required"`
	MaxHops   int    `json:"max_hops,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// Validate performs validation on FindPathRequest. A zero MaxHops is
// accepted and replaced by the server default.
func (r *FindPathRequest) Validate() error {
	if strings.TrimSpace(r.Source) == "" {
		return ErrEmptySource
	}
	if len(r.Source) > MaxEntityLength {
		return ErrSourceTooLong
	}
	if strings.TrimSpace(r.Target) == "" {
		return ErrEmptyTarget
	}
	if len(r.Target) > MaxEntityLength {
		return ErrTargetTooLong
	}
	if r.MaxHops < 0 {
		return ErrNegativeMaxHops
	}
	if r.MaxHops > MaxHops {
		return ErrMaxHopsTooLarge
	}
	return nil
}

// Hop is one step of a returned path.
type Hop struct {
	Subject  string `json:"subject"`
	Relation string `json:"relation"`
	Object   string `json:"object"`
}

// FindPathResponse represents the outcome of a path search
type FindPathResponse struct {
	SessionID string        `json:"session_id"`
	Source    string        `json:"source"`
	Target    string        `json:"target"`
	MaxHops   int           `json:"max_hops"`
	Found     bool          `json:"found"`
	TimedOut  bool          `json:"timed_out,omitempty"`
	Relations []string      `json:"relations"`
	Path      []Hop         `json:"path"`
	Stats     explore.Stats `json:"stats"`
}

// NewFindPathResponse converts an exploration result to its wire form.
func NewFindPathResponse(res *explore.Result) FindPathResponse {
	resp := FindPathResponse{
		SessionID: res.SessionID,
		Source:    res.Source.String(),
		Target:    res.Target.String(),
		MaxHops:   res.HopBudget,
		Found:     res.Found,
		TimedOut:  res.TimedOut,
		Relations: make([]string, 0, len(res.Path)),
		Path:      make([]Hop, 0, len(res.Path)),
		Stats:     res.Stats,
	}
	for _, t := range res.Path {
		resp.Relations = append(resp.Relations, t.Relation.String())
		resp.Path = append(resp.Path, Hop{
			Subject:  t.Subject.String(),
			Relation: t.Relation.String(),
			Object:   t.Object.String(),
		})
	}
	return resp
}

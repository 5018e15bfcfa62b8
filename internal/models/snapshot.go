package models

import "time"

// Artifact names one backed-up data kind within a snapshot.
type Artifact string

const (
	ArtifactTransactions Artifact = "transactions"
	ArtifactNotes        Artifact = "notes"
	ArtifactDebts        Artifact = "debts"
	ArtifactTodos        Artifact = "todos"
)

// Snapshot describes a backup discovered in the stores.
type Snapshot struct {
	// ID is the 14-digit timestamp identifier (YYYYMMDDhhmmss).
	ID string `json:"id"`

	// CreatedAt is parsed from ID, or the listing time when ID is malformed.
	CreatedAt time.Time `json:"createdAt"`

	HasTransactions bool `json:"hasTransactions"`
	HasNotes        bool `json:"hasNotes"`
	HasDebts        bool `json:"hasDebts"`
	HasTodos        bool `json:"hasTodos"`
}

// Artifacts returns the artifacts present in the snapshot.
func (s Snapshot) Artifacts() []Artifact {
	var out []Artifact
	if s.HasTransactions {
		out = append(out, ArtifactTransactions)
	}
	if s.HasNotes {
		out = append(out, ArtifactNotes)
	}
	if s.HasDebts {
		out = append(out, ArtifactDebts)
	}
	if s.HasTodos {
		out = append(out, ArtifactTodos)
	}
	return out
}

// Mark records artifact a as present.
func (s *Snapshot) Mark(a Artifact) {
	switch a {
	case ArtifactTransactions:
		s.HasTransactions = true
	case ArtifactNotes:
		s.HasNotes = true
	case ArtifactDebts:
		s.HasDebts = true
	case ArtifactTodos:
		s.HasTodos = true
	}
}

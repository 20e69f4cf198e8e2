package identity

import "errors"

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidProof = errors.New("invalid identity proof")
)

// Proof is the artifact produced by the external zero-knowledge identity
// prover. It carries only revealed attributes and a nullifier, never the
// national ID itself.
type Proof struct {
	Nullifier  string `json:"nullifier"`
	AgeAbove18 string `json:"ageAbove18,omitempty"`
	Gender     string `json:"gender,omitempty"`
	State      string `json:"state,omitempty"`
	Pincode    string `json:"pincode,omitempty"`
	SignalHash string `json:"signalHash,omitempty"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// Key identifies a proof for caching verdicts.
func (p Proof) Key() string {
	return p.Nullifier + "|" + p.SignalHash + "|" + p.Timestamp
}

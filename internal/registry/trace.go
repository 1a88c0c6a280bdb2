package registry

import "tac_codec/internal/lexeme"

// TokenTrace records how one token was classified.
type TokenTrace struct {
	Index     int             `json:"index"`
	Token     string          `json:"token"`
	Winner    string          `json:"winner,omitempty"`
	Identity  lexeme.Identity `json:"identity"`
	Status    lexeme.Status   `json:"status"`
	Certainty float64         `json:"certainty"`
	Attempts  []Attempt       `json:"attempts,omitempty"`
}

// Attempt is one classifier tried on a token.
type Attempt struct {
	Classifier string          `json:"classifier"`
	Identity   lexeme.Identity `json:"identity"`
	Priority   int             `json:"priority"`
	QuickCheck bool            `json:"quick_check"`
	Matched    bool            `json:"matched"`
}

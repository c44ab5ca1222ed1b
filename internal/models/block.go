package models

// Block represents a sealed ledger block as it is stored and served
type Block struct {
	Index        int     `json:"index"`
	Timestamp    float64 `json:"timestamp"`
	Data         string  `json:"data"`
	PreviousHash string  `json:"previous_hash"`
	Nonce        uint64  `json:"nonce"`
	Hash         string  `json:"hash"`
}

// ChainMeta represents the persisted chain header
type ChainMeta struct {
	Difficulty    int    `json:"difficulty"`
	Height        int    `json:"height"`
	SchemaVersion string `json:"schema_version"`
}

// ValidationReport represents the outcome of a chain validation
type ValidationReport struct {
	Valid  bool   `json:"valid"`
	Index  int    `json:"index"`
	Reason string `json:"reason,omitempty"`
}

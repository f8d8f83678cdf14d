package progress

import (
	"encoding/json"
	"fmt"
)

// DepositData is the beacon-chain deposit material for one validator.
type DepositData struct {
	Pubkey          string `json:"pubkey"`
	Signature       string `json:"signature"`
	DepositDataRoot string `json:"depositDataRoot"`
}

// Metadata accumulates the outputs of each step. Fields are only ever added or
// overwritten with non-empty values. Keys this version does not know about are
// kept in Extra and written back untouched.
type Metadata struct {
	RegisterValidatorData   string       `json:"registerValidatorData,omitempty"`
	DepositData             *DepositData `json:"depositData,omitempty"`
	SharesData              string       `json:"sharesData,omitempty"`
	ValidatorRegistrationTx string       `json:"validatorRegistrationTx,omitempty"`
	DepositTx               string       `json:"depositTx,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// metadataFields is Metadata without its custom codec.
type metadataFields Metadata

var knownMetadataKeys = []string{
	"registerValidatorData",
	"depositData",
	"sharesData",
	"validatorRegistrationTx",
	"depositTx",
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	known, err := json.Marshal(metadataFields(m))
	if err != nil {
		return nil, err
	}
	if len(m.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(m.Extra)+len(knownMetadataKeys))
	for k, v := range m.Extra {
		merged[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var fields metadataFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, k := range knownMetadataKeys {
		delete(raw, k)
	}

	*m = Metadata(fields)
	if len(raw) > 0 {
		m.Extra = raw
	}
	return nil
}

// Merge returns m with every non-empty field of update applied on top.
func (m Metadata) Merge(update Metadata) Metadata {
	out := m
	if m.DepositData != nil {
		dd := *m.DepositData
		out.DepositData = &dd
	}
	if update.RegisterValidatorData != "" {
		out.RegisterValidatorData = update.RegisterValidatorData
	}
	if update.DepositData != nil {
		dd := *update.DepositData
		out.DepositData = &dd
	}
	if update.SharesData != "" {
		out.SharesData = update.SharesData
	}
	if update.ValidatorRegistrationTx != "" {
		out.ValidatorRegistrationTx = update.ValidatorRegistrationTx
	}
	if update.DepositTx != "" {
		out.DepositTx = update.DepositTx
	}
	if len(m.Extra) > 0 || len(update.Extra) > 0 {
		out.Extra = make(map[string]json.RawMessage, len(m.Extra)+len(update.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
		for k, v := range update.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Record is the persisted progress of the single in-flight spawn attempt.
type Record struct {
	RequestID  string   `json:"requestId"`
	State      State    `json:"state"`
	Metadata   Metadata `json:"metadata"`
	ErrorCount int      `json:"errorCount"`
}

// Encode serializes the record to the stored JSON form.
func (r *Record) Encode() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to encode progress record: %w", err)
	}
	return string(data), nil
}

// DecodeRecord parses a stored record and rejects unknown states.
func DecodeRecord(raw string) (*Record, error) {
	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to decode progress record: %w", err)
	}
	if !rec.State.Valid() {
		return nil, fmt.Errorf("progress record has unknown state %q", rec.State)
	}
	if rec.RequestID == "" {
		return nil, fmt.Errorf("progress record has no request id")
	}
	return &rec, nil
}

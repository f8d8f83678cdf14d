package provisioning

import "encoding/json"

// Request statuses reported by the provisioning service. Anything other than
// StatusReady means the validator is still being prepared.
const (
	StatusReady = "ready"
)

// CreateRequest asks the service to generate validators and split their keys
// across SSV operators.
type CreateRequest struct {
	ValidatorsCount       int    `json:"validatorsCount"`
	ID                    string `json:"id"`
	WithdrawalAddress     string `json:"withdrawalAddress"`
	FeeRecipientAddress   string `json:"feeRecipientAddress"`
	SSVOwnerAddress       string `json:"ssvOwnerAddress"`
	Type                  string `json:"type"`
	OperationPeriodInDays int    `json:"operationPeriodInDays"`
}

type RegistrationTx struct {
	Data string `json:"data"`
}

type DepositData struct {
	Pubkey          string `json:"pubkey"`
	Signature       string `json:"signature"`
	DepositDataRoot string `json:"depositDataRoot"`
}

type EncryptedShare struct {
	SharesData string `json:"sharesData"`
}

// StatusResult is the result object of a status poll.
type StatusResult struct {
	Status                   string           `json:"status"`
	ValidatorRegistrationTxs []RegistrationTx `json:"validatorRegistrationTxs"`
	DepositData              []DepositData    `json:"depositData"`
	EncryptedShares          []EncryptedShare `json:"encryptedShares"`
}

// Ready reports whether the validator material is available.
func (r *StatusResult) Ready() bool {
	return r != nil && r.Status == StatusReady
}

// RegistrationData returns the calldata of the first registration transaction.
func (r *StatusResult) RegistrationData() string {
	if r == nil || len(r.ValidatorRegistrationTxs) == 0 {
		return ""
	}
	return r.ValidatorRegistrationTxs[0].Data
}

// FirstDepositData returns the deposit material of the first validator.
func (r *StatusResult) FirstDepositData() *DepositData {
	if r == nil || len(r.DepositData) == 0 {
		return nil
	}
	dd := r.DepositData[0]
	return &dd
}

// SharesData returns the key shares of the first validator.
func (r *StatusResult) SharesData() string {
	if r == nil || len(r.EncryptedShares) == 0 {
		return ""
	}
	return r.EncryptedShares[0].SharesData
}

// envelope is the common response wrapper. A non-null error means the call failed.
type envelope struct {
	Error  json.RawMessage `json:"error"`
	Result json.RawMessage `json:"result"`
}

func (e *envelope) failed() bool {
	return len(e.Error) > 0 && string(e.Error) != "null"
}

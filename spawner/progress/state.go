package progress

// State is a step of the spawn sequence. States only move forward; the empty
// state means no record exists.
type State string

const (
	StateAbsent                       State = ""
	StateValidatorCreationIssued      State = "validator_creation_issued"
	StateValidatorCreationConfirmed   State = "validator_creation_confirmed"
	StateRegisterTransactionBroadcast State = "register_transaction_broadcast"
	StateValidatorRegistered          State = "validator_registered"
	StateDepositTransactionBroadcast  State = "deposit_transaction_broadcast"
	StateDepositConfirmed             State = "deposit_confirmed"
)

var stateOrder = map[State]int{
	StateAbsent:                       0,
	StateValidatorCreationIssued:      1,
	StateValidatorCreationConfirmed:   2,
	StateRegisterTransactionBroadcast: 3,
	StateValidatorRegistered:          4,
	StateDepositTransactionBroadcast:  5,
	StateDepositConfirmed:             6,
}

// States lists every persisted state in sequence order.
func States() []State {
	return []State{
		StateValidatorCreationIssued,
		StateValidatorCreationConfirmed,
		StateRegisterTransactionBroadcast,
		StateValidatorRegistered,
		StateDepositTransactionBroadcast,
		StateDepositConfirmed,
	}
}

// Valid reports whether s is a known persisted state.
func (s State) Valid() bool {
	_, ok := stateOrder[s]
	return ok && s != StateAbsent
}

// Next returns the state that directly follows s, or StateAbsent after the
// last state and for unknown states.
func (s State) Next() State {
	order, ok := stateOrder[s]
	if !ok {
		return StateAbsent
	}
	states := States()
	if order >= len(states) {
		return StateAbsent
	}
	return states[order]
}

func (s State) String() string {
	if s == StateAbsent {
		return "absent"
	}
	return string(s)
}

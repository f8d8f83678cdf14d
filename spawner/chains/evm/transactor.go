package evm

// Transactor submits NodeDelegator calls and waits for them to be mined.
type Transactor struct {
	*TxBuilder
	*ConfirmationWaiter
}

func NewTransactor(builder *TxBuilder, waiter *ConfirmationWaiter) *Transactor {
	return &Transactor{TxBuilder: builder, ConfirmationWaiter: waiter}
}

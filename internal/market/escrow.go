package market

import "math"

// Escrow is the value ledger held against a track. The balance only grows
// via Deposit and only shrinks via TakeExact, whose detached payment must be
// fully accounted to named recipients within the same operation.
type Escrow struct {
	balance uint64
}

// NewEscrow returns an escrow seeded with the given balance. Used by the
// catalog store when rehydrating a persisted track.
func NewEscrow(balance uint64) Escrow {
	return Escrow{balance: balance}
}

// Deposit increases the balance. The only failure is uint64 overflow, which
// would otherwise wrap silently and break value conservation.
func (e *Escrow) Deposit(amount uint64) error {
	if amount > math.MaxUint64-e.balance {
		return Wrap(ErrDepositOverflow, "deposit", "amount overflows escrow balance")
	}
	e.balance += amount
	return nil
}

// Value returns the current balance without side effects.
func (e *Escrow) Value() uint64 {
	return e.balance
}

// TakeExact detaches amount from the escrow. The returned payment must be
// consumed exactly once via PayTo or Split; the caller may not drop it.
func (e *Escrow) TakeExact(amount uint64) (*Payment, error) {
	if amount > e.balance {
		return nil, Wrap(ErrInsufficientFunds, "take", "requested amount exceeds escrow balance")
	}
	e.balance -= amount
	return &Payment{amount: amount}, nil
}

// Payment is a detached value unit produced by TakeExact. It is consumed by
// transferring it to a recipient or splitting it; a spent payment cannot be
// reused.
type Payment struct {
	amount uint64
	spent  bool
}

// Amount returns the value carried by the payment.
func (p *Payment) Amount() uint64 {
	return p.amount
}

// PayTo consumes the payment, producing the transfer that moves its value
// to the recipient account.
func (p *Payment) PayTo(recipient Identity) (Transfer, error) {
	if p.spent {
		return Transfer{}, Wrap(ErrPaymentSpent, "pay", "payment was already consumed")
	}
	p.spent = true
	return Transfer{To: recipient, Amount: p.amount}, nil
}

// Split carves amount off the payment into a new detached payment, leaving
// the remainder in place. The two amounts always sum to the original.
func (p *Payment) Split(amount uint64) (*Payment, error) {
	if p.spent {
		return nil, Wrap(ErrPaymentSpent, "split", "payment was already consumed")
	}
	if amount > p.amount {
		return nil, Wrap(ErrInsufficientFunds, "split", "requested amount exceeds payment value")
	}
	p.amount -= amount
	return &Payment{amount: amount}, nil
}

// Transfer names the recipient of a consumed payment. The store credits the
// recipient account and appends the audit ledger entry when it commits the
// operation that produced the transfer.
type Transfer struct {
	To     Identity
	Amount uint64
}

package wallet

import "time"

// Wallet holds a user's stored value. Balance and LockedBalance are minor
// currency units. LockedBalance never exceeds Balance and never goes
// negative.
type Wallet struct {
	ID            string
	UserID        string
	Balance       int64
	LockedBalance int64
	UpdatedAt     time.Time
}

// Available is the amount eligible for new locks.
func (w Wallet) Available() int64 {
	return w.Balance - w.LockedBalance
}

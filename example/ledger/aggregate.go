package main

import (
	"fmt"

	cosmo "github.com/halldorsson/cosmostore"
)

// AccountState is the Account aggregate's folded state.
type AccountState struct {
	ID      string
	Owner   string
	Balance int64
	Opened  bool
}

// accountAggregate implements cosmo.Aggregate for the Account stream:
// a pure (init, apply, execute) triple with no storage concerns of
// its own.
type accountAggregate struct{}

func (accountAggregate) Init() AccountState {
	return AccountState{}
}

func (accountAggregate) Apply(s AccountState, e AccountEvent) AccountState {
	switch {
	case e.Opened != nil:
		s.ID = e.Opened.AccountID
		s.Owner = e.Opened.Owner
		s.Balance = e.Opened.Initial
		s.Opened = true
	case e.Deposited != nil:
		s.Balance += e.Deposited.Amount
	}
	return s
}

func (accountAggregate) Execute(s AccountState, cmd any) ([]AccountEvent, error) {
	switch c := cmd.(type) {
	case OpenAccountCommand:
		if s.Opened {
			return nil, fmt.Errorf("account already opened")
		}
		if c.AccountID == "" {
			return nil, fmt.Errorf("empty account id")
		}
		if c.Initial < 0 {
			return nil, fmt.Errorf("initial balance cannot be negative")
		}
		return []AccountEvent{{Opened: &AccountOpened{AccountID: c.AccountID, Owner: c.Owner, Initial: c.Initial}}}, nil

	case DepositCommand:
		if !s.Opened {
			return nil, fmt.Errorf("account not opened")
		}
		if c.Amount <= 0 {
			return nil, fmt.Errorf("invalid deposit amount")
		}
		return []AccountEvent{{Deposited: &MoneyDeposited{Amount: c.Amount}}}, nil
	}

	return nil, fmt.Errorf("unknown command type %T", cmd)
}

var _ cosmo.Aggregate[AccountState, any, AccountEvent] = accountAggregate{}

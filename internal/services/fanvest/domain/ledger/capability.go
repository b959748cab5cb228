package ledger

// Capability is a ledger handle bound to one caller account. Every call is
// checked against the ledger allow-lists as that account.
type Capability struct {
	ledger  *Ledger
	account Account
}

// Account returns the account the capability acts as.
func (c Capability) Account() Account {
	return c.account
}

// Mint credits to as the bound account.
func (c Capability) Mint(to Account, value uint64, reason string) error {
	return c.ledger.Mint(c.account, to, value, reason)
}

// Burn debits from as the bound account.
func (c Capability) Burn(from Account, value uint64, reason string) error {
	return c.ledger.Burn(c.account, from, value, reason)
}

// Transfer moves value between accounts as the bound account.
func (c Capability) Transfer(from, to Account, value uint64, reason string) error {
	return c.ledger.Transfer(c.account, from, to, value, reason)
}

// BalanceOf returns the balance of account.
func (c Capability) BalanceOf(account Account) uint64 {
	return c.ledger.BalanceOf(account)
}

// TotalSupply returns the ledger supply.
func (c Capability) TotalSupply() uint64 {
	return c.ledger.TotalSupply()
}

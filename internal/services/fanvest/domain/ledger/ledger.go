package ledger

import (
	"strings"

	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/amount"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/event"
)

// Account identifies a ledger holder: a person or a component.
type Account string

// Valid reports whether the account is non-empty.
func (a Account) Valid() bool {
	return strings.TrimSpace(string(a)) != ""
}

// Role names an allow-list on the ledger.
type Role string

const (
	RoleMinter   Role = "minter"
	RoleBurner   Role = "burner"
	RoleOperator Role = "operator"
)

const (
	eventTypeMinted               event.Type = "ledger.minted"
	eventTypeBurned               event.Type = "ledger.burned"
	eventTypeTransferred          event.Type = "ledger.transferred"
	eventTypeRoleGranted          event.Type = "ledger.role_granted"
	eventTypeRoleRevoked          event.Type = "ledger.role_revoked"
	eventTypeOwnershipTransferred event.Type = "ledger.ownership_transferred"
)

// State is the persisted ledger book.
type State struct {
	Name      string             `json:"name"`
	Owner     Account            `json:"owner"`
	Balances  map[Account]uint64 `json:"balances"`
	Supply    uint64             `json:"supply"`
	Minters   map[Account]bool   `json:"minters"`
	Burners   map[Account]bool   `json:"burners"`
	Operators map[Account]bool   `json:"operators"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	out.Balances = cloneMap(s.Balances)
	out.Minters = cloneMap(s.Minters)
	out.Burners = cloneMap(s.Burners)
	out.Operators = cloneMap(s.Operators)
	return out
}

func cloneMap[V any](in map[Account]V) map[Account]V {
	out := make(map[Account]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Ledger is the in-memory fund ledger.
type Ledger struct {
	state    State
	recorder event.Recorder
}

// New creates an empty ledger owned by owner.
func New(name string, owner Account) *Ledger {
	return &Ledger{state: State{
		Name:      name,
		Owner:     owner,
		Balances:  map[Account]uint64{},
		Minters:   map[Account]bool{},
		Burners:   map[Account]bool{},
		Operators: map[Account]bool{},
	}}
}

// SetRecorder routes ledger events to r.
func (l *Ledger) SetRecorder(r event.Recorder) {
	l.recorder = r
}

// State returns a copy of the ledger state.
func (l *Ledger) State() State {
	return l.state.Clone()
}

// Restore replaces the ledger state with a copy of s.
func (l *Ledger) Restore(s State) {
	l.state = s.Clone()
	if l.state.Balances == nil {
		l.state.Balances = map[Account]uint64{}
	}
	if l.state.Minters == nil {
		l.state.Minters = map[Account]bool{}
	}
	if l.state.Burners == nil {
		l.state.Burners = map[Account]bool{}
	}
	if l.state.Operators == nil {
		l.state.Operators = map[Account]bool{}
	}
}

// Name returns the ledger name.
func (l *Ledger) Name() string {
	return l.state.Name
}

// Owner returns the ledger owner.
func (l *Ledger) Owner() Account {
	return l.state.Owner
}

// BalanceOf returns the balance of account.
func (l *Ledger) BalanceOf(account Account) uint64 {
	return l.state.Balances[account]
}

// TotalSupply returns the sum of all balances.
func (l *Ledger) TotalSupply() uint64 {
	return l.state.Supply
}

// Balances returns a copy of every non-zero balance.
func (l *Ledger) Balances() map[Account]uint64 {
	return cloneMap(l.state.Balances)
}

// Has reports whether account holds role.
func (l *Ledger) Has(role Role, account Account) bool {
	switch role {
	case RoleMinter:
		return l.state.Minters[account]
	case RoleBurner:
		return l.state.Burners[account]
	case RoleOperator:
		return l.state.Operators[account]
	default:
		return false
	}
}

// Mint credits amount to to. Only minters may mint. A zero amount is a no-op.
func (l *Ledger) Mint(caller, to Account, value uint64, reason string) error {
	if !l.state.Minters[caller] {
		return ErrNotMinter
	}
	if !to.Valid() {
		return ErrAccountRequired
	}
	if value == 0 {
		return nil
	}
	supply, err := amount.Add(l.state.Supply, value)
	if err != nil {
		return err
	}
	l.state.Supply = supply
	l.state.Balances[to] += value
	event.Emit(l.recorder, event.New(eventTypeMinted, "ledger", l.state.Name, transferPayload{
		To: to, Amount: value, Reason: reason, Caller: caller,
	}))
	return nil
}

// Burn debits amount from from. Only burners may burn.
func (l *Ledger) Burn(caller, from Account, value uint64, reason string) error {
	if !l.state.Burners[caller] {
		return ErrNotBurner
	}
	if value == 0 {
		return nil
	}
	if l.state.Balances[from] < value {
		return ErrInsufficientBalance
	}
	l.debit(from, value)
	l.state.Supply -= value
	event.Emit(l.recorder, event.New(eventTypeBurned, "ledger", l.state.Name, transferPayload{
		From: from, Amount: value, Reason: reason, Caller: caller,
	}))
	return nil
}

// Transfer moves amount between accounts. The caller must be the source
// account or an operator.
func (l *Ledger) Transfer(caller, from, to Account, value uint64, reason string) error {
	if caller != from && !l.state.Operators[caller] {
		return ErrNotOperator
	}
	if !to.Valid() || !from.Valid() {
		return ErrAccountRequired
	}
	if value == 0 || from == to {
		return nil
	}
	if l.state.Balances[from] < value {
		return ErrInsufficientBalance
	}
	l.debit(from, value)
	l.state.Balances[to] += value
	event.Emit(l.recorder, event.New(eventTypeTransferred, "ledger", l.state.Name, transferPayload{
		From: from, To: to, Amount: value, Reason: reason, Caller: caller,
	}))
	return nil
}

func (l *Ledger) debit(account Account, value uint64) {
	remaining := l.state.Balances[account] - value
	if remaining == 0 {
		delete(l.state.Balances, account)
		return
	}
	l.state.Balances[account] = remaining
}

// Grant adds account to the role allow-list. Owner only.
func (l *Ledger) Grant(caller Account, role Role, account Account) error {
	set, err := l.roleSet(caller, role, account)
	if err != nil {
		return err
	}
	set[account] = true
	event.Emit(l.recorder, event.New(eventTypeRoleGranted, "ledger", l.state.Name, rolePayload{Role: role, Account: account}))
	return nil
}

// Revoke removes account from the role allow-list. Owner only.
func (l *Ledger) Revoke(caller Account, role Role, account Account) error {
	set, err := l.roleSet(caller, role, account)
	if err != nil {
		return err
	}
	delete(set, account)
	event.Emit(l.recorder, event.New(eventTypeRoleRevoked, "ledger", l.state.Name, rolePayload{Role: role, Account: account}))
	return nil
}

// AddMinter grants the minter role.
func (l *Ledger) AddMinter(caller, account Account) error { return l.Grant(caller, RoleMinter, account) }

// RemoveMinter revokes the minter role.
func (l *Ledger) RemoveMinter(caller, account Account) error {
	return l.Revoke(caller, RoleMinter, account)
}

// AddBurner grants the burner role.
func (l *Ledger) AddBurner(caller, account Account) error { return l.Grant(caller, RoleBurner, account) }

// RemoveBurner revokes the burner role.
func (l *Ledger) RemoveBurner(caller, account Account) error {
	return l.Revoke(caller, RoleBurner, account)
}

func (l *Ledger) roleSet(caller Account, role Role, account Account) (map[Account]bool, error) {
	if caller != l.state.Owner {
		return nil, ErrNotOwner
	}
	if !account.Valid() {
		return nil, ErrAccountRequired
	}
	switch role {
	case RoleMinter:
		return l.state.Minters, nil
	case RoleBurner:
		return l.state.Burners, nil
	case RoleOperator:
		return l.state.Operators, nil
	default:
		return nil, ErrAccountRequired
	}
}

// TransferOwnership hands the owner role to next.
func (l *Ledger) TransferOwnership(caller, next Account) error {
	if caller != l.state.Owner {
		return ErrNotOwner
	}
	if !next.Valid() {
		return ErrAccountRequired
	}
	l.state.Owner = next
	event.Emit(l.recorder, event.New(eventTypeOwnershipTransferred, "ledger", l.state.Name, ownershipPayload{From: caller, To: next}))
	return nil
}

// For returns a capability acting as account.
func (l *Ledger) For(account Account) Capability {
	return Capability{ledger: l, account: account}
}

type transferPayload struct {
	From   Account `json:"from,omitempty"`
	To     Account `json:"to,omitempty"`
	Amount uint64  `json:"amount"`
	Reason string  `json:"reason,omitempty"`
	Caller Account `json:"caller"`
}

type rolePayload struct {
	Role    Role    `json:"role"`
	Account Account `json:"account"`
}

type ownershipPayload struct {
	From Account `json:"from"`
	To   Account `json:"to"`
}

package ledger

import (
	"testing"

	apperrors "github.com/louisbranch/fanvest/internal/platform/errors"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/event"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l := New("token", "owner")
	if err := l.AddMinter("owner", "raise"); err != nil {
		t.Fatalf("add minter: %v", err)
	}
	if err := l.AddBurner("owner", "governance"); err != nil {
		t.Fatalf("add burner: %v", err)
	}
	return l
}

func TestMintRequiresMinter(t *testing.T) {
	l := newTestLedger(t)

	if err := l.Mint("mallory", "mallory", 10, "free"); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("Mint() error = %v, want unauthorized", err)
	}
	if err := l.For("raise").Mint("alice", 10, "claim"); err != nil {
		t.Fatalf("Mint() error = %v", err)
	}
	if got := l.BalanceOf("alice"); got != 10 {
		t.Fatalf("BalanceOf(alice) = %d, want 10", got)
	}
	if got := l.TotalSupply(); got != 10 {
		t.Fatalf("TotalSupply() = %d, want 10", got)
	}
}

func TestBurn(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Mint("raise", "alice", 10, "claim"); err != nil {
		t.Fatalf("mint: %v", err)
	}

	tests := []struct {
		name   string
		caller Account
		amount uint64
		code   apperrors.Code
	}{
		{name: "not burner", caller: "raise", amount: 1, code: apperrors.CodeUnauthorized},
		{name: "above balance", caller: "governance", amount: 11, code: apperrors.CodeInsufficientBalance},
		{name: "ok", caller: "governance", amount: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := l.Burn(tt.caller, "alice", tt.amount, "deposit")
			if tt.code == "" {
				if err != nil {
					t.Fatalf("Burn() error = %v", err)
				}
				return
			}
			if got := apperrors.CodeOf(err); got != tt.code {
				t.Fatalf("Burn() code = %q, want %q", got, tt.code)
			}
		})
	}
	if got := l.BalanceOf("alice"); got != 6 {
		t.Fatalf("BalanceOf(alice) = %d, want 6", got)
	}
	if got := l.TotalSupply(); got != 6 {
		t.Fatalf("TotalSupply() = %d, want 6", got)
	}
}

func TestTransferRequiresSourceOrOperator(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Mint("raise", "alice", 10, "seed"); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := l.Transfer("bob", "alice", "bob", 5, "steal"); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("Transfer() error = %v, want unauthorized", err)
	}
	if err := l.Transfer("alice", "alice", "bob", 3, "gift"); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	if err := l.Grant("owner", RoleOperator, "vesting"); err != nil {
		t.Fatalf("grant operator: %v", err)
	}
	if err := l.For("vesting").Transfer("alice", "carol", 7, "pull"); err != nil {
		t.Fatalf("operator Transfer() error = %v", err)
	}
	if err := l.Transfer("alice", "alice", "bob", 1, "empty"); !apperrors.HasCode(err, apperrors.CodeInsufficientBalance) {
		t.Fatalf("Transfer() error = %v, want insufficient balance", err)
	}
	if l.BalanceOf("bob") != 3 || l.BalanceOf("carol") != 7 || l.BalanceOf("alice") != 0 {
		t.Fatalf("unexpected balances: %v", l.Balances())
	}
	if got := l.TotalSupply(); got != 10 {
		t.Fatalf("TotalSupply() = %d, want 10", got)
	}
}

func TestAllowListsAreOwnerGated(t *testing.T) {
	l := newTestLedger(t)

	if err := l.AddMinter("raise", "mallory"); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("AddMinter() error = %v, want unauthorized", err)
	}
	if err := l.RemoveMinter("owner", "raise"); err != nil {
		t.Fatalf("RemoveMinter() error = %v", err)
	}
	if l.Has(RoleMinter, "raise") {
		t.Fatal("expected raise to lose minter role")
	}
	if err := l.TransferOwnership("owner", "dao"); err != nil {
		t.Fatalf("TransferOwnership() error = %v", err)
	}
	if err := l.AddMinter("owner", "raise"); !apperrors.HasCode(err, apperrors.CodeUnauthorized) {
		t.Fatalf("AddMinter() by old owner error = %v, want unauthorized", err)
	}
	if err := l.AddMinter("dao", "raise"); err != nil {
		t.Fatalf("AddMinter() by new owner error = %v", err)
	}
}

func TestRestoreIsolatesState(t *testing.T) {
	l := newTestLedger(t)
	if err := l.Mint("raise", "alice", 10, "seed"); err != nil {
		t.Fatalf("mint: %v", err)
	}
	checkpoint := l.State()
	if err := l.Mint("raise", "alice", 5, "more"); err != nil {
		t.Fatalf("mint: %v", err)
	}
	l.Restore(checkpoint)
	if got := l.BalanceOf("alice"); got != 10 {
		t.Fatalf("BalanceOf(alice) after restore = %d, want 10", got)
	}
	checkpoint.Balances["alice"] = 99
	if got := l.BalanceOf("alice"); got != 10 {
		t.Fatalf("restored ledger shares map with checkpoint: %d", got)
	}
}

func TestLedgerRecordsEvents(t *testing.T) {
	l := newTestLedger(t)
	var buf event.Buffer
	l.SetRecorder(&buf)

	if err := l.Mint("raise", "alice", 10, "claim"); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := l.Mint("raise", "alice", 0, "noop"); err != nil {
		t.Fatalf("zero mint: %v", err)
	}
	events := buf.Drain()
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Type != eventTypeMinted || events[0].EntityID != "token" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

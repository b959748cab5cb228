package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	apperrors "github.com/louisbranch/fanvest/internal/platform/errors"
	"github.com/louisbranch/fanvest/internal/platform/requestctx"
	"github.com/louisbranch/fanvest/internal/platform/telemetry"
	"github.com/louisbranch/fanvest/internal/platform/telemetry/metrics"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/event"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/governance"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/ledger"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/liquidity"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/raise"
	"github.com/louisbranch/fanvest/internal/services/fanvest/domain/vesting"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage"
	"github.com/louisbranch/fanvest/internal/services/fanvest/storage/integrity"
)

// Ledger names.
const (
	TokenLedger   = "token"
	CapitalLedger = "capital"
)

// Options configure a Protocol.
type Options struct {
	InstanceID string
	// Owner administers every component and mints capital deposits.
	Owner ledger.Account
	// Entity receives the immediate bucket and milestone releases.
	Entity              ledger.Account
	Governance          governance.Config
	BeneficiaryShareBps uint32
	AutoOpenVotes       bool
	// Venue defaults to an in-memory pool.
	Venue liquidity.Venue
	// Store is optional; without it the protocol keeps state in memory only.
	Store storage.Store
	// Keyring verifies the journal chain signatures.
	Keyring *integrity.Keyring
	Clock   clockwork.Clock
	Logger  *slog.Logger
}

// Protocol is the composed fundraise, vesting and governance system.
type Protocol struct {
	mu sync.Mutex

	instanceID string
	owner      ledger.Account
	clock      clockwork.Clock
	logger     *slog.Logger
	store      storage.Store
	keyring    *integrity.Keyring
	venue      liquidity.Venue

	tokens  *ledger.Ledger
	capital *ledger.Ledger
	raise   *raise.Controller
	vesting *vesting.Escrow
	gov     *governance.Engine

	buffer  *event.Buffer
	lastSeq uint64
}

// snapshotState is the serialized form of every component.
type snapshotState struct {
	Tokens     ledger.State     `json:"tokens"`
	Capital    ledger.State     `json:"capital"`
	Raise      raise.State      `json:"raise"`
	Vesting    vesting.State    `json:"vesting"`
	Governance governance.State `json:"governance"`
}

// New builds the protocol. With a store it restores the latest snapshot, or
// journals the genesis setup when the instance is new.
func New(ctx context.Context, opts Options) (*Protocol, error) {
	opts.InstanceID = strings.TrimSpace(opts.InstanceID)
	if opts.InstanceID == "" {
		return nil, fmt.Errorf("instance id is required")
	}
	if !opts.Owner.Valid() || !opts.Entity.Valid() {
		return nil, fmt.Errorf("owner and entity accounts are required")
	}
	if err := opts.Governance.Validate(); err != nil {
		return nil, fmt.Errorf("governance config: %w", err)
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Venue == nil {
		opts.Venue = liquidity.NewMemory(opts.InstanceID + "-pool")
	}

	p := &Protocol{
		instanceID: opts.InstanceID,
		owner:      opts.Owner,
		clock:      opts.Clock,
		logger:     opts.Logger.With("instance", opts.InstanceID),
		store:      opts.Store,
		keyring:    opts.Keyring,
		venue:      opts.Venue,
		buffer:     &event.Buffer{},
	}
	if err := p.compose(opts); err != nil {
		return nil, err
	}

	if p.store == nil {
		p.buffer.Drain()
		return p, nil
	}
	restored, err := p.restoreSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if restored {
		p.buffer.Drain()
		return p, nil
	}
	if err := p.commit(ctx, p.clock.Now(), uuid.NewString(), opts.Owner); err != nil {
		return nil, fmt.Errorf("journal genesis: %w", err)
	}
	return p, nil
}

// compose wires the components and grants the protocol roles.
func (p *Protocol) compose(opts Options) error {
	owner := opts.Owner
	p.tokens = ledger.New(TokenLedger, owner)
	p.capital = ledger.New(CapitalLedger, owner)
	p.tokens.SetRecorder(p.buffer)
	p.capital.SetRecorder(p.buffer)

	p.vesting = vesting.New(owner, opts.Entity, vesting.Options{
		Governance:          governance.Account,
		BeneficiaryShareBps: opts.BeneficiaryShareBps,
		AutoOpenVotes:       opts.AutoOpenVotes,
	}, vesting.Deps{
		Capital:  p.capital.For(vesting.Account),
		Tokens:   p.tokens.For(vesting.Account),
		Recorder: p.buffer,
	})
	p.gov = governance.New(owner, vesting.Account, opts.Governance,
		[]ledger.Account{raise.Account, raise.LiquidityAccount, vesting.Account, governance.Account},
		governance.Deps{
			Tokens:   p.tokens.For(governance.Account),
			Escrow:   p.vesting,
			Recorder: p.buffer,
		})
	p.vesting.SetVoteOpener(p.gov)
	p.raise = raise.New(owner, opts.Entity, raise.Deps{
		Tokens:   p.tokens.For(raise.Account),
		Capital:  p.capital.For(raise.Account),
		Vesting:  p.vesting,
		Venue:    opts.Venue,
		Recorder: p.buffer,
	})

	grants := []error{
		p.tokens.AddMinter(owner, raise.Account),
		p.tokens.AddMinter(owner, vesting.Account),
		p.tokens.AddMinter(owner, governance.Account),
		p.tokens.AddBurner(owner, governance.Account),
		p.capital.AddMinter(owner, owner),
		p.capital.Grant(owner, ledger.RoleOperator, raise.Account),
		p.capital.Grant(owner, ledger.RoleOperator, vesting.Account),
		p.vesting.AddInitializer(owner, raise.Account),
	}
	if err := errors.Join(grants...); err != nil {
		return fmt.Errorf("grant protocol roles: %w", err)
	}
	return nil
}

func (p *Protocol) checkpoint() snapshotState {
	return snapshotState{
		Tokens:     p.tokens.State(),
		Capital:    p.capital.State(),
		Raise:      p.raise.State(),
		Vesting:    p.vesting.State(),
		Governance: p.gov.State(),
	}
}

func (p *Protocol) restore(s snapshotState) {
	p.tokens.Restore(s.Tokens)
	p.capital.Restore(s.Capital)
	p.raise.Restore(s.Raise)
	p.vesting.Restore(s.Vesting)
	p.gov.Restore(s.Governance)
}

func (p *Protocol) restoreSnapshot(ctx context.Context) (bool, error) {
	snap, err := p.store.GetSnapshot(ctx, p.instanceID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load snapshot: %w", err)
	}
	var state snapshotState
	if err := json.Unmarshal(snap.StateJSON, &state); err != nil {
		return false, fmt.Errorf("decode snapshot: %w", err)
	}
	p.restore(state)
	p.lastSeq = snap.EventSeq

	headSeq, _, err := p.store.Head(ctx, p.instanceID)
	if err != nil {
		return false, fmt.Errorf("load journal head: %w", err)
	}
	if headSeq != snap.EventSeq {
		p.logger.Warn("snapshot behind journal", "snapshot_seq", snap.EventSeq, "journal_seq", headSeq)
	}
	p.logger.Info("state restored", "event_seq", snap.EventSeq)
	p.publishBalances()
	return true, nil
}

// run executes op under the protocol lock with checkpoint and rollback.
func (p *Protocol) run(ctx context.Context, op string, actor ledger.Account, fn func(ctx context.Context, now time.Time) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	started := time.Now()
	ctx, span := telemetry.StartOperation(ctx, op, string(actor))
	requestID := requestctx.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	now := p.clock.Now()
	cp := p.checkpoint()
	p.buffer.Drain()

	err := fn(ctx, now)
	if err == nil {
		err = p.commit(ctx, now, requestID, actor)
	}
	if err != nil {
		p.restore(cp)
		p.buffer.Drain()
	}

	p.observe(op, actor, requestID, err, time.Since(started))
	telemetry.EndOperation(span, err)
	return err
}

// commit journals the buffered events and refreshes the snapshot. The journal
// append is the commit point: a snapshot failure afterwards is logged and
// repaired by the next accepted operation.
func (p *Protocol) commit(ctx context.Context, now time.Time, requestID string, actor ledger.Account) error {
	events := p.buffer.Drain()
	for i := range events {
		events[i].InstanceID = p.instanceID
		events[i].Timestamp = now
		events[i].RequestID = requestID
		events[i].ActorID = string(actor)
		if events[i].Type == raise.EventTypeLiquidityDeferred {
			p.logger.Warn("liquidity seeding deferred", "request_id", requestID, "payload", string(events[i].PayloadJSON))
		}
	}
	if p.store != nil && len(events) > 0 {
		stored, err := p.store.AppendEvents(ctx, p.instanceID, events)
		if err != nil {
			return fmt.Errorf("append events: %w", err)
		}
		p.lastSeq = stored[len(stored)-1].Seq
		if err := p.saveSnapshot(ctx, now); err != nil {
			p.logger.Error("snapshot save failed", "request_id", requestID, "event_seq", p.lastSeq, "error", err)
		}
	}
	p.publishBalances()
	return nil
}

func (p *Protocol) saveSnapshot(ctx context.Context, now time.Time) error {
	data, err := json.Marshal(p.checkpoint())
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return p.store.PutSnapshot(ctx, storage.Snapshot{
		InstanceID: p.instanceID,
		EventSeq:   p.lastSeq,
		StateJSON:  data,
		CreatedAt:  now,
	})
}

func (p *Protocol) observe(op string, actor ledger.Account, requestID string, err error, elapsed time.Duration) {
	switch {
	case err == nil:
		metrics.RecordOperation(op, "accepted", "", elapsed)
		p.logger.Debug("operation accepted", "op", op, "actor", string(actor), "request_id", requestID)
	case apperrors.CodeOf(err) == apperrors.CodeUnknown:
		metrics.RecordOperation(op, "failed", string(apperrors.CodeUnknown), elapsed)
		p.logger.Error("operation failed", "op", op, "actor", string(actor), "request_id", requestID, "error", err)
	default:
		code := apperrors.CodeOf(err)
		metrics.RecordOperation(op, "rejected", string(code), elapsed)
		p.logger.Info("operation rejected", "op", op, "actor", string(actor), "request_id", requestID, "code", string(code))
	}
}

func (p *Protocol) publishBalances() {
	st := p.raise.State()
	vs := p.vesting.State()
	metrics.SetBalances(metrics.Snapshot{
		TotalRaised:      st.TotalRaised,
		Contributors:     len(st.Order),
		LiquidityOwed:    st.LiquidityOwed,
		CapitalReleased:  vs.CapitalReleased,
		CapitalRemaining: vs.CapitalRemaining(),
	})
}

// InstanceID returns the journal instance id.
func (p *Protocol) InstanceID() string {
	return p.instanceID
}

// Now returns the protocol clock time.
func (p *Protocol) Now() time.Time {
	return p.clock.Now()
}

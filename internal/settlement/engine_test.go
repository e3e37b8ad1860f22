package settlement

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"github.com/nice1-blockchain/nice1swapper/internal/domain"
	"github.com/nice1-blockchain/nice1swapper/internal/ledger"
	"github.com/nice1-blockchain/nice1swapper/internal/ledger/stub"
	"github.com/nice1-blockchain/nice1swapper/internal/storage/memory"
)

const selfAccount = "swapengine"

func toka(amount int64) domain.Asset {
	return domain.Asset{Amount: amount, Symbol: domain.Symbol{Code: "TOKA", Precision: 4}}
}

func tokb(amount int64) domain.Asset {
	return domain.Asset{Amount: amount, Symbol: domain.Symbol{Code: "TOKB", Precision: 4}}
}

// offer: receive 10.0000 TOKA via tokaissuer, send 5.0000 TOKB via
// tokbissuer, memo key 42, active.
func activeOffer() *domain.SwapOffer {
	return &domain.SwapOffer{
		Ref:               "swapone",
		Owner:             "alice",
		ReceivingContract: "tokaissuer",
		ReceivingAsset:    toka(100000),
		SendingContract:   "tokbissuer",
		SendingAsset:      tokb(50000),
		MemoKey:           42,
		Active:            true,
		CreatedAt:         1704067200000,
	}
}

func matchingNotice() domain.TransferNotice {
	return domain.TransferNotice{
		From:           "bob",
		To:             selfAccount,
		Quantity:       toka(100000),
		Memo:           "42",
		SourceContract: "tokaissuer",
	}
}

type engineFixture struct {
	engine  *Engine
	offers  *memory.OfferStore
	ledger  *stub.Ledger
	journal *memory.JournalStore
}

func newFixture(t *testing.T, offers ...*domain.SwapOffer) *engineFixture {
	t.Helper()

	store := memory.NewOfferStore()
	for _, o := range offers {
		if err := store.Insert(context.Background(), o); err != nil {
			t.Fatalf("Insert offer failed: %v", err)
		}
	}

	ldg := stub.NewLedger()
	// Fund the engine with plenty of the sending asset.
	ldg.Credit(selfAccount, "tokbissuer", tokb(1000000))

	journal := memory.NewJournalStore()
	engine := NewEngine(EngineOptions{
		Self:    selfAccount,
		Offers:  store,
		Ledger:  ldg,
		Journal: journal,
		Logger:  log.New(io.Discard, "", 0),
		Now:     func() int64 { return 1704067300000 },
	})
	return &engineFixture{engine: engine, offers: store, ledger: ldg, journal: journal}
}

func (f *engineFixture) lastJournalEntry(t *testing.T) *domain.SettlementRecord {
	t.Helper()
	recs, err := f.journal.GetByTimeRange(context.Background(), 0, 1<<62)
	if err != nil {
		t.Fatalf("GetByTimeRange failed: %v", err)
	}
	if len(recs) == 0 {
		t.Fatal("Journal is empty")
	}
	return recs[len(recs)-1]
}

func TestOnTransfer_Settles(t *testing.T) {
	f := newFixture(t, activeOffer())
	ctx := context.Background()

	if err := f.engine.OnTransfer(ctx, matchingNotice()); err != nil {
		t.Fatalf("OnTransfer failed: %v", err)
	}

	cmds := f.ledger.Commands()
	if len(cmds) != 1 {
		t.Fatalf("Expected exactly 1 outbound transfer, got %d", len(cmds))
	}
	cmd := cmds[0]
	if cmd.Contract != "tokbissuer" {
		t.Errorf("Outbound contract = %s, want tokbissuer", cmd.Contract)
	}
	if cmd.From != selfAccount || cmd.To != "bob" {
		t.Errorf("Outbound %s -> %s, want %s -> bob", cmd.From, cmd.To, selfAccount)
	}
	if !cmd.Quantity.Equal(tokb(50000)) {
		t.Errorf("Outbound quantity = %s, want 5.0000 TOKB", cmd.Quantity)
	}
	if cmd.Memo != DefaultAckMemo {
		t.Errorf("Outbound memo = %q, want %q", cmd.Memo, DefaultAckMemo)
	}

	rec := f.lastJournalEntry(t)
	if rec.Outcome != domain.SettlementOutcomeSettled {
		t.Errorf("Journal outcome = %s, want settled", rec.Outcome)
	}
	if rec.Ref != "swapone" || rec.MemoKey != 42 {
		t.Errorf("Journal offer fields = %s/%d, want swapone/42", rec.Ref, rec.MemoKey)
	}
}

func TestOnTransfer_RegistryUnchangedAfterSettle(t *testing.T) {
	f := newFixture(t, activeOffer())
	ctx := context.Background()

	if err := f.engine.OnTransfer(ctx, matchingNotice()); err != nil {
		t.Fatalf("OnTransfer failed: %v", err)
	}

	got, err := f.offers.GetByRef(ctx, "swapone")
	if err != nil {
		t.Fatalf("GetByRef failed: %v", err)
	}
	if !got.Active {
		t.Error("Offer must stay active after settlement")
	}
}

func TestOnTransfer_RepeatableFill(t *testing.T) {
	f := newFixture(t, activeOffer())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := f.engine.OnTransfer(ctx, matchingNotice()); err != nil {
			t.Fatalf("Fill %d failed: %v", i+1, err)
		}
	}

	if got := len(f.ledger.Commands()); got != 3 {
		t.Errorf("Expected 3 outbound transfers, got %d", got)
	}
	// Each fill pays the full sending quantity.
	if bal := f.ledger.Balance("bob", "tokbissuer", tokb(0).Symbol); bal != 150000 {
		t.Errorf("bob's TOKB balance = %d, want 150000", bal)
	}
}

func TestOnTransfer_IgnoresOtherDestination(t *testing.T) {
	f := newFixture(t, activeOffer())
	ctx := context.Background()

	n := matchingNotice()
	n.To = "someoneelse"
	if err := f.engine.OnTransfer(ctx, n); err != nil {
		t.Fatalf("Transfers to other accounts must be ignored, got %v", err)
	}

	if got := len(f.ledger.Commands()); got != 0 {
		t.Errorf("Expected no outbound transfers, got %d", got)
	}
	if recs, _ := f.journal.GetByTimeRange(ctx, 0, 1<<62); len(recs) != 0 {
		t.Errorf("Ignored notices must not be journaled, got %d entries", len(recs))
	}
}

func TestOnTransfer_InvalidMemoFormat(t *testing.T) {
	f := newFixture(t, activeOffer())
	ctx := context.Background()

	for _, memo := range []string{"", "please", "-1", "+42", " 42", "42 ", "4.2", "18446744073709551616"} {
		n := matchingNotice()
		n.Memo = memo
		if err := f.engine.OnTransfer(ctx, n); !errors.Is(err, ErrInvalidMemoFormat) {
			t.Errorf("Memo %q: expected ErrInvalidMemoFormat, got %v", memo, err)
		}
	}

	if got := len(f.ledger.Commands()); got != 0 {
		t.Errorf("Expected no outbound transfers, got %d", got)
	}
}

func TestOnTransfer_NoMatchingOffer(t *testing.T) {
	f := newFixture(t, activeOffer())

	n := matchingNotice()
	n.Memo = "43"
	err := f.engine.OnTransfer(context.Background(), n)
	if !errors.Is(err, ErrMemoMismatch) {
		t.Fatalf("Expected ErrMemoMismatch, got %v", err)
	}
}

func TestOnTransfer_NonCanonicalMemo(t *testing.T) {
	f := newFixture(t, activeOffer())

	// "042" parses to key 42 but is not the canonical rendering, so it
	// must not settle the offer registered under "42".
	n := matchingNotice()
	n.Memo = "042"
	err := f.engine.OnTransfer(context.Background(), n)
	if !errors.Is(err, ErrMemoMismatch) {
		t.Fatalf("Expected ErrMemoMismatch for non-canonical memo, got %v", err)
	}
	if got := len(f.ledger.Commands()); got != 0 {
		t.Errorf("Expected no outbound transfers, got %d", got)
	}
}

func TestOnTransfer_InactiveOffer(t *testing.T) {
	o := activeOffer()
	o.Active = false
	f := newFixture(t, o)

	err := f.engine.OnTransfer(context.Background(), matchingNotice())
	if !errors.Is(err, ErrOfferInactive) {
		t.Fatalf("Expected ErrOfferInactive, got %v", err)
	}

	rec := f.lastJournalEntry(t)
	if rec.Outcome != domain.SettlementOutcomeAborted || rec.Reason != "offer_inactive" {
		t.Errorf("Journal = %s/%s, want aborted/offer_inactive", rec.Outcome, rec.Reason)
	}
}

func TestOnTransfer_WrongSourceContract(t *testing.T) {
	f := newFixture(t, activeOffer())

	// Right quantity and memo, wrong token contract: a counterfeit TOKA.
	n := matchingNotice()
	n.SourceContract = "faketokens"
	err := f.engine.OnTransfer(context.Background(), n)
	if !errors.Is(err, ErrWrongSourceContract) {
		t.Fatalf("Expected ErrWrongSourceContract, got %v", err)
	}
	if got := len(f.ledger.Commands()); got != 0 {
		t.Errorf("Expected no outbound transfers, got %d", got)
	}
}

func TestOnTransfer_WrongQuantity(t *testing.T) {
	f := newFixture(t, activeOffer())
	ctx := context.Background()

	cases := []struct {
		name     string
		quantity domain.Asset
	}{
		{"underpay", toka(99999)},
		{"overpay", toka(100001)},
		{"wrong symbol", tokb(100000)},
		{"same value different precision", domain.Asset{Amount: 10000, Symbol: domain.Symbol{Code: "TOKA", Precision: 3}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := matchingNotice()
			n.Quantity = tc.quantity
			if err := f.engine.OnTransfer(ctx, n); !errors.Is(err, ErrWrongQuantity) {
				t.Errorf("Expected ErrWrongQuantity, got %v", err)
			}
		})
	}

	if got := len(f.ledger.Commands()); got != 0 {
		t.Errorf("Expected no outbound transfers, got %d", got)
	}
}

func TestOnTransfer_CorruptSendingAsset(t *testing.T) {
	o := activeOffer()
	o.SendingAsset.Amount = -1
	f := newFixture(t, o)

	err := f.engine.OnTransfer(context.Background(), matchingNotice())
	if !errors.Is(err, domain.ErrInvalidAssetQuantity) {
		t.Fatalf("Expected ErrInvalidAssetQuantity, got %v", err)
	}
	if got := len(f.ledger.Commands()); got != 0 {
		t.Errorf("Expected no outbound transfers, got %d", got)
	}
}

func TestOnTransfer_InsufficientBalance(t *testing.T) {
	f := newFixture(t, activeOffer())
	ctx := context.Background()

	// Drain the engine's sending-asset balance.
	if err := f.ledger.Transfer(ctx, domain.TransferCommand{
		Contract: "tokbissuer",
		From:     selfAccount,
		To:       "sink",
		Quantity: tokb(1000000),
		Memo:     "drain",
	}); err != nil {
		t.Fatalf("Drain transfer failed: %v", err)
	}

	err := f.engine.OnTransfer(ctx, matchingNotice())
	if !errors.Is(err, ledger.ErrInsufficientBalance) {
		t.Fatalf("Expected ErrInsufficientBalance, got %v", err)
	}

	rec := f.lastJournalEntry(t)
	if rec.Reason != "insufficient_balance" {
		t.Errorf("Journal reason = %s, want insufficient_balance", rec.Reason)
	}
}

func TestOnTransfer_MemoKeyZero(t *testing.T) {
	o := activeOffer()
	o.MemoKey = 0
	f := newFixture(t, o)

	n := matchingNotice()
	n.Memo = "0"
	if err := f.engine.OnTransfer(context.Background(), n); err != nil {
		t.Fatalf("Key 0 with memo \"0\" should settle, got %v", err)
	}

	// "00" parses to 0 but is non-canonical.
	n.Memo = "00"
	if err := f.engine.OnTransfer(context.Background(), n); !errors.Is(err, ErrMemoMismatch) {
		t.Errorf("Expected ErrMemoMismatch for \"00\", got %v", err)
	}
}

func TestOnTransfer_MemoKeyMaxUint64(t *testing.T) {
	o := activeOffer()
	o.MemoKey = 18446744073709551615
	f := newFixture(t, o)

	n := matchingNotice()
	n.Memo = "18446744073709551615"
	if err := f.engine.OnTransfer(context.Background(), n); err != nil {
		t.Fatalf("Max uint64 memo key should settle, got %v", err)
	}
}

type failingJournal struct{}

func (failingJournal) Insert(context.Context, *domain.SettlementRecord) error {
	return errors.New("journal down")
}
func (failingJournal) GetByRef(context.Context, string) ([]*domain.SettlementRecord, error) {
	return nil, errors.New("journal down")
}
func (failingJournal) GetByTimeRange(context.Context, int64, int64) ([]*domain.SettlementRecord, error) {
	return nil, errors.New("journal down")
}

func TestOnTransfer_JournalFailureDoesNotAffectOutcome(t *testing.T) {
	store := memory.NewOfferStore()
	if err := store.Insert(context.Background(), activeOffer()); err != nil {
		t.Fatalf("Insert offer failed: %v", err)
	}
	ldg := stub.NewLedger()
	ldg.Credit(selfAccount, "tokbissuer", tokb(1000000))

	engine := NewEngine(EngineOptions{
		Self:    selfAccount,
		Offers:  store,
		Ledger:  ldg,
		Journal: failingJournal{},
		Logger:  log.New(io.Discard, "", 0),
	})

	if err := engine.OnTransfer(context.Background(), matchingNotice()); err != nil {
		t.Fatalf("Journal failure must not fail the settlement, got %v", err)
	}
	if got := len(ldg.Commands()); got != 1 {
		t.Errorf("Expected 1 outbound transfer, got %d", got)
	}
}

func TestOnTransfer_NoJournalConfigured(t *testing.T) {
	store := memory.NewOfferStore()
	if err := store.Insert(context.Background(), activeOffer()); err != nil {
		t.Fatalf("Insert offer failed: %v", err)
	}
	ldg := stub.NewLedger()
	ldg.Credit(selfAccount, "tokbissuer", tokb(1000000))

	engine := NewEngine(EngineOptions{
		Self:   selfAccount,
		Offers: store,
		Ledger: ldg,
		Logger: log.New(io.Discard, "", 0),
	})

	if err := engine.OnTransfer(context.Background(), matchingNotice()); err != nil {
		t.Fatalf("OnTransfer without journal failed: %v", err)
	}
}

// Package view holds the TransactionView: the client state for one user and
// the fetch/create orchestration against the ledger backend.
//
// All state mutations happen under the view lock; network calls run outside
// of it, so a slow backend never blocks other events on the same view.
package view

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"datalens/internal/core"
	"datalens/internal/log"
)

// User-facing messages for request failures. Details go to the log only.
const (
	MsgFetchFailed   = "Error fetching transactions. Please try again."
	MsgCreateFailed  = "Error adding transaction. Please try again."
	MsgRefreshFailed = "Transaction added, but the list could not be refreshed. Please try again."
)

// ErrClosed is returned by operations started after teardown.
var ErrClosed = errors.New("view closed")

// Backend is the ledger the view reads from and writes to.
type Backend interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	CreateTransaction(ctx context.Context, tx core.NewTransaction) error
}

// Effects are presentation side effects driven by state.
type Effects struct {
	// Theme runs whenever the applied dark-mode value changes, and once on mount.
	Theme func(dark bool)
}

// State is the complete client state owned by a View.
type State struct {
	Transactions     []core.Transaction
	DescriptionInput string
	AmountInput      string
	IsLoading        bool
	ErrorMessage     string
	DarkMode         bool
}

func (s State) clone() State {
	if s.Transactions != nil {
		s.Transactions = append([]core.Transaction(nil), s.Transactions...)
	}
	return s
}

// View is a TransactionView.
type View struct {
	mu      sync.Mutex
	backend Backend
	logger  *log.Logger
	effects Effects
	state   State
	closed  bool

	// effectMu orders theme effects; held across the effect call
	effectMu     sync.Mutex
	themeApplied bool
	appliedDark  bool

	mountOnce sync.Once
	wg        sync.WaitGroup
}

// New creates a view over backend. Nothing is fetched until Mount.
func New(backend Backend, logger *log.Logger, effects Effects) *View {
	if logger == nil {
		logger = log.Discard()
	}
	return &View{
		backend: backend,
		logger:  logger.WithComponent(log.ComponentView),
		effects: effects,
		state:   State{Transactions: []core.Transaction{}},
	}
}

// Mount applies the initial theme and starts the first fetch in the
// background. Only the first call has any effect. The fetch outlives the
// caller's cancellation; its result is dropped if the view is closed first.
func (v *View) Mount(ctx context.Context) {
	v.mountOnce.Do(func() {
		v.applyTheme()
		// loading is visible before Mount returns
		if !v.begin() {
			return
		}
		bg := context.WithoutCancel(ctx)
		v.wg.Add(1)
		go func() {
			defer v.wg.Done()
			err := v.refresh(bg, MsgFetchFailed)
			v.finish()
			if err != nil && !errors.Is(err, ErrClosed) {
				v.logger.DebugContext(bg, "Initial fetch failed", log.FieldOperation, log.OpMount, log.FieldError, err)
			}
		}()
	})
}

// Wait blocks until background work started by Mount has finished.
func (v *View) Wait() {
	v.wg.Wait()
}

// Close tears the view down. Completions arriving later leave state untouched.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.closed = true
	v.logger.Debug("View closed", log.FieldOperation, log.OpTeardown)
}

// Closed reports whether Close has been called.
func (v *View) Closed() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.closed
}

// Snapshot returns a copy of the current state.
func (v *View) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state.clone()
}

// SetDescription records the description field as typed.
func (v *View) SetDescription(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.closed {
		v.state.DescriptionInput = s
	}
}

// SetAmount records the amount field as typed.
func (v *View) SetAmount(s string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.closed {
		v.state.AmountInput = s
	}
}

// ToggleDarkMode flips the presentation mode. Data and validation are unaffected.
func (v *View) ToggleDarkMode() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.state.DarkMode = !v.state.DarkMode
	v.mu.Unlock()

	v.applyTheme()
}

// applyTheme runs the theme effect if the flag differs from what was last
// applied. Effects run one at a time and always see the current flag.
func (v *View) applyTheme() {
	v.effectMu.Lock()
	defer v.effectMu.Unlock()

	v.mu.Lock()
	dark := v.state.DarkMode
	if v.closed || (v.themeApplied && v.appliedDark == dark) {
		v.mu.Unlock()
		return
	}
	v.themeApplied = true
	v.appliedDark = dark
	v.mu.Unlock()

	v.logger.Debug("Theme applied", log.FieldOperation, log.OpTheme, log.FieldDarkMode, dark)
	if v.effects.Theme != nil {
		v.effects.Theme(dark)
	}
}

// FetchTransactions reloads the list from the backend. On failure the
// previous list is kept and a generic message is shown.
func (v *View) FetchTransactions(ctx context.Context) error {
	if !v.begin() {
		return ErrClosed
	}
	err := v.refresh(ctx, MsgFetchFailed)
	v.finish()
	return err
}

// Submit creates a transaction from the current form fields.
func (v *View) Submit(ctx context.Context) error {
	v.mu.Lock()
	desc, amount := v.state.DescriptionInput, v.state.AmountInput
	v.mu.Unlock()
	return v.CreateTransaction(ctx, desc, amount)
}

// CreateTransaction validates the input, posts it and re-fetches the list.
// Validation failures never reach the network. The form fields are cleared
// only once the backend has accepted the transaction.
func (v *View) CreateTransaction(ctx context.Context, description, amountText string) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	v.state.DescriptionInput = description
	v.state.AmountInput = amountText

	payload, err := core.ValidateInput(description, amountText)
	if err != nil {
		v.state.ErrorMessage = err.Error()
		v.mu.Unlock()
		v.logger.DebugContext(ctx, "Transaction input rejected",
			log.FieldOperation, log.OpValidate,
			log.FieldError, err)
		return err
	}

	v.state.IsLoading = true
	v.state.ErrorMessage = ""
	v.mu.Unlock()

	if err := v.backend.CreateTransaction(ctx, payload); err != nil {
		v.mu.Lock()
		defer v.mu.Unlock()
		if v.closed {
			return ErrClosed
		}
		v.state.ErrorMessage = MsgCreateFailed
		v.state.IsLoading = false
		log.NewStructuredLogger(v.logger).LogError(ctx, "Error posting transaction", err,
			log.ErrorTypeNetwork, log.OpCreate,
			log.NewFields().WithTransaction(0, payload.Description, payload.Amount.String()))
		return err
	}

	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrClosed
	}
	v.state.DescriptionInput = ""
	v.state.AmountInput = ""
	v.mu.Unlock()

	if !v.begin() {
		return ErrClosed
	}
	ferr := v.refresh(ctx, MsgRefreshFailed)
	v.finish()
	if ferr != nil {
		return fmt.Errorf("refresh after create: %w", ferr)
	}
	return nil
}

// begin marks an operation as in flight.
func (v *View) begin() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return false
	}
	v.state.IsLoading = true
	v.state.ErrorMessage = ""
	return true
}

// finish clears the loading flag.
func (v *View) finish() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.closed {
		v.state.IsLoading = false
	}
}

// refresh performs the list request and applies its outcome.
func (v *View) refresh(ctx context.Context, failMsg string) error {
	txs, err := v.backend.ListTransactions(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return ErrClosed
	}
	if err != nil {
		v.state.ErrorMessage = failMsg
		log.NewStructuredLogger(v.logger).LogError(ctx, "Error fetching transactions", err,
			log.ErrorTypeNetwork, log.OpFetch, nil)
		return err
	}
	v.state.Transactions = append([]core.Transaction(nil), txs...)
	if v.state.Transactions == nil {
		v.state.Transactions = []core.Transaction{}
	}
	return nil
}

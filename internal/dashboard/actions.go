package dashboard

import (
	"context"
	"errors"
	"strings"

	"budgetdash/internal/budgetapi"
	"budgetdash/internal/core"
	"budgetdash/internal/log"
)

// Modal identifies a dialog the view should close after an action.
type Modal string

const (
	ModalNone   Modal = ""
	ModalIncome Modal = "income"
	ModalAdd    Modal = "add"
)

// DeletePrompt is the question a Confirmer is asked before a delete.
const DeletePrompt = "Delete this transaction?"

const (
	msgIncomeUpdated   = "Income updated successfully! 🎉"
	msgIncomeFailed    = "Error updating income"
	msgExpenseAdded    = "Expense added! 💰"
	msgAddRejected     = "Failed to add transaction"
	msgAddFailed       = "Error adding expense"
	msgTransactionGone = "Transaction deleted"
	msgDeleteFailed    = "Error deleting transaction"
)

// ActionResult is the outcome of a user action.
type ActionResult struct {
	// OK is true when the write succeeded.
	OK bool
	// Requested is true when a write request was sent.
	Requested bool
	// Toasts in the order they were raised; the last one is the visible one.
	Toasts     []Toast
	CloseModal Modal
	// ResetForm asks the view to clear the add form.
	ResetForm bool
}

// LastToast returns the toast left on screen, if any.
func (r ActionResult) LastToast() (Toast, bool) {
	if len(r.Toasts) == 0 {
		return Toast{}, false
	}
	return r.Toasts[len(r.Toasts)-1], true
}

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// SetIncome stores the monthly income of the selected month.
func (c *Controller) SetIncome(ctx context.Context, income float64) ActionResult {
	logger := c.logger.WithComponent(log.ComponentActions)
	if err := core.ValidateIncome(income); err != nil {
		return rejected(err)
	}

	month := c.Month()
	if err := c.api.SetIncome(ctx, month, income); err != nil {
		logger.ErrorContext(ctx, "Income update failed",
			failureFields(log.OpUpdate, err).WithMonth(month.String()).ToSlice()...)
		return failed(msgIncomeFailed)
	}

	logger.InfoContext(ctx, "Income updated",
		log.FieldMonth, month.String(),
		log.FieldIncome, income)
	c.publish(ctx, core.Event{Type: core.EventIncomeUpdated, Month: month, Income: income})

	res := ActionResult{
		OK:         true,
		Requested:  true,
		Toasts:     []Toast{{Kind: ToastSuccess, Message: msgIncomeUpdated}},
		CloseModal: ModalIncome,
	}
	res.Toasts = append(res.Toasts, c.Refresh(ctx)...)
	return res
}

// AddTransaction records a new expense. An empty date defaults to today.
func (c *Controller) AddTransaction(ctx context.Context, tx core.NewTransaction) ActionResult {
	logger := c.logger.WithComponent(log.ComponentActions)
	tx.Description = strings.TrimSpace(tx.Description)
	if err := tx.Validate(); err != nil {
		return rejected(err)
	}
	if tx.Date == "" {
		tx.Date = c.Today()
	}

	stored, err := c.api.AddTransaction(ctx, tx)
	if err != nil {
		logger.ErrorContext(ctx, "Add transaction failed", failureFields(log.OpCreate, err).
			With(log.FieldAmount, tx.Amount).
			With(log.FieldCategory, tx.Category).
			ToSlice()...)
		return failed(addFailureMessage(err))
	}

	logger.InfoContext(ctx, "Transaction added",
		log.FieldTransactionID, stored.ID,
		log.FieldAmount, tx.Amount,
		log.FieldCategory, tx.Category)
	c.publish(ctx, core.Event{
		Type:          core.EventTransactionAdded,
		Month:         c.monthOf(tx.Date),
		TransactionID: stored.ID,
		Amount:        tx.Amount,
		Category:      tx.Category,
	})

	res := ActionResult{
		OK:         true,
		Requested:  true,
		Toasts:     []Toast{{Kind: ToastSuccess, Message: msgExpenseAdded}},
		CloseModal: ModalAdd,
		ResetForm:  true,
	}
	res.Toasts = append(res.Toasts, c.Refresh(ctx)...)
	return res
}

// monthOf returns the month of a YYYY-MM-DD date, or the shown month when
// date does not start with one.
func (c *Controller) monthOf(date string) core.MonthKey {
	if len(date) >= 7 {
		if m, err := core.ParseMonthKey(date[:7]); err == nil {
			return m
		}
	}
	return c.Month()
}

// DeleteTransaction removes a transaction once confirm agrees. A nil
// Confirmer counts as a refusal.
func (c *Controller) DeleteTransaction(ctx context.Context, id int64, confirm Confirmer) ActionResult {
	logger := c.logger.WithComponent(log.ComponentActions)
	if confirm == nil || !confirm.Confirm(DeletePrompt) {
		logger.DebugContext(ctx, "Delete declined", log.FieldTransactionID, id)
		return ActionResult{}
	}

	if err := c.api.DeleteTransaction(ctx, id); err != nil {
		logger.ErrorContext(ctx, "Delete transaction failed",
			failureFields(log.OpDelete, err).WithTransactionID(id).ToSlice()...)
		return failed(msgDeleteFailed)
	}

	logger.InfoContext(ctx, "Transaction deleted", log.FieldTransactionID, id)
	c.publish(ctx, core.Event{Type: core.EventTransactionDeleted, Month: c.Month(), TransactionID: id})

	res := ActionResult{
		OK:        true,
		Requested: true,
		Toasts:    []Toast{{Kind: ToastSuccess, Message: msgTransactionGone}},
	}
	res.Toasts = append(res.Toasts, c.Refresh(ctx)...)
	return res
}

// addFailureMessage prefers the server's own explanation.
func addFailureMessage(err error) string {
	if msg := budgetapi.ServerMessage(err); msg != "" {
		return msg
	}
	var se *budgetapi.StatusError
	if errors.As(err, &se) {
		return msgAddRejected
	}
	return msgAddFailed
}

func rejected(err error) ActionResult {
	msg := err.Error()
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		msg = ve.Message
	}
	return ActionResult{Toasts: []Toast{{Kind: ToastError, Message: msg}}}
}

func failed(msg string) ActionResult {
	return ActionResult{Requested: true, Toasts: []Toast{{Kind: ToastError, Message: msg}}}
}

func (c *Controller) publish(ctx context.Context, ev core.Event) {
	if c.opts.Publisher == nil {
		return
	}
	ev.OccurredAt = c.opts.Clock()
	if err := c.opts.Publisher.PublishEvent(ctx, ev); err != nil {
		c.logger.WarnContext(ctx, "Failed to publish dashboard event",
			log.FieldOperation, log.OpPublish,
			"event_type", string(ev.Type),
			log.FieldError, err.Error())
	}
}

/*
lifecycle.go - Settlement payment-status state machine

PURPOSE:
  Drives a settlement through pending -> approved -> paid. Disputed and
  cancelled are valid states reachable from pending or approved, but no
  operation here produces them; the transition table in
  itad.PaymentStatus.CanTransition is the single source of truth.

RULES:
  Approve:  only from pending. Records who approved and when.
  MarkPaid: only from approved. Records date, method, and reference.

  Calling either from any other state is a usage error, rejected with a
  TransitionError. Updates are version-checked; a concurrent writer loses
  with ErrConcurrentModification.
*/
package settlement

import (
	"context"
	"time"

	"github.com/warp/recovery-engine/itad"
)

// Approve transitions a pending settlement to approved.
func (c *Calculator) Approve(ctx context.Context, id itad.SettlementID, approverID string) (*itad.RevenueSettlement, error) {
	if approverID == "" {
		return nil, &itad.ValidationError{Field: "approver_id", Message: "required"}
	}

	s, err := c.Settlements.GetSettlement(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, itad.ErrSettlementNotFound
	}
	if s.PaymentStatus != itad.PaymentPending {
		return nil, &itad.TransitionError{
			SettlementID: id,
			From:         s.PaymentStatus,
			To:           itad.PaymentApproved,
			At:           time.Now().UTC(),
		}
	}

	s.PaymentStatus = itad.PaymentApproved
	s.ApprovedBy = approverID
	s.ApprovedAt = time.Now().UTC()

	if err := c.Settlements.UpdateSettlement(ctx, *s); err != nil {
		return nil, err
	}
	s.Version++
	return s, nil
}

// MarkPaid transitions an approved settlement to paid.
func (c *Calculator) MarkPaid(ctx context.Context, id itad.SettlementID, paidAt time.Time, method, reference string) (*itad.RevenueSettlement, error) {
	if method == "" {
		return nil, &itad.ValidationError{Field: "payment_method", Message: "required"}
	}

	s, err := c.Settlements.GetSettlement(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, itad.ErrSettlementNotFound
	}
	if s.PaymentStatus != itad.PaymentApproved {
		return nil, &itad.TransitionError{
			SettlementID: id,
			From:         s.PaymentStatus,
			To:           itad.PaymentPaid,
			At:           time.Now().UTC(),
		}
	}

	s.PaymentStatus = itad.PaymentPaid
	s.PaidAt = paidAt
	s.PaymentMethod = method
	s.PaymentRef = reference

	if err := c.Settlements.UpdateSettlement(ctx, *s); err != nil {
		return nil, err
	}
	s.Version++
	return s, nil
}

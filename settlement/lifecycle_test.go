package settlement_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/recovery-engine/itad"
	"github.com/warp/recovery-engine/itad/store"
	"github.com/warp/recovery-engine/settlement"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func generateTestSettlement(t *testing.T) (*settlement.Calculator, *store.Memory, itad.SettlementID) {
	t.Helper()
	calc, mem := newTestCalculator()
	projectID := seedProject(t, mem, 500, 20, 2000)
	seedSoldAsset(t, mem, "asset-1", 10000)

	s, err := calc.GenerateSettlement(context.Background(), projectID,
		date(2026, time.July, 1), date(2026, time.June, 1), date(2026, time.June, 30))
	require.NoError(t, err)
	return calc, mem, s.ID
}

// =============================================================================
// APPROVE
// =============================================================================

func TestApprove_FromPending_RecordsApprover(t *testing.T) {
	// GIVEN: A freshly generated (pending) settlement
	// WHEN: Approving it
	// THEN: Status is approved with approver and timestamp recorded

	calc, mem, id := generateTestSettlement(t)
	ctx := context.Background()

	s, err := calc.Approve(ctx, id, "finance-lead")
	require.NoError(t, err)

	assert.Equal(t, itad.PaymentApproved, s.PaymentStatus)
	assert.Equal(t, "finance-lead", s.ApprovedBy)
	assert.False(t, s.ApprovedAt.IsZero())

	stored, err := mem.GetSettlement(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, itad.PaymentApproved, stored.PaymentStatus)
}

func TestApprove_Twice_Rejected(t *testing.T) {
	// GIVEN: An already approved settlement
	// WHEN: Approving again
	// THEN: Rejected with a TransitionError carrying from/to

	calc, _, id := generateTestSettlement(t)
	ctx := context.Background()

	_, err := calc.Approve(ctx, id, "finance-lead")
	require.NoError(t, err)

	_, err = calc.Approve(ctx, id, "finance-lead")
	assert.ErrorIs(t, err, itad.ErrInvalidTransition)
	var trans *itad.TransitionError
	require.ErrorAs(t, err, &trans)
	assert.Equal(t, itad.PaymentApproved, trans.From)
	assert.Equal(t, itad.PaymentApproved, trans.To)
}

func TestApprove_EmptyApprover_Rejected(t *testing.T) {
	calc, _, id := generateTestSettlement(t)

	_, err := calc.Approve(context.Background(), id, "")
	assert.ErrorIs(t, err, itad.ErrValidation)
}

func TestApprove_UnknownSettlement_Rejected(t *testing.T) {
	calc, _ := newTestCalculator()

	_, err := calc.Approve(context.Background(), "nope", "finance-lead")
	assert.ErrorIs(t, err, itad.ErrSettlementNotFound)
}

// =============================================================================
// MARK PAID
// =============================================================================

func TestMarkPaid_FromApproved_RecordsPaymentDetails(t *testing.T) {
	// GIVEN: An approved settlement
	// WHEN: Marking it paid
	// THEN: Status is paid with date, method and reference recorded

	calc, mem, id := generateTestSettlement(t)
	ctx := context.Background()

	_, err := calc.Approve(ctx, id, "finance-lead")
	require.NoError(t, err)

	paidAt := date(2026, time.July, 15)
	s, err := calc.MarkPaid(ctx, id, paidAt, "wire", "INV-2026-042")
	require.NoError(t, err)

	assert.Equal(t, itad.PaymentPaid, s.PaymentStatus)
	assert.Equal(t, paidAt, s.PaidAt)
	assert.Equal(t, "wire", s.PaymentMethod)
	assert.Equal(t, "INV-2026-042", s.PaymentRef)

	stored, err := mem.GetSettlement(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, itad.PaymentPaid, stored.PaymentStatus)
}

func TestMarkPaid_WhilePending_Rejected(t *testing.T) {
	// Payment requires prior approval.
	calc, _, id := generateTestSettlement(t)

	_, err := calc.MarkPaid(context.Background(), id, date(2026, time.July, 15), "wire", "ref")
	assert.ErrorIs(t, err, itad.ErrInvalidTransition)
}

func TestMarkPaid_Twice_Rejected(t *testing.T) {
	calc, _, id := generateTestSettlement(t)
	ctx := context.Background()

	_, err := calc.Approve(ctx, id, "finance-lead")
	require.NoError(t, err)
	_, err = calc.MarkPaid(ctx, id, date(2026, time.July, 15), "wire", "ref")
	require.NoError(t, err)

	_, err = calc.MarkPaid(ctx, id, date(2026, time.July, 16), "wire", "ref-2")
	assert.ErrorIs(t, err, itad.ErrInvalidTransition)
}

func TestMarkPaid_EmptyMethod_Rejected(t *testing.T) {
	calc, _, id := generateTestSettlement(t)

	_, err := calc.MarkPaid(context.Background(), id, date(2026, time.July, 15), "", "ref")
	assert.ErrorIs(t, err, itad.ErrValidation)
}

// =============================================================================
// STATE MACHINE TABLE
// =============================================================================

func TestPaymentStatus_TransitionTable(t *testing.T) {
	cases := []struct {
		from, to itad.PaymentStatus
		ok       bool
	}{
		{itad.PaymentPending, itad.PaymentApproved, true},
		{itad.PaymentPending, itad.PaymentDisputed, true},
		{itad.PaymentPending, itad.PaymentCancelled, true},
		{itad.PaymentPending, itad.PaymentPaid, false},
		{itad.PaymentApproved, itad.PaymentPaid, true},
		{itad.PaymentApproved, itad.PaymentDisputed, true},
		{itad.PaymentApproved, itad.PaymentCancelled, true},
		{itad.PaymentApproved, itad.PaymentPending, false},
		{itad.PaymentPaid, itad.PaymentApproved, false},
		{itad.PaymentDisputed, itad.PaymentApproved, false},
		{itad.PaymentCancelled, itad.PaymentPending, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, c.from.CanTransition(c.to), "%s -> %s", c.from, c.to)
	}
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestUpdateSettlement_StaleVersion_Conflict(t *testing.T) {
	// GIVEN: A settlement updated once (version advanced)
	// WHEN: Writing again with the original, stale version
	// THEN: ErrConcurrentModification

	calc, mem, id := generateTestSettlement(t)
	ctx := context.Background()

	before, err := mem.GetSettlement(ctx, id)
	require.NoError(t, err)

	_, err = calc.Approve(ctx, id, "finance-lead")
	require.NoError(t, err)

	before.PaymentStatus = itad.PaymentCancelled
	err = mem.UpdateSettlement(ctx, *before)
	assert.ErrorIs(t, err, itad.ErrConcurrentModification)
}

package service

import (
	"context"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/meal-subscription-api/internal/dto"
	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/internal/repository"
	"github.com/noah-isme/meal-subscription-api/pkg/docstore"
	appErrors "github.com/noah-isme/meal-subscription-api/pkg/errors"
	"github.com/noah-isme/meal-subscription-api/pkg/export"
)

type paymentFixture struct {
	svc     *PaymentService
	repo    *repository.PaymentRepository
	metrics *transitionCounter
}

func newPaymentFixture(t *testing.T, opts ...PaymentServiceOption) paymentFixture {
	t.Helper()
	store := docstore.NewMemory()
	repo := repository.NewPaymentRepository(store)
	metrics := &transitionCounter{}
	svc := NewPaymentService(repo, repository.NewAuditRepository(store), metrics, nil, nil, opts...)
	return paymentFixture{svc: svc, repo: repo, metrics: metrics}
}

func (f paymentFixture) submit(t *testing.T, actor models.Principal, month string, amount float64) *models.Payment {
	t.Helper()
	payment, err := f.svc.Submit(context.Background(), actor, dto.PaymentSubmission{Month: month, Amount: amount, Receipt: pngReceipt})
	require.NoError(t, err)
	return payment
}

func TestPaymentSubmitRoundTrip(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()

	payment, err := f.svc.Submit(ctx, ashaActor, dto.PaymentSubmission{Month: "march", Amount: 500, Receipt: pngReceipt})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, payment.Status)
	assert.Equal(t, "March", payment.Month)
	assert.Equal(t, "image/png", payment.ReceiptContentType)
	assert.Equal(t, len(pngReceipt), payment.ReceiptSize)

	stored, err := f.svc.Get(ctx, ashaActor, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, 500.0, stored.Amount)
	assert.Equal(t, "March", stored.Month)
	assert.Equal(t, "", stored.Remarks)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Nil(t, stored.UpdatedAt)

	receipt, contentType, err := f.svc.Receipt(ctx, ashaActor, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, pngReceipt, receipt)
	assert.Equal(t, "image/png", contentType)

	_, _, err = f.svc.Receipt(ctx, raviActor, payment.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestPaymentSubmitValidation(t *testing.T) {
	f := newPaymentFixture(t, WithReceiptLimit(64))
	ctx := context.Background()

	cases := map[string]dto.PaymentSubmission{
		"zero amount":     {Month: "March", Amount: 0, Receipt: pngReceipt},
		"negative amount": {Month: "March", Amount: -10, Receipt: pngReceipt},
		"unknown month":   {Month: "Marchember", Amount: 10, Receipt: pngReceipt},
		"missing receipt": {Month: "March", Amount: 10},
		"not an image":    {Month: "March", Amount: 10, Receipt: []byte("plain text receipt")},
		"too large":       {Month: "March", Amount: 10, Receipt: append(append([]byte{}, pngReceipt...), make([]byte, 64)...)},
		"infinite amount": {Month: "March", Amount: math.Inf(1), Receipt: pngReceipt},
		"nan amount":      {Month: "March", Amount: math.NaN(), Receipt: pngReceipt},
	}
	for name, sub := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.svc.Submit(ctx, ashaActor, sub)
			assert.ErrorIs(t, err, appErrors.ErrValidation)
		})
	}

	items, err := f.repo.List(ctx, models.PaymentFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int64(64), f.svc.ReceiptLimit())
}

func TestPaymentSubmitRejectsFormParsedInfinity(t *testing.T) {
	f := newPaymentFixture(t)
	amount, err := strconv.ParseFloat("Inf", 64)
	require.NoError(t, err)

	_, err = f.svc.Submit(context.Background(), ashaActor, dto.PaymentSubmission{Month: "March", Amount: amount, Receipt: pngReceipt})
	require.ErrorIs(t, err, appErrors.ErrValidation)
	assert.NotErrorIs(t, err, appErrors.ErrStoreUnavailable)
	items, err := f.repo.List(context.Background(), models.PaymentFilter{})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, f.metrics.submissions(models.AuditResourcePayment))
}

func TestPaymentDeclaredContentType(t *testing.T) {
	f := newPaymentFixture(t)
	payment, err := f.svc.Submit(context.Background(), ashaActor, dto.PaymentSubmission{
		Month: "April", Amount: 100, Receipt: []byte("opaque bytes"), ReceiptContentType: "image/heic",
	})
	require.NoError(t, err)
	assert.Equal(t, "image/heic", payment.ReceiptContentType)
}

func TestPaymentApproveWithRemarks(t *testing.T) {
	f := newPaymentFixture(t)
	payment := f.submit(t, ashaActor, "March", 500)

	approved, err := f.svc.Approve(context.Background(), adminActor, payment.ID, "  looks good ")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Equal(t, "looks good", approved.Remarks)
	require.NotNil(t, approved.UpdatedAt)
	assert.True(t, approved.UpdatedAt.After(approved.SubmittedAt))
	assert.Equal(t, 1, f.metrics.count(models.AuditResourcePayment, models.StatusApproved))
	assert.Equal(t, 1, f.metrics.submissions(models.AuditResourcePayment))
}

func TestPaymentApproveWithoutRemarks(t *testing.T) {
	f := newPaymentFixture(t)
	payment := f.submit(t, ashaActor, "March", 500)

	approved, err := f.svc.Approve(context.Background(), adminActor, payment.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Equal(t, "", approved.Remarks)
}

func TestPaymentRejectRequiresRemarks(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	payment := f.submit(t, ashaActor, "March", 500)

	_, err := f.svc.Reject(ctx, adminActor, payment.ID, "   ")
	require.ErrorIs(t, err, appErrors.ErrValidation)

	stored, err := f.repo.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)

	rejected, err := f.svc.Reject(ctx, adminActor, payment.ID, "blurry receipt")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Equal(t, "blurry receipt", rejected.Remarks)
}

func TestPaymentRemarksLength(t *testing.T) {
	f := newPaymentFixture(t)
	payment := f.submit(t, ashaActor, "March", 500)
	_, err := f.svc.Approve(context.Background(), adminActor, payment.ID, strings.Repeat("x", 1001))
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	// 1000 two-byte runes fit the character limit.
	remarks := strings.Repeat("é", 1000)
	approved, err := f.svc.Approve(context.Background(), adminActor, payment.ID, remarks)
	require.NoError(t, err)
	assert.Equal(t, remarks, approved.Remarks)
}

func TestPaymentTransitionGuards(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	payment := f.submit(t, ashaActor, "March", 500)

	_, err := f.svc.Approve(ctx, ashaActor, payment.ID, "mine")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = f.svc.Reject(ctx, ashaActor, payment.ID, "")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.svc.Reject(ctx, adminActor, payment.ID, "wrong amount")
	require.NoError(t, err)

	_, err = f.svc.Approve(ctx, adminActor, payment.ID, "changed my mind")
	require.ErrorIs(t, err, appErrors.ErrInvalidTransition)
	_, err = f.svc.Approve(ctx, ashaActor, payment.ID, "")
	require.ErrorIs(t, err, appErrors.ErrForbidden)

	stored, err := f.repo.GetByID(ctx, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, stored.Status)
	assert.Equal(t, "wrong amount", stored.Remarks)

	_, err = f.svc.Approve(ctx, adminActor, "missing", "")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestPaymentListScoping(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	f.submit(t, ashaActor, "March", 500)
	f.submit(t, ashaActor, "April", 500)
	theirs := f.submit(t, raviActor, "March", 700)

	mine, err := f.svc.ListForOwner(ctx, ashaActor, "")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "April", mine[0].Month)
	for _, p := range mine {
		assert.Equal(t, ashaActor.ID, p.UserID)
	}

	_, err = f.svc.ListForOwner(ctx, ashaActor, raviActor.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	_, err = f.svc.Get(ctx, ashaActor, theirs.ID)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.svc.ListAll(ctx, ashaActor, dto.PaymentQuery{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = f.svc.Approve(ctx, adminActor, theirs.ID, "")
	require.NoError(t, err)
	pending, err := f.svc.ListAll(ctx, adminActor, dto.PaymentQuery{Status: "pending"})
	require.NoError(t, err)
	assert.Len(t, pending, 2)
	all, err := f.svc.ListAll(ctx, adminActor, dto.PaymentQuery{Status: "all"})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestPaymentHistory(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	payment := f.submit(t, ashaActor, "March", 500)
	_, err := f.svc.Reject(ctx, adminActor, payment.ID, "duplicate")
	require.NoError(t, err)

	logs, err := f.svc.History(ctx, adminActor, payment.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, adminActor.ID, logs[1].UserID)
	assert.JSONEq(t, `{"status":"rejected","remarks":"duplicate"}`, string(logs[1].NewValues))

	_, err = f.svc.History(ctx, adminActor, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestPaymentExport(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	f.submit(t, ashaActor, "March", 500)

	result, err := f.svc.Export(ctx, adminActor, dto.PaymentQuery{Format: "csv"})
	require.NoError(t, err)
	assert.Equal(t, export.FormatCSV.ContentType(), result.ContentType)
	assert.True(t, strings.HasSuffix(result.Filename, ".csv"))
	assert.Contains(t, string(result.Content), "March")
	assert.NotContains(t, string(result.Content), "PNG")

	_, err = f.svc.Export(ctx, adminActor, dto.PaymentQuery{Format: "xlsx"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	_, err = f.svc.Export(ctx, ashaActor, dto.PaymentQuery{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

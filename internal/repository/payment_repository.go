package repository

import (
	"context"
	"fmt"

	"github.com/noah-isme/meal-subscription-api/internal/models"
	"github.com/noah-isme/meal-subscription-api/pkg/docstore"
)

// paymentDocument stores the receipt inline; []byte encodes as base64.
type paymentDocument struct {
	UserID             string  `json:"userId"`
	UserName           string  `json:"userName"`
	Month              string  `json:"month"`
	Amount             float64 `json:"amount"`
	Receipt            []byte  `json:"receipt"`
	ReceiptContentType string  `json:"receiptContentType"`
	Status             string  `json:"status"`
	Remarks            string  `json:"remarks"`
	ReviewedBy         *string `json:"reviewedBy,omitempty"`
}

// PaymentRepository persists payment submissions.
type PaymentRepository struct {
	store docstore.Store
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(store docstore.Store) *PaymentRepository {
	return &PaymentRepository{store: store}
}

// Create stores a payment and fills its id and submission time.
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	fields, err := docstore.Encode(paymentDocument{
		UserID:             payment.UserID,
		UserName:           payment.UserName,
		Month:              payment.Month,
		Amount:             payment.Amount,
		Receipt:            payment.Receipt,
		ReceiptContentType: payment.ReceiptContentType,
		Status:             string(payment.Status),
		Remarks:            payment.Remarks,
	})
	if err != nil {
		return err
	}
	doc, err := r.store.Create(ctx, CollectionPayments, fields)
	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}
	payment.ID = doc.ID
	payment.SubmittedAt = doc.CreatedAt
	return nil
}

// GetByID loads one payment including its receipt.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	doc, err := r.store.Get(ctx, CollectionPayments, id)
	if err != nil {
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return decodePayment(*doc)
}

// List returns payments, most recently submitted first.
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	q := docstore.Query{OrderBy: docstore.FieldCreatedAt, Direction: docstore.Desc}
	if filter.UserID != "" {
		q.Filters = append(q.Filters, docstore.Eq("userId", filter.UserID))
	}
	if filter.Status != "" {
		q.Filters = append(q.Filters, docstore.Eq("status", string(filter.Status)))
	}
	docs, err := r.store.Query(ctx, CollectionPayments, q)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	items := make([]models.Payment, 0, len(docs))
	for _, doc := range docs {
		item, err := decodePayment(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

// UpdateStatus applies a guarded status transition, storing remarks when given.
func (r *PaymentRepository) UpdateStatus(ctx context.Context, t StatusTransition) error {
	if err := t.apply(ctx, r.store, CollectionPayments); err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	return nil
}

func decodePayment(doc docstore.Document) (*models.Payment, error) {
	var body paymentDocument
	if err := doc.Decode(&body); err != nil {
		return nil, err
	}
	return &models.Payment{
		ID:                 doc.ID,
		UserID:             body.UserID,
		UserName:           body.UserName,
		Month:              body.Month,
		Amount:             body.Amount,
		Receipt:            body.Receipt,
		ReceiptContentType: body.ReceiptContentType,
		ReceiptSize:        len(body.Receipt),
		Status:             models.ApprovalStatus(body.Status),
		Remarks:            body.Remarks,
		ReviewedBy:         body.ReviewedBy,
		SubmittedAt:        doc.CreatedAt,
		UpdatedAt:          modifiedAt(doc),
	}, nil
}

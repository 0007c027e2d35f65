package dto

// SubmitPaymentRequest is the JSON form of a payment submission. Multipart
// uploads fill the same struct from form fields and the receipt file.
type SubmitPaymentRequest struct {
	Month              string  `json:"month" form:"month"`
	Amount             float64 `json:"amount" form:"amount"`
	ReceiptBase64      string  `json:"receiptBase64" form:"-"`
	ReceiptContentType string  `json:"receiptContentType" form:"-"`
}

// ReviewDecisionRequest carries admin remarks for approve/reject.
type ReviewDecisionRequest struct {
	Remarks string `json:"remarks"`
}

// PaymentQuery mirrors the admin listing filters.
type PaymentQuery struct {
	Status string `form:"status"`
	Format string `form:"format"`
}

// PaymentSubmission is a decoded payment submission handed to the workflow.
type PaymentSubmission struct {
	Month              string  `validate:"required,month"`
	Amount             float64 `validate:"gt=0,finite"`
	Receipt            []byte
	ReceiptContentType string
}

package connectors

// AttemptStatus is the normalized state of a payment attempt.
type AttemptStatus string

const (
	StatusStarted               AttemptStatus = "started"
	StatusAuthenticationFailed  AttemptStatus = "authentication_failed"
	StatusAuthenticationPending AttemptStatus = "authentication_pending"
	StatusAuthorizing           AttemptStatus = "authorizing"
	StatusAuthorized            AttemptStatus = "authorized"
	StatusAuthorizationFailed   AttemptStatus = "authorization_failed"
	StatusCharged               AttemptStatus = "charged"
	StatusCaptureInitiated      AttemptStatus = "capture_initiated"
	StatusCaptureFailed         AttemptStatus = "capture_failed"
	StatusVoided                AttemptStatus = "voided"
	StatusVoidInitiated         AttemptStatus = "void_initiated"
	StatusVoidFailed            AttemptStatus = "void_failed"
	StatusPending               AttemptStatus = "pending"
	StatusFailure               AttemptStatus = "failure"
)

type RefundStatus string

const (
	RefundPending            RefundStatus = "pending"
	RefundSuccess            RefundStatus = "success"
	RefundFailure            RefundStatus = "failure"
	RefundManualReview       RefundStatus = "manual_review"
	RefundTransactionFailure RefundStatus = "transaction_failure"
)

// StatusMap is a total mapping from connector literals to normalized
// statuses: anything not listed maps to Fallback.
type StatusMap[K comparable, S any] struct {
	Known    map[K]S
	Fallback S
}

func (m StatusMap[K, S]) Map(k K) S {
	if s, ok := m.Known[k]; ok {
		return s
	}
	return m.Fallback
}

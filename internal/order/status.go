package order

// Status is the order lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// CanTransition reports whether an order may move from one status to another.
// Orders only ever leave pending: a verified payment result settles them as
// paid or cancelled and both are terminal.
func CanTransition(from, to Status) bool {
	if from != StatusPending {
		return false
	}
	return to == StatusPaid || to == StatusCancelled
}

package redemption

// Transition is the plan for moving a request between two states. Side
// effects are applied by the service inside one transaction.
type Transition struct {
	From Status
	To   Status
	// Noop is set when the request is already in the target state.
	Noop bool

	DecrementStock bool
	IncrementStock bool
	Refund         bool
}

type edge struct{ from, to Status }

var transitions = map[edge]Transition{
	{StatusPending, StatusApproved}:  {DecrementStock: true},
	{StatusPending, StatusRejected}:  {Refund: true},
	{StatusApproved, StatusRejected}: {IncrementStock: true, Refund: true},
	{StatusApproved, StatusShipped}:  {},
	{StatusShipped, StatusDelivered}: {},
}

// Plan returns the side effects of moving from one state to another.
// Repeating the current state is a no-op; any pair outside the table is an
// *InvalidTransitionError.
func Plan(from, to Status) (Transition, error) {
	if from == to {
		return Transition{From: from, To: to, Noop: true}, nil
	}
	if from.Terminal() {
		return Transition{}, &InvalidTransitionError{From: from, To: to}
	}
	t, ok := transitions[edge{from, to}]
	if !ok {
		return Transition{}, &InvalidTransitionError{From: from, To: to}
	}
	t.From, t.To = from, to
	return t, nil
}

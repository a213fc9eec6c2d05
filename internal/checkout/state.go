package checkout

type State int

const (
	Idle State = iota
	PlanSelected
	AwaitingEmail
	Creating
	AwaitingPayment
	Paid
	Failed
)

var stateNames = map[State]string{
	Idle:            "idle",
	PlanSelected:    "plan_selected",
	AwaitingEmail:   "awaiting_email",
	Creating:        "creating",
	AwaitingPayment: "awaiting_payment",
	Paid:            "paid",
	Failed:          "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// editable reports whether the order (bumps, email) may still change.
func (s State) editable() bool {
	return s == PlanSelected || s == AwaitingEmail
}

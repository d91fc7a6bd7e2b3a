package task

// Event is a lifecycle event applied to a task.
type Event string

const (
	// EventBeginEvaluation moves a freshly created task into evaluation when
	// the first specialist proposal arrives.
	EventBeginEvaluation Event = "begin_evaluation"
	// EventAcceptEvaluation binds a specialist and advances to evaluated.
	EventAcceptEvaluation Event = "accept_evaluation"
	// EventCapturePayment escrows the client's funds for the accepted cost.
	EventCapturePayment Event = "capture_payment"
	// EventStartWork marks the bound specialist as working.
	EventStartWork Event = "start_work"
	// EventComplete finishes the work and settles the escrowed payment.
	EventComplete Event = "complete"
	// EventCancel terminates a non-terminal task, refunding any capture.
	EventCancel Event = "cancel"
	// EventReject is the admin branch out of evaluation.
	EventReject Event = "reject"
)

// transitions is the lifecycle edge table. Cancel is handled separately
// because it is reachable from every non-terminal status.
var transitions = map[Status]map[Event]Status{
	StatusCreated: {
		EventBeginEvaluation: StatusEvaluating,
	},
	StatusEvaluating: {
		EventAcceptEvaluation: StatusEvaluated,
		EventReject:           StatusRejected,
	},
	StatusEvaluated: {
		EventCapturePayment: StatusPaid,
		EventReject:         StatusRejected,
	},
	StatusPaid: {
		EventStartWork: StatusInProgress,
	},
	StatusInProgress: {
		EventComplete: StatusCompleted,
	},
}

// Next returns the status reached by applying ev to from, and whether the
// edge exists. Any edge not in the table is an invalid transition.
func Next(from Status, ev Event) (Status, bool) {
	if ev == EventCancel {
		if from.Terminal() {
			return "", false
		}
		return StatusCancelled, true
	}
	to, ok := transitions[from][ev]
	return to, ok
}

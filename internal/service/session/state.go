package session

import "github.com/calmora/calmora_backend/internal/model"

// transitions is the complete edge set of the lifecycle graph. Every mutating
// operation consults it before touching a record, so no operation can ever
// produce a state outside this table.
//
// Cancellation is legal from every state except completed, cancelled, missed
// and archived. A join attempt outside the window is a returned decision
// (NotYet/TooLate), not a stored state, so it has no edge here.
var transitions = map[model.State][]model.State{
	model.StateCreated:          {model.StatePaymentConfirmed, model.StatePaymentFailed, model.StateCancelled},
	model.StatePaymentConfirmed: {model.StateIntakeComplete, model.StateIntakeSkipped, model.StateCancelled},
	model.StatePaymentFailed:    {model.StateCancelled},
	model.StateIntakeComplete:   {model.StateWaiting, model.StateCancelled},
	model.StateIntakeSkipped:    {model.StateWaiting, model.StateCancelled},
	model.StateWaiting:          {model.StateLive, model.StateMissed, model.StateCancelled},
	model.StateLive:             {model.StateCompleted, model.StateInterrupted, model.StateCancelled},
	model.StateInterrupted:      {model.StateLive, model.StateCancelled},
	model.StateCompleted:        {model.StateArchived},
	model.StateCancelled:        {},
	model.StateMissed:           {},
	model.StateArchived:         {},
}

func canTransition(from, to model.State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

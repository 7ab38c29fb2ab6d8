package envelope

import "github.com/moneywise/core/eventstore"

// Defs returns the event registry definitions of the envelope context.
// Tags are stable stored discriminators - renaming a go type never touches
// stored history. The "budget." aliases keep streams written by the legacy
// budget vocabulary readable
func Defs() []eventstore.Def {
	return []eventstore.Def{
		{
			Tag:     "envelope.opened.v1",
			Event:   EnvelopeOpened{},
			Aliases: []string{"budget.envelope-created.v1"},
		},
		{
			Tag:     "envelope.credited.v1",
			Event:   EnvelopeCredited{},
			Aliases: []string{"budget.envelope-credited.v1"},
		},
		{
			Tag:     "envelope.debited.v1",
			Event:   EnvelopeDebited{},
			Aliases: []string{"budget.envelope-debited.v1"},
		},
		{
			Tag:     "envelope.deleted.v1",
			Event:   EnvelopeDeleted{},
			Aliases: []string{"budget.envelope-deleted.v1"},
		},
	}
}

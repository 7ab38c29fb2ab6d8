package envelope

// EnvelopeOpened domain event indicates that a new budget envelope
// has been opened
type EnvelopeOpened struct {
	EnvelopeID   string
	UserID       string
	Name         string
	TargetAmount int64
	Currency     string
}

// EnvelopeCredited domain event indicates that the envelope balance
// has been increased
type EnvelopeCredited struct {
	Amount   int64
	Currency string
}

// EnvelopeDebited domain event indicates that the envelope balance
// has been decreased
type EnvelopeDebited struct {
	Amount   int64
	Currency string
}

// EnvelopeDeleted is the envelope tombstone - the envelope is logically
// deleted while its full history remains for audit and rewind
type EnvelopeDeleted struct {
	EnvelopeID string
}

package orders

type Status string

const (
	StatusPending    Status = "pending"
	StatusPaid       Status = "paid"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusPaid: true},
	StatusPaid:       {StatusProcessing: true},
	StatusProcessing: {StatusCompleted: true, StatusFailed: true},
	StatusCompleted:  {},
	StatusFailed:     {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	next, ok := validNext[s]
	return ok && len(next) == 0
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

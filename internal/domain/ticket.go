package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusSolved     TicketStatus = "SOLVED"

	// Extended taxonomy used by strict deployments.
	TicketStatusResolved  TicketStatus = "RESOLVED"
	TicketStatusNeedsDev  TicketStatus = "NEEDS_DEVELOPMENT"
	TicketStatusReopened  TicketStatus = "REOPENED"
	TicketStatusCompleted TicketStatus = "COMPLETED"
)

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "LOW"
	TicketPriorityMedium TicketPriority = "MEDIUM"
	TicketPriorityHigh   TicketPriority = "HIGH"
	TicketPriorityUrgent TicketPriority = "URGENT"
)

// Valid reports whether the priority is a known enum value.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityUrgent:
		return true
	}
	return false
}

// TicketCategory classifies the request.
type TicketCategory string

const (
	CategoryAccount        TicketCategory = "ACCOUNT"
	CategoryBilling        TicketCategory = "BILLING"
	CategoryTechnical      TicketCategory = "TECHNICAL"
	CategoryFeatureRequest TicketCategory = "FEATURE_REQUEST"
	CategoryOther          TicketCategory = "OTHER"
)

// Valid reports whether the category is a known enum value.
func (c TicketCategory) Valid() bool {
	switch c {
	case CategoryAccount, CategoryBilling, CategoryTechnical, CategoryFeatureRequest, CategoryOther:
		return true
	}
	return false
}

// Ticket is the aggregate for support requests. Owner, assignee and
// response authors are resolved references so a snapshot is
// self-sufficient for rendering and redaction.
type Ticket struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    TicketCategory `json:"category"`
	Status      TicketStatus   `json:"status"`
	Priority    TicketPriority `json:"priority"`
	Owner       UserRef        `json:"user"`
	Assignee    *UserRef       `json:"assigned_to"`
	Responses   []Response     `json:"responses"`

	// Summary fields derived from Responses; recomputed whenever the
	// response list changes, including after redaction.
	LatestResponse *Response `json:"latest_response"`
	ResponseCount  int       `json:"response_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy. Snapshots are shared across many
// recipients during fan-out, so per-recipient transformations must
// work on independent copies.
func (t Ticket) Clone() Ticket {
	out := t
	if t.Assignee != nil {
		assignee := *t.Assignee
		out.Assignee = &assignee
	}
	if t.Responses != nil {
		out.Responses = make([]Response, len(t.Responses))
		copy(out.Responses, t.Responses)
	}
	if t.LatestResponse != nil {
		latest := *t.LatestResponse
		out.LatestResponse = &latest
	}
	return out
}

// RecomputeSummary refreshes LatestResponse and ResponseCount from the
// current response list. Responses are kept in submission order, so the
// latest one is the last element.
func (t *Ticket) RecomputeSummary() {
	t.ResponseCount = len(t.Responses)
	if len(t.Responses) == 0 {
		t.LatestResponse = nil
		return
	}
	latest := t.Responses[len(t.Responses)-1]
	t.LatestResponse = &latest
}

var baseTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress},
	TicketStatusInProgress: {TicketStatusSolved},
	TicketStatusSolved:     {TicketStatusReopened},
	TicketStatusReopened:   {TicketStatusInProgress},
}

var strictTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusOpen:       {TicketStatusInProgress},
	TicketStatusInProgress: {TicketStatusResolved, TicketStatusNeedsDev, TicketStatusReopened},
	TicketStatusResolved:   {TicketStatusCompleted, TicketStatusReopened},
	TicketStatusNeedsDev:   {TicketStatusCompleted, TicketStatusReopened},
	TicketStatusCompleted:  {TicketStatusReopened},
	TicketStatusReopened:   {TicketStatusInProgress},
}

// ValidTransition reports whether moving from current to next is
// allowed. Strict mode enables the extended taxonomy; in both modes
// REOPENED is reachable from every closed state.
func ValidTransition(current, next TicketStatus, strict bool) bool {
	table := baseTransitions
	if strict {
		table = strictTransitions
	}
	for _, candidate := range table[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Closed reports whether the status is a terminal ("closed") state.
func (s TicketStatus) Closed() bool {
	switch s {
	case TicketStatusSolved, TicketStatusResolved, TicketStatusCompleted:
		return true
	}
	return false
}

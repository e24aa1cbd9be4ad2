package model

// EventAffiliated is the Subscan event id emitted when an account is affiliated.
const EventAffiliated = "AccountAffiliated"

// EventAccount is one resolved affiliation event.
type EventAccount struct {
	EventIndex string
	Affiliator string
	Affiliatee string
}

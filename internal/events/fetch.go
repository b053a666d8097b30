package events

import "time"

// FetchStart is emitted before an outgoing catalog API request. Cache hits
// never reach the network and emit no events.
type FetchStart struct {
	Method string
	URL    string
}

// FetchFinish is emitted after an outgoing catalog API request completes.
type FetchFinish struct {
	Method   string
	URL      string
	Status   int
	Err      error
	Duration time.Duration
}

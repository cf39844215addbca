package status

import (
	"time"

	"github.com/lllypuk/statuswatch/internal/domain/uuid"
)

// PollSample is one raw reachability probe of an endpoint.
type PollSample struct {
	URL          string
	OK           bool
	StatusCode   int
	ResponseTime time.Duration
	Error        string
	Timestamp    time.Time
}

// EndpointStatusEntry is one persisted poll result. Entries are append-only.
type EndpointStatusEntry struct {
	ApplicationID  uuid.UUID
	URL            string
	Timestamp      time.Time
	OK             bool
	ResponseTimeMs *int64
	StatusCode     int
	Error          string
}

// NewEndpointStatusEntry builds the history entry for a sample.
func NewEndpointStatusEntry(applicationID uuid.UUID, sample PollSample) EndpointStatusEntry {
	ts := sample.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	entry := EndpointStatusEntry{
		ApplicationID: applicationID,
		URL:           sample.URL,
		Timestamp:     ts,
		OK:            sample.OK,
		StatusCode:    sample.StatusCode,
		Error:         sample.Error,
	}
	if sample.ResponseTime > 0 {
		ms := sample.ResponseTime.Milliseconds()
		entry.ResponseTimeMs = &ms
	}
	return entry
}

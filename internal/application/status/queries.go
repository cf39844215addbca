package status

import "github.com/lllypuk/statuswatch/internal/domain/status"

const (
	// DefaultEntriesTop number of history entries returned when top is not set
	DefaultEntriesTop = 200
	// MaxEntriesTop upper bound for top
	MaxEntriesTop = 1000
)

// ListApplicationsQuery список приложений тенанта
type ListApplicationsQuery struct {
	Actor status.Actor
}

func (q ListApplicationsQuery) QueryName() string { return "ListApplications" }

// GetApplicationQuery приложение по appKey
type GetApplicationQuery struct {
	Actor  status.Actor
	AppKey string
}

func (q GetApplicationQuery) QueryName() string { return "GetApplication" }

// GetEndpointEntriesQuery последние результаты опроса
type GetEndpointEntriesQuery struct {
	Actor  status.Actor
	AppKey string
	Top    int
}

func (q GetEndpointEntriesQuery) QueryName() string { return "GetEndpointEntries" }

package cache

import "time"

// Event is a domain occurrence that may invalidate cached entries.
type Event string

const (
	EventStageChanged         Event = "stage_changed"
	EventInterviewRescheduled Event = "interview_rescheduled"
	EventCatalogChanged       Event = "catalog_changed"
)

// Class names used by the workflow engine and service.
const (
	ClassAnalytics = "analytics"
	ClassCatalog   = "catalog"
)

// Default TTLs per class.
const (
	DefaultAnalyticsTTL = 30 * time.Second
	DefaultCatalogTTL   = time.Hour
)

// Class is a named expiry policy shared by related keys.
type Class struct {
	Name         string
	TTL          time.Duration
	InvalidateOn []Event
}

// listens reports whether the class drops entries on ev.
func (c Class) listens(ev Event) bool {
	for _, e := range c.InvalidateOn {
		if e == ev {
			return true
		}
	}
	return false
}

// AnalyticsClass keeps stage counts near real time.
func AnalyticsClass(ttl time.Duration) Class {
	if ttl <= 0 {
		ttl = DefaultAnalyticsTTL
	}
	return Class{
		Name:         ClassAnalytics,
		TTL:          ttl,
		InvalidateOn: []Event{EventStageChanged, EventInterviewRescheduled},
	}
}

// CatalogClass covers effectively static stage metadata.
func CatalogClass(ttl time.Duration) Class {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return Class{
		Name:         ClassCatalog,
		TTL:          ttl,
		InvalidateOn: []Event{EventCatalogChanged},
	}
}

// DefaultClasses returns the analytics and catalog classes with default TTLs.
func DefaultClasses() []Class {
	return []Class{AnalyticsClass(0), CatalogClass(0)}
}

package utils

import "strings"

// cache key builders for the event read cache. Versioned so a shape change
// just bumps the suffix instead of flushing by hand.

func EventCacheKey(eventID string) string {
	return "events:get:v1:" + eventID
}

func EventsListCacheKey(status *string) string {
	s := ""
	if status != nil {
		s = strings.ToLower(strings.TrimSpace(*status))
	}

	return "events:list:v1:status=" + s
}

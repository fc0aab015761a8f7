package models

import "time"

// RateLimitEntry is one client's fixed window.
type RateLimitEntry struct {
	Count     int64     `json:"count"`
	ResetTime time.Time `json:"reset_time"`
}

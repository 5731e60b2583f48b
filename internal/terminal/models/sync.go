package models

import (
	"encoding/json"
	"time"
)

// QueueEntry wraps one entity snapshot taken at mutation time, as stored in
// the durable queue. The payload is the exact JSON that will be sent to the
// server; re-reading the live record at push time would lose intermediate
// states and is deliberately avoided.
type QueueEntry struct {
	ID         int64
	EntityType EntityType
	Payload    json.RawMessage
	CreatedAt  time.Time
	RetryCount int
	LastError  string
}

// SyncLogRecord is one line of the bounded per-type sync log kept for the
// diagnostics view.
type SyncLogRecord struct {
	ID         int64
	EntityType EntityType
	Count      int
	Success    bool
	Message    string
	CreatedAt  time.Time
}

// PushResponse is the server's answer to a batch upsert. SkippedLocalIDs
// names the records the server could not accept yet; those must stay queued
// and be resubmitted on a later cycle.
type PushResponse struct {
	Success         bool    `json:"success"`
	Count           int     `json:"count"`
	Message         string  `json:"message,omitempty"`
	SkippedLocalIDs []int64 `json:"skippedLocalIds,omitempty"`
}

// DiffResponse is the changed-since result set. Ts is the server clock at
// diff time and becomes the client's next cursor; using the server clock
// keeps terminals with skewed clocks from drifting past each other's writes.
type DiffResponse struct {
	Ts         time.Time  `json:"ts"`
	Products   []Product  `json:"products"`
	Menus      []Menu     `json:"menus"`
	Categories []Category `json:"categories"`
	Users      []User     `json:"users"`
}

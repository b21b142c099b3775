package models

import (
	"errors"
	"time"
)

// ObjectEvent is the notification published when a payload object lands in
// the document store. Only the object key is required; the producer side
// fills the rest on a best-effort basis.
type ObjectEvent struct {
	ObjectKey string    `json:"object_key"`
	Bucket    string    `json:"bucket,omitempty"`
	EventTime time.Time `json:"event_time,omitempty"`
}

func (e *ObjectEvent) Validate() error {
	if e.ObjectKey == "" {
		return errors.New("object event has no object key")
	}
	return nil
}

package watch

import (
	"time"

	"github.com/paranoidxc/JournalDB/face"
)

type WatcherEventType string

const (
	Create WatcherEventType = "CREATE"
	Update WatcherEventType = "UPDATE"
	Delete WatcherEventType = "DELETE"
)

type WatcherEvent struct {
	EventType      WatcherEventType
	Key            face.Key
	OldPos         *face.Location
	NewPos         *face.Location
	EventTimestamp time.Time
}

func NewCreateWatcherEvent(key face.Key, newPos *face.Location) WatcherEvent {
	return makeNew(Create, key, nil, newPos)
}

func NewUpdateWatcherEvent(key face.Key, oldPos, newPos *face.Location) WatcherEvent {
	return makeNew(Update, key, oldPos, newPos)
}

func NewDeleteWatcherEvent(key face.Key, oldPos *face.Location) WatcherEvent {
	return makeNew(Delete, key, oldPos, nil)
}

func makeNew(eventType WatcherEventType, key face.Key, oldPos, newPos *face.Location) WatcherEvent {
	return WatcherEvent{
		EventType:      eventType,
		Key:            key,
		OldPos:         oldPos,
		NewPos:         newPos,
		EventTimestamp: time.Now(),
	}
}

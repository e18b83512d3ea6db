package service

// Broadcaster pushes live events to connected survey owners (avoids import cycle)
type Broadcaster interface {
	BroadcastToOwners(slug string, msgType string, payload interface{})
}

type nopBroadcaster struct{}

func (nopBroadcaster) BroadcastToOwners(string, string, interface{}) {}

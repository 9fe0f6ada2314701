package gxrpc

// TopicHandler is called when a validated frame arrives for a subscribed
// topic. The data slice is only valid for the duration of the call; copy it
// if it is needed afterwards. The returned status is sent back in the
// acknowledgement frame when the publisher requested one.
type TopicHandler func(topicID uint8, data []byte, status Status) Status

type topicEntry struct {
	topicID uint8
	handler TopicHandler
	used    bool
}

// topicTable is a fixed-capacity registry of topic subscriptions. Identifiers
// are unique among occupied entries; lookup is a linear scan.
type topicTable struct {
	entries []topicEntry
}

func newTopicTable(capacity int) *topicTable {
	return &topicTable{entries: make([]topicEntry, capacity)}
}

func (t *topicTable) find(topicID uint8) *topicEntry {
	for i := range t.entries {
		if t.entries[i].used && t.entries[i].topicID == topicID {
			return &t.entries[i]
		}
	}
	return nil
}

func (t *topicTable) add(topicID uint8, handler TopicHandler) bool {
	if t.find(topicID) != nil {
		return false
	}
	for i := range t.entries {
		if !t.entries[i].used {
			t.entries[i] = topicEntry{topicID: topicID, handler: handler, used: true}
			return true
		}
	}
	// no free slot
	return false
}

func (t *topicTable) remove(topicID uint8) bool {
	e := t.find(topicID)
	if e == nil {
		return false
	}
	e.used = false
	e.handler = nil
	return true
}

func (t *topicTable) count() int {
	n := 0
	for i := range t.entries {
		if t.entries[i].used {
			n++
		}
	}
	return n
}

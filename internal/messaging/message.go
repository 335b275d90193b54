// Package messaging carries tagged messages between the page context
// (scanner and updater) and the background relay. The tag set mirrors the
// three phases of a collection cycle and dispatch over it must be an
// exhaustive switch.
package messaging

import "go-page-translator/pkg/models"

// MessageTag identifies the payload variant of a Message.
type MessageTag int

const (
	// TagStart triggers a new collection cycle. No payload.
	TagStart MessageTag = iota
	// TagFound carries the scanner's descriptor sequence to the relay.
	TagFound
	// TagReplace carries processed results back to the page context.
	TagReplace
)

func (t MessageTag) String() string {
	switch t {
	case TagStart:
		return "START"
	case TagFound:
		return "FOUND"
	case TagReplace:
		return "REPLACE"
	default:
		return "UNKNOWN"
	}
}

// Message is one unit of traffic on the page/background channel. CycleID is
// the opaque originating-context token: REPLACE messages are routed back to
// the cycle whose FOUND produced them.
type Message struct {
	Tag     MessageTag
	CycleID string
	Images  []models.ImageDescriptor // TagFound only
	Results []models.ProcessedResult // TagReplace only
}

// NewStart builds a START message.
func NewStart(cycleID string) Message {
	return Message{Tag: TagStart, CycleID: cycleID}
}

// NewFound builds a FOUND message with the collected descriptors.
func NewFound(cycleID string, images []models.ImageDescriptor) Message {
	return Message{Tag: TagFound, CycleID: cycleID, Images: images}
}

// NewReplace builds a REPLACE message with the processing results.
func NewReplace(cycleID string, results []models.ProcessedResult) Message {
	return Message{Tag: TagReplace, CycleID: cycleID, Results: results}
}

package tracking

import (
	"encoding/json"
	"io"
	"os"
	"time"
)

// MoveEvent is one line of a move trace.
type MoveEvent struct {
	MoveNumber int    `json:"move"`
	Attempt    string `json:"attempt"`
	Node       int    `json:"node"`
	FromPart   int    `json:"from_part"`
	ToPart     int    `json:"to_part"`
	Cut        int64  `json:"cut"`
	Recorded   bool   `json:"recorded"`
	Timestamp  int64  `json:"timestamp"`
}

// MoveTracker writes accepted node moves as JSON lines. A nil tracker
// ignores every call.
type MoveTracker struct {
	closer  io.Closer
	encoder *json.Encoder
	moves   int
	err     error
}

// NewMoveTracker creates (or truncates) filename and traces into it.
func NewMoveTracker(filename string) (*MoveTracker, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	mt := NewMoveTrackerWriter(file)
	mt.closer = file
	return mt, nil
}

// NewMoveTrackerWriter traces into w. Close does not close w.
func NewMoveTrackerWriter(w io.Writer) *MoveTracker {
	return &MoveTracker{encoder: json.NewEncoder(w)}
}

// LogMove appends one event. After the first write error further events are
// dropped; the error is reported by Close.
func (mt *MoveTracker) LogMove(attempt string, node, fromPart, toPart int, cut int64, recorded bool) {
	if mt == nil || mt.err != nil {
		return
	}
	mt.moves++
	mt.err = mt.encoder.Encode(MoveEvent{
		MoveNumber: mt.moves,
		Attempt:    attempt,
		Node:       node,
		FromPart:   fromPart,
		ToPart:     toPart,
		Cut:        cut,
		Recorded:   recorded,
		Timestamp:  time.Now().Unix(),
	})
}

// Moves returns the number of events logged so far.
func (mt *MoveTracker) Moves() int {
	if mt == nil {
		return 0
	}
	return mt.moves
}

// Close flushes the trace file and returns the first write error, if any.
func (mt *MoveTracker) Close() error {
	if mt == nil {
		return nil
	}
	if mt.closer != nil {
		if err := mt.closer.Close(); err != nil && mt.err == nil {
			mt.err = err
		}
		mt.closer = nil
	}
	return mt.err
}

package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	ScanStarted Type = iota + 1
	ScanComplete
	StageComplete
	FileHashed
	FileSkipped
	GroupFound
	KeepFile
	DeleteFile
	MoveFile
	ActionSkipped
	ActionFailed
)

var typeNames = [...]string{
	ScanStarted:   "ScanStarted",
	ScanComplete:  "ScanComplete",
	StageComplete: "StageComplete",
	FileHashed:    "FileHashed",
	FileSkipped:   "FileSkipped",
	GroupFound:    "GroupFound",
	KeepFile:      "KeepFile",
	DeleteFile:    "DeleteFile",
	MoveFile:      "MoveFile",
	ActionSkipped: "ActionSkipped",
	ActionFailed:  "ActionFailed",
}

func (t Type) String() string {
	if int(t) > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Stage names carried by StageComplete events.
const (
	StageWalk    = "walk"
	StageSize    = "size"
	StagePartial = "partial"
	StageFull    = "full"
)

// Event represents a single progress event from the engine or action layer.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string // file path; destination for MoveFile is in Target
	Target    string
	Stage     string // StageComplete only
	Digest    string
	Size      int64 // file size, or bytes in the stage for StageComplete
	Count     int64 // candidate count for StageComplete, members for GroupFound
	DryRun    bool
	Error     error
	WorkerID  int
}

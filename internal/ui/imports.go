package ui

import "github.com/bamsammich/dedupe/internal/event"

// Event is the engine's progress event.
type Event = event.Event

// Re-export event types for convenience.
const (
	ScanStarted   = event.ScanStarted
	ScanComplete  = event.ScanComplete
	StageComplete = event.StageComplete
	FileHashed    = event.FileHashed
	FileSkipped   = event.FileSkipped
	GroupFound    = event.GroupFound
	KeepFile      = event.KeepFile
	DeleteFile    = event.DeleteFile
	MoveFile      = event.MoveFile
	ActionSkipped = event.ActionSkipped
	ActionFailed  = event.ActionFailed
)

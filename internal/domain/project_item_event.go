package domain

import "fmt"

// SimpleEventKind enumerates project item actions that carry no payload.
type SimpleEventKind string

const (
	SimpleEventCreated  SimpleEventKind = "created"
	SimpleEventArchived SimpleEventKind = "archived"
	SimpleEventRestored SimpleEventKind = "restored"
	SimpleEventDeleted  SimpleEventKind = "deleted"
)

// ParseSimpleEventKind maps a webhook action onto a SimpleEventKind by exact match.
func ParseSimpleEventKind(action string) (SimpleEventKind, bool) {
	switch kind := SimpleEventKind(action); kind {
	case SimpleEventCreated, SimpleEventArchived, SimpleEventRestored, SimpleEventDeleted:
		return kind, true
	default:
		return "", false
	}
}

// FieldType enumerates the single-select style fields mirrored as forum tags.
type FieldType string

const (
	FieldStatus    FieldType = "Status"
	FieldPriority  FieldType = "Priority"
	FieldSize      FieldType = "Size"
	FieldIteration FieldType = "Iteration"
	FieldSection   FieldType = "Section"
)

// ParseFieldType maps a project field name onto a FieldType.
func ParseFieldType(fieldName string) (FieldType, bool) {
	switch ft := FieldType(fieldName); ft {
	case FieldStatus, FieldPriority, FieldSize, FieldIteration, FieldSection:
		return ft, true
	default:
		return "", false
	}
}

// ItemRef identifies the project item an event refers to and who caused it.
type ItemRef struct {
	ItemID   int64
	NodeID   string
	Name     string
	SenderID string
}

// Ref returns the identity shared by every event variant.
func (r ItemRef) Ref() ItemRef { return r }

// ProjectItemEvent is the closed set of events relayed into the forum.
// Implementations: SimpleEvent, BodyEdited, TitleEdited, AssigneesEdited,
// SingleSelectEdited, DateEdited.
type ProjectItemEvent interface {
	Ref() ItemRef
	projectItemEvent()
}

// SimpleEvent is a created/archived/restored/deleted action.
type SimpleEvent struct {
	ItemRef
	Kind SimpleEventKind
}

// BodyEdited carries the new item description.
type BodyEdited struct {
	ItemRef
	Body string
}

// TitleEdited carries the new item title.
type TitleEdited struct {
	ItemRef
	Title string
}

// AssigneesEdited carries the current assignee node ids in tracker order.
type AssigneesEdited struct {
	ItemRef
	Assignees []string
}

// SingleSelectEdited carries the new value of a single-select or iteration field.
type SingleSelectEdited struct {
	ItemRef
	Field FieldType
	Value string
}

// DateEdited carries the new date, formatted YYYY-MM-DD.
type DateEdited struct {
	ItemRef
	Date string
}

func (SimpleEvent) projectItemEvent() {}
func (BodyEdited) projectItemEvent() {}
func (TitleEdited) projectItemEvent() {}
func (AssigneesEdited) projectItemEvent() {}
func (SingleSelectEdited) projectItemEvent() {}
func (DateEdited) projectItemEvent() {}

// EventName returns a short label for logs and counters.
func EventName(event ProjectItemEvent) string {
	switch e := event.(type) {
	case SimpleEvent:
		return string(e.Kind)
	case BodyEdited:
		return "edited_body"
	case TitleEdited:
		return "edited_title"
	case AssigneesEdited:
		return "edited_assignees"
	case SingleSelectEdited:
		return "edited_single_select"
	case DateEdited:
		return "edited_date"
	default:
		return fmt.Sprintf("%T", event)
	}
}

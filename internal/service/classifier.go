package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/spec-kit/forum-relay/internal/domain"
	apperrors "github.com/spec-kit/forum-relay/pkg/util/errorutil"
)

const (
	actionEdited  = "edited"
	unknownSender = "Unknown"
)

// Project field types reported in changes.field_value.field_type.
const (
	fieldTypeAssignees    = "assignees"
	fieldTypeTitle        = "title"
	fieldTypeSingleSelect = "single_select"
	fieldTypeIteration    = "iteration"
	fieldTypeDate         = "date"
)

type webhookPayload struct {
	Action         *string          `json:"action"`
	ProjectsV2Item *projectItemBody `json:"projects_v2_item"`
	Sender         struct {
		NodeID string `json:"node_id"`
	} `json:"sender"`
	Changes *struct {
		Body *struct {
			To *string `json:"to"`
		} `json:"body"`
		FieldValue *fieldValueChange `json:"field_value"`
	} `json:"changes"`
}

type projectItemBody struct {
	ID            int64   `json:"id"`
	NodeID        *string `json:"node_id"`
	ProjectNodeID *string `json:"project_node_id"`
}

type fieldValueChange struct {
	FieldType string          `json:"field_type"`
	FieldName string          `json:"field_name"`
	To        json.RawMessage `json:"to"`
}

// optionValue is the shape of field_value.to for single_select and iteration fields.
type optionValue struct {
	Name  *string `json:"name"`
	Title *string `json:"title"`
}

// Classifier turns raw webhook bodies into exactly one domain.ProjectItemEvent.
// Its only side effect is populating the item-name cache.
type Classifier struct {
	projectNodeID string
	names         *ItemNames
	tracker       Tracker
}

// NewClassifier constructs a classifier accepting events of the tracked project only.
func NewClassifier(projectNodeID string, names *ItemNames, tracker Tracker) *Classifier {
	return &Classifier{projectNodeID: projectNodeID, names: names, tracker: tracker}
}

// Classify parses body into a typed event, or fails with a DomainError.
func (c *Classifier) Classify(ctx context.Context, body []byte) (domain.ProjectItemEvent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, apperrors.NewValidationError("Missing request body.", nil)
	}
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, apperrors.NewValidationError("Invalid JSON payload.", nil)
	}

	item := payload.ProjectsV2Item
	if item == nil {
		return nil, missingProperty("projects_v2_item")
	}
	if item.ProjectNodeID == nil {
		return nil, missingProperty("project_node_id")
	}
	if *item.ProjectNodeID != c.projectNodeID {
		return nil, apperrors.NewInvalidProject(*item.ProjectNodeID)
	}
	if item.NodeID == nil || *item.NodeID == "" {
		return nil, missingProperty("node_id")
	}

	name, err := c.names.Name(ctx, *item.NodeID)
	if err != nil {
		return nil, err
	}

	sender := payload.Sender.NodeID
	if sender == "" {
		sender = unknownSender
	}
	ref := domain.ItemRef{ItemID: item.ID, NodeID: *item.NodeID, Name: name, SenderID: sender}

	if payload.Action == nil {
		return nil, apperrors.NewValidationError("Missing action in payload.", nil)
	}
	if *payload.Action == actionEdited {
		return c.classifyEdit(ctx, ref, payload)
	}

	kind, ok := domain.ParseSimpleEventKind(*payload.Action)
	if !ok {
		return nil, apperrors.NewUnsupportedAction(*payload.Action)
	}
	return domain.SimpleEvent{ItemRef: ref, Kind: kind}, nil
}

func (c *Classifier) classifyEdit(ctx context.Context, ref domain.ItemRef, payload webhookPayload) (domain.ProjectItemEvent, error) {
	if payload.Changes == nil {
		return nil, apperrors.NewUnrecognizedEdit("Failed to recognize the edited event.")
	}

	if changed := payload.Changes.Body; changed != nil {
		newBody := ""
		if changed.To != nil {
			newBody = *changed.To
		}
		return domain.BodyEdited{ItemRef: ref, Body: newBody}, nil
	}

	field := payload.Changes.FieldValue
	if field == nil {
		return nil, apperrors.NewUnrecognizedEdit("Failed to recognize the edited event.")
	}

	switch field.FieldType {
	case fieldTypeAssignees:
		assignees, err := c.tracker.ItemAssignees(ctx, ref.NodeID)
		if err != nil {
			return nil, apperrors.NewUpstreamLookupFailed("Failed to fetch assignees.", err)
		}
		return domain.AssigneesEdited{ItemRef: ref, Assignees: assignees}, nil

	case fieldTypeTitle:
		title, err := c.tracker.ItemTitle(ctx, ref.NodeID)
		if err != nil {
			return nil, apperrors.NewUpstreamLookupFailed("Failed to fetch item title.", err)
		}
		if title == "" {
			return nil, apperrors.NewUpstreamLookupFailed("Item title unavailable.", nil)
		}
		return domain.TitleEdited{ItemRef: ref, Title: title}, nil

	case fieldTypeSingleSelect:
		if field.FieldName == "" {
			return nil, apperrors.NewValidationError("Missing field name for single select field.", nil)
		}
		fieldType, ok := domain.ParseFieldType(field.FieldName)
		if !ok {
			return nil, apperrors.NewUnknownField(field.FieldName)
		}
		var to optionValue
		decodeOptional(field.To, &to)
		if to.Name != nil {
			return domain.SingleSelectEdited{ItemRef: ref, Field: fieldType, Value: *to.Name}, nil
		}
		value, err := c.tracker.SingleSelectValue(ctx, ref.NodeID, field.FieldName)
		if err != nil {
			return nil, apperrors.NewUpstreamLookupFailed("Failed to fetch single select value.", err)
		}
		return domain.SingleSelectEdited{ItemRef: ref, Field: fieldType, Value: value}, nil

	case fieldTypeIteration:
		var to optionValue
		decodeOptional(field.To, &to)
		if to.Title == nil {
			return nil, apperrors.NewUnrecognizedEdit("Missing new value for iteration field.")
		}
		return domain.SingleSelectEdited{ItemRef: ref, Field: domain.FieldIteration, Value: *to.Title}, nil

	case fieldTypeDate:
		var to string
		if err := json.Unmarshal(field.To, &to); err != nil || to == "" {
			return nil, apperrors.NewUnrecognizedEdit("Missing new value for date field.")
		}
		return domain.DateEdited{ItemRef: ref, Date: datePortion(to)}, nil
	}

	return nil, apperrors.NewUnrecognizedEdit("Unknown field type: " + field.FieldType)
}

// decodeOptional leaves dst zero when raw is absent, null, or not an object.
func decodeOptional(raw json.RawMessage, dst *optionValue) {
	if len(raw) == 0 {
		return
	}
	_ = json.Unmarshal(raw, dst)
}

// datePortion truncates an ISO 8601 timestamp to its YYYY-MM-DD part.
func datePortion(timestamp string) string {
	if i := strings.IndexByte(timestamp, 'T'); i >= 0 {
		return timestamp[:i]
	}
	return timestamp
}

func missingProperty(name string) error {
	return apperrors.NewValidationError("Missing property in body: "+name, map[string]any{"property": name})
}

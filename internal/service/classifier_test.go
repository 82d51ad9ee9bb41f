package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/forum-relay/internal/domain"
	"github.com/spec-kit/forum-relay/internal/repository"
	apperrors "github.com/spec-kit/forum-relay/pkg/util/errorutil"
)

const (
	testProjectID = "PVT_kwDOA"
	testItemNode  = "PVTI_lADOA"
	testSender    = "MDQ6VXNlcjY2NTE0ODg1"
)

func newTestClassifier(tracker *fakeTracker) *Classifier {
	names := NewItemNames(repository.NewItemNameRepository(repository.NewMemoryKV(), "item_name_to_node_id"), tracker)
	return NewClassifier(testProjectID, names, tracker)
}

func webhookBody(t *testing.T, action string, changes map[string]any) []byte {
	t.Helper()
	payload := map[string]any{
		"action": action,
		"projects_v2_item": map[string]any{
			"id":              int64(109),
			"node_id":         testItemNode,
			"project_node_id": testProjectID,
		},
		"sender": map[string]any{"node_id": testSender},
	}
	if changes != nil {
		payload["changes"] = changes
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return body
}

func fieldChange(fieldType, fieldName string, to any) map[string]any {
	change := map[string]any{"field_type": fieldType}
	if fieldName != "" {
		change["field_name"] = fieldName
	}
	if to != nil {
		change["to"] = to
	}
	return map[string]any{"field_value": change}
}

func TestClassify_SimpleActions(t *testing.T) {
	tracker := newFakeTracker()
	tracker.titles[testItemNode] = "audacity4"
	classifier := newTestClassifier(tracker)

	for _, action := range []string{"created", "archived", "restored", "deleted"} {
		t.Run(action, func(t *testing.T) {
			event, err := classifier.Classify(context.Background(), webhookBody(t, action, nil))
			require.NoError(t, err)

			simple, ok := event.(domain.SimpleEvent)
			require.True(t, ok, "got %T", event)
			assert.Equal(t, domain.SimpleEventKind(action), simple.Kind)
			assert.Equal(t, domain.ItemRef{ItemID: 109, NodeID: testItemNode, Name: "audacity4", SenderID: testSender}, simple.Ref())
		})
	}
	assert.Equal(t, 1, tracker.callCount("ItemTitle"), "item name is cached after the first lookup")
}

func TestClassify_Edits(t *testing.T) {
	tracker := newFakeTracker()
	tracker.titles[testItemNode] = "audacity4"
	tracker.assignees[testItemNode] = []string{"U1", "U2"}
	tracker.singleSelect[testItemNode+"/Status"] = "In Progress"

	tests := []struct {
		name    string
		changes map[string]any
		want    domain.ProjectItemEvent
	}{
		{
			name:    "body",
			changes: map[string]any{"body": map[string]any{"from": "old", "to": "Updated description"}},
			want:    domain.BodyEdited{Body: "Updated description"},
		},
		{
			name:    "body cleared",
			changes: map[string]any{"body": map[string]any{"from": "old", "to": nil}},
			want:    domain.BodyEdited{Body: ""},
		},
		{
			name:    "assignees",
			changes: fieldChange("assignees", "Assignees", nil),
			want:    domain.AssigneesEdited{Assignees: []string{"U1", "U2"}},
		},
		{
			name:    "title",
			changes: fieldChange("title", "Title", nil),
			want:    domain.TitleEdited{Title: "audacity4"},
		},
		{
			name:    "single select with value",
			changes: fieldChange("single_select", "Size", map[string]any{"id": "a1", "name": "big"}),
			want:    domain.SingleSelectEdited{Field: domain.FieldSize, Value: "big"},
		},
		{
			name:    "single select fetched",
			changes: fieldChange("single_select", "Status", nil),
			want:    domain.SingleSelectEdited{Field: domain.FieldStatus, Value: "In Progress"},
		},
		{
			name:    "iteration",
			changes: fieldChange("iteration", "Sprint", map[string]any{"id": "it1", "title": "Iteration 3"}),
			want:    domain.SingleSelectEdited{Field: domain.FieldIteration, Value: "Iteration 3"},
		},
		{
			name:    "date",
			changes: fieldChange("date", "Deadline", "2024-05-01T00:00:00+00:00"),
			want:    domain.DateEdited{Date: "2024-05-01"},
		},
	}

	ref := domain.ItemRef{ItemID: 109, NodeID: testItemNode, Name: "audacity4", SenderID: testSender}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := newTestClassifier(tracker).Classify(context.Background(), webhookBody(t, "edited", tt.changes))
			require.NoError(t, err)
			assert.Equal(t, withRef(tt.want, ref), event)
		})
	}
}

func TestClassify_SingleSelectWithValueSkipsLookup(t *testing.T) {
	tracker := newFakeTracker()
	tracker.titles[testItemNode] = "audacity4"

	_, err := newTestClassifier(tracker).Classify(context.Background(),
		webhookBody(t, "edited", fieldChange("single_select", "Priority", map[string]any{"name": "High"})))
	require.NoError(t, err)
	assert.Zero(t, tracker.callCount("SingleSelectValue"))
}

func TestClassify_Rejections(t *testing.T) {
	tracker := newFakeTracker()
	tracker.titles[testItemNode] = "audacity4"
	classifier := newTestClassifier(tracker)

	tests := []struct {
		name   string
		body   []byte
		code   string
		status int
	}{
		{"empty body", []byte("  "), apperrors.CodeValidationFailed, http.StatusBadRequest},
		{"invalid json", []byte("{"), apperrors.CodeValidationFailed, http.StatusBadRequest},
		{"missing item", []byte(`{"action":"created"}`), apperrors.CodeValidationFailed, http.StatusBadRequest},
		{"foreign project", []byte(`{"action":"created","projects_v2_item":{"id":1,"node_id":"n","project_node_id":"other"}}`), apperrors.CodeInvalidProject, http.StatusBadRequest},
		{"missing action", []byte(`{"projects_v2_item":{"id":1,"node_id":"` + testItemNode + `","project_node_id":"` + testProjectID + `"}}`), apperrors.CodeValidationFailed, http.StatusBadRequest},
		{"unsupported action", webhookBody(t, "converted", nil), apperrors.CodeUnsupportedAction, http.StatusBadRequest},
		{"edit without changes", webhookBody(t, "edited", nil), apperrors.CodeUnrecognizedEdit, http.StatusBadRequest},
		{"edit of unrelated change", webhookBody(t, "edited", map[string]any{"labels": map[string]any{}}), apperrors.CodeUnrecognizedEdit, http.StatusBadRequest},
		{"unknown field type", webhookBody(t, "edited", fieldChange("number", "Estimate", 3)), apperrors.CodeUnrecognizedEdit, http.StatusBadRequest},
		{"unknown single select field", webhookBody(t, "edited", fieldChange("single_select", "Mood", map[string]any{"name": "happy"})), apperrors.CodeUnknownField, http.StatusBadRequest},
		{"iteration without title", webhookBody(t, "edited", fieldChange("iteration", "Sprint", nil)), apperrors.CodeUnrecognizedEdit, http.StatusBadRequest},
		{"date without value", webhookBody(t, "edited", fieldChange("date", "Deadline", nil)), apperrors.CodeUnrecognizedEdit, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event, err := classifier.Classify(context.Background(), tt.body)
			require.Error(t, err)
			assert.Nil(t, event)

			domainErr := apperrors.ToDomainError(err)
			assert.Equal(t, tt.code, domainErr.Code)
			assert.Equal(t, tt.status, domainErr.HTTPStatus)
		})
	}
}

func TestClassify_UnsupportedActionMessage(t *testing.T) {
	tracker := newFakeTracker()
	tracker.titles[testItemNode] = "audacity4"

	_, err := newTestClassifier(tracker).Classify(context.Background(), webhookBody(t, "reordered", nil))
	require.Error(t, err)
	assert.Equal(t, "Unknown action type: reordered", apperrors.ToDomainError(err).Message)
}

func TestClassify_ItemNameUnavailable(t *testing.T) {
	tracker := newFakeTracker()
	tracker.err = errors.New("graphql: rate limited")

	_, err := newTestClassifier(tracker).Classify(context.Background(), webhookBody(t, "created", nil))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUpstreamLookupFailed))
	assert.Equal(t, http.StatusInternalServerError, apperrors.ToDomainError(err).HTTPStatus)

	tracker.err = nil
	_, err = newTestClassifier(tracker).Classify(context.Background(), webhookBody(t, "created", nil))
	assert.True(t, apperrors.IsCode(err, apperrors.CodeUpstreamLookupFailed), "empty title is a lookup failure")
}

func TestClassify_MissingSenderIsUnknown(t *testing.T) {
	tracker := newFakeTracker()
	tracker.titles[testItemNode] = "audacity4"
	body := []byte(`{"action":"archived","projects_v2_item":{"id":1,"node_id":"` + testItemNode + `","project_node_id":"` + testProjectID + `"}}`)

	event, err := newTestClassifier(tracker).Classify(context.Background(), body)
	require.NoError(t, err)
	assert.Equal(t, "Unknown", event.Ref().SenderID)
}

func withRef(event domain.ProjectItemEvent, ref domain.ItemRef) domain.ProjectItemEvent {
	switch e := event.(type) {
	case domain.SimpleEvent:
		e.ItemRef = ref
		return e
	case domain.BodyEdited:
		e.ItemRef = ref
		return e
	case domain.TitleEdited:
		e.ItemRef = ref
		return e
	case domain.AssigneesEdited:
		e.ItemRef = ref
		return e
	case domain.SingleSelectEdited:
		e.ItemRef = ref
		return e
	case domain.DateEdited:
		e.ItemRef = ref
		return e
	}
	return event
}

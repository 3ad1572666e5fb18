package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/dcr-inbox/internal/auth"
	"github.com/spec-kit/dcr-inbox/internal/domain"
)

const testCred = auth.Credential("amRvZTpzM2NyZXQ=")

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 2*time.Second, zap.NewNop())
}

func TestClient_WhoAmI(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/organization/whoami", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("roles"))
		assert.Equal(t, "Basic amRvZTpzM2NyZXQ=", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{
			"id": "u1", "name": "Jane Doe", "email": "jane@example.com",
			"roles": [{"id": "r1", "name": "Compliance Authority"}, {"id": "r2", "name": ""}, {"id": "r3", "name": "admin"}]
		}`))
	})

	resp, err := client.WhoAmI(context.Background(), testCred)
	require.NoError(t, err)

	actor := resp.Actor()
	assert.Equal(t, "u1", actor.ID)
	assert.Equal(t, "jane@example.com", actor.Email)
	require.Len(t, actor.Roles, 2)
	assert.Equal(t, domain.RoleKindComplianceAuthority, actor.Roles[0].Kind)
	assert.Equal(t, domain.RoleKindAdmin, actor.Roles[1].Kind)
}

func TestClient_WhoAmI_StatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := client.WhoAmI(context.Background(), testCred)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.True(t, statusErr.Unauthorized())
}

func TestClient_QueryRecords_StatusFilterAndMapping(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/result/query", r.URL.Path)
		assert.Equal(t, "crchangerequestnewdoc", q.Get("type"))
		assert.Equal(t, []string{"manager review", "pending approval"}, q["status"])
		assert.Equal(t, "20", q.Get("offset"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Empty(t, q.Get("assignedto"))
		_, _ = w.Write([]byte(`[{
			"id": "A", "title": "Update SOP",
			"priority": "high",
			"created": {"on": "2024-03-01T10:00:00Z", "by": {"id": "u9", "name": "Bob"}},
			"data": {
				"assignedto": "Manager",
				"changeRequestNumber": 42,
				"changeRequestStatus": "manager review",
				"changeType": {"id": "ct1", "label": "Minor", "value": "minor"},
				"dueDateComplete": "2024-04-01",
				"reviewers": "alice, bob ,",
				"preapproved": true
			}
		}]`))
	})

	records, err := client.QueryRecords(context.Background(), testCred, Query{
		Type:     "crchangerequestnewdoc",
		Statuses: []domain.Status{domain.StatusManagerReview, domain.StatusPendingApproval},
		Offset:   20,
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "A", rec.ID)
	assert.Equal(t, 42, rec.Number)
	assert.Equal(t, domain.StatusManagerReview, rec.Status)
	assert.Equal(t, "Manager", rec.AssignedTo)
	assert.Equal(t, "high", rec.PriorityValue())
	require.NotNil(t, rec.ChangeType)
	assert.Equal(t, "minor", rec.ChangeType.Value)
	require.NotNil(t, rec.DueDate)
	assert.Equal(t, 2024, rec.DueDate.Year())
	assert.Equal(t, []string{"alice", "bob"}, rec.Reviewers)
	assert.Equal(t, []string{}, rec.Participants)
	assert.Equal(t, "Bob", rec.CreatedBy.Name)
	assert.True(t, rec.Preapproved)
}

func TestClient_QueryRecords_AssigneeAndWrappedList(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Document Controller", r.URL.Query().Get("assignedto"))
		_, _ = w.Write([]byte(`{"documents": [{"id": "B", "status": "document controller review"}]}`))
	})

	records, err := client.QueryRecords(context.Background(), testCred, Query{Type: "cr", AssignedTo: "Document Controller", Limit: -1})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.StatusDocumentControllerReview, records[0].Status)
}

func TestClient_QueryRecords_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClient(srv.URL, time.Second, zap.NewNop())
	srv.Close()

	_, err := client.QueryRecords(context.Background(), testCred, Query{Type: "cr"})
	require.Error(t, err)
	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}

func TestClient_QueryRecords_RespectsContext(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.QueryRecords(ctx, testCred, Query{Type: "cr"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_ListDocuments(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "published", r.URL.Query().Get("type"))
		assert.Equal(t, "-1", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[{"id": "D1", "title": "Quality Manual",
			"created": {"on": "2023-01-05T00:00:00Z", "by": {"id": "u1", "name": "Ann"}},
			"data": {"name": "QM-001", "version": 3, "category": {"id": "c1", "label": "Policy", "value": "policy"}}}]`))
	})

	docs, err := client.ListDocuments(context.Background(), testCred, "published")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "QM-001", docs[0].Name)
	assert.Equal(t, 3, docs[0].Version)
	assert.Equal(t, "policy", docs[0].Category.Value)
}

func TestClient_CatalogEntries(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/system/type/name/crchangerequestnewdoc", r.URL.Path)
		_, _ = w.Write([]byte(`{"elements": [
			{"name": "changePriority", "codesystem": {"entries": [{"id": "p1", "label": "High", "value": "high"}]}},
			{"name": "relatedFolder"}
		]}`))
	})

	entries, err := client.CatalogEntries(context.Background(), testCred, "crchangerequestnewdoc", "CHANGEPRIORITY")
	require.NoError(t, err)
	assert.Equal(t, []domain.CatalogEntry{{ID: "p1", Label: "High", Value: "high"}}, entries)

	entries, err = client.CatalogEntries(context.Background(), testCred, "crchangerequestnewdoc", "relatedFolder")
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = client.CatalogEntries(context.Background(), testCred, "crchangerequestnewdoc", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_CreateChangeRequest(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/dms/create/crchangerequestnewdoc", r.URL.Path)
		assert.Equal(t, "sysfolder", r.URL.Query().Get("parenttype"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "New SOP", body["title"])
		assert.Equal(t, "document controller review", body["changeRequestStatus"])
		_, _ = w.Write([]byte(`{"id": "CR-7"}`))
	})

	record, err := client.CreateChangeRequest(context.Background(), testCred, "crchangerequestnewdoc", domain.ChangeRequestDraft{
		Title:  "New SOP",
		Status: domain.StatusDocumentControllerReview,
	})
	require.NoError(t, err)
	assert.Equal(t, "CR-7", record.ID)
	assert.Equal(t, "New SOP", record.Title)
	assert.Equal(t, domain.StatusDocumentControllerReview, record.Status)
}

func TestClient_ListRoles(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/organization/role", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("orgobjects"))
		assert.Equal(t, "Basic amRvZTpzM2NyZXQ=", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[
			{"id": "r1", "name": "Document Controller", "description": "ignored"},
			{"id": "r2", "name": " "},
			{"id": "r3", "name": "Auditor"}
		]`))
	})

	roles, err := client.ListRoles(context.Background(), testCred)
	require.NoError(t, err)
	require.Len(t, roles, 2)
	assert.Equal(t, domain.Role{ID: "r1", Name: "Document Controller", Kind: domain.RoleKindDocumentController}, roles[0])
	assert.Equal(t, domain.RoleKindUnknown, roles[1].Kind)
}

func TestClient_ListUsers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/organization/id/ORG1", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("children"))
		assert.Equal(t, "false", r.URL.Query().Get("roles"))
		_, _ = w.Write([]byte(`{
			"id": "ORG1", "name": "Quality",
			"children": [
				{"id": "u1", "name": "Jane Doe", "email": "jane@example.com", "type": "user"},
				{"id": "", "name": "orphan"},
				{"id": "u2", "name": "Bob"}
			]
		}`))
	})

	users, err := client.ListUsers(context.Background(), testCred, "ORG1")
	require.NoError(t, err)
	assert.Equal(t, []domain.UserRef{
		{ID: "u1", Name: "Jane Doe", Email: "jane@example.com"},
		{ID: "u2", Name: "Bob"},
	}, users)
}

func TestClient_ListUsers_StatusError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.ListUsers(context.Background(), testCred, "missing")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
}

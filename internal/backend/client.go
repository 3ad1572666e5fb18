// Package backend is the HTTP client for the external document-management system.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/dcr-inbox/internal/auth"
	"github.com/spec-kit/dcr-inbox/internal/domain"
)

// ErrNotFound is returned when a looked-up catalog element does not exist.
var ErrNotFound = errors.New("backend: not found")

// StatusError reports a non-2xx response from the backend.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: %s: unexpected status %d", e.Op, e.StatusCode)
}

// Unauthorized reports whether the backend rejected the credential.
func (e *StatusError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// Query selects records of one type. Zero-valued filters are omitted.
type Query struct {
	Type       string
	Statuses   []domain.Status
	AssignedTo string
	Offset     int
	// Limit of -1 asks the backend for every match.
	Limit int
}

// Client talks to the DMS REST API. Every call carries the caller's Basic credential.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a client for baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("backend"),
	}
}

// WhoAmI resolves the credential's owner with roles populated.
func (c *Client) WhoAmI(ctx context.Context, cred auth.Credential) (*WhoAmIResponse, error) {
	params := url.Values{}
	params.Set("parents", "false")
	params.Set("ancestors", "false")
	params.Set("children", "false")
	params.Set("privileges", "false")
	params.Set("roles", "true")
	params.Set("views", "false")
	params.Set("acl", "false")
	params.Set("account", "false")

	var out WhoAmIResponse
	if err := c.do(ctx, cred, http.MethodGet, "/organization/whoami", params, nil, &out, "whoami"); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueryRecords returns change request records matching q.
func (c *Client) QueryRecords(ctx context.Context, cred auth.Credential, q Query) ([]domain.ChangeRequest, error) {
	var raw json.RawMessage
	if err := c.do(ctx, cred, http.MethodGet, "/result/query", queryParams(q), nil, &raw, "query"); err != nil {
		return nil, err
	}
	var records []apiRecord
	if err := decodeList(raw, &records); err != nil {
		return nil, fmt.Errorf("backend: query: decode: %w", err)
	}
	out := make([]domain.ChangeRequest, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.toDomain())
	}
	return out, nil
}

// ListDocuments returns every published document of docType.
func (c *Client) ListDocuments(ctx context.Context, cred auth.Credential, docType string) ([]domain.Document, error) {
	var raw json.RawMessage
	q := Query{Type: docType, Limit: -1}
	if err := c.do(ctx, cred, http.MethodGet, "/result/query", queryParams(q), nil, &raw, "documents"); err != nil {
		return nil, err
	}
	var docs []apiDocument
	if err := decodeList(raw, &docs); err != nil {
		return nil, fmt.Errorf("backend: documents: decode: %w", err)
	}
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toDomain())
	}
	return out, nil
}

// CatalogEntries returns the dropdown code-system entries of element within typeName.
// Element names match case-insensitively.
func (c *Client) CatalogEntries(ctx context.Context, cred auth.Credential, typeName, element string) ([]domain.CatalogEntry, error) {
	params := url.Values{}
	params.Set("elements", "true")
	params.Set("baseparameter", "false")
	params.Set("embedcs", "true")
	params.Set("_alllocales", "false")

	var out apiTypeDefinition
	path := "/system/type/name/" + url.PathEscape(typeName)
	if err := c.do(ctx, cred, http.MethodGet, path, params, nil, &out, "catalog"); err != nil {
		return nil, err
	}
	for _, el := range out.Elements {
		if strings.EqualFold(el.Name, element) {
			if el.CodeSystem == nil {
				return []domain.CatalogEntry{}, nil
			}
			return el.CodeSystem.Entries, nil
		}
	}
	return nil, fmt.Errorf("%w: element %q", ErrNotFound, element)
}

// CreateChangeRequest creates a change request record of recordType.
func (c *Client) CreateChangeRequest(ctx context.Context, cred auth.Credential, recordType string, draft domain.ChangeRequestDraft) (*domain.ChangeRequest, error) {
	params := url.Values{}
	params.Set("parentType", recordType)
	params.Set("parenttype", "sysfolder")
	params.Set("keeplock", "false")

	var out apiRecord
	path := "/dms/create/" + url.PathEscape(recordType)
	if err := c.do(ctx, cred, http.MethodPost, path, params, draft, &out, "create"); err != nil {
		return nil, err
	}
	record := out.toDomain()
	if record.Title == "" {
		record.Title = draft.Title
	}
	if record.Status == "" {
		record.Status = draft.Status
	}
	return &record, nil
}

// ListRoles returns the organization's roles with kinds resolved.
func (c *Client) ListRoles(ctx context.Context, cred auth.Credential) ([]domain.Role, error) {
	params := url.Values{}
	params.Set("orgobjects", "true")

	var raw json.RawMessage
	if err := c.do(ctx, cred, http.MethodGet, "/organization/role", params, nil, &raw, "roles"); err != nil {
		return nil, err
	}
	var refs []RoleRef
	if err := decodeList(raw, &refs); err != nil {
		return nil, fmt.Errorf("backend: roles: decode: %w", err)
	}
	out := make([]domain.Role, 0, len(refs))
	for _, ref := range refs {
		if strings.TrimSpace(ref.Name) == "" {
			continue
		}
		out = append(out, domain.NewRole(ref.ID, ref.Name))
	}
	return out, nil
}

// ListUsers returns the direct children of the organization unit orgID.
func (c *Client) ListUsers(ctx context.Context, cred auth.Credential, orgID string) ([]domain.UserRef, error) {
	params := url.Values{}
	params.Set("parents", "false")
	params.Set("ancestors", "false")
	params.Set("children", "true")
	params.Set("allelements", "false")
	params.Set("privileges", "false")
	params.Set("roles", "false")
	params.Set("views", "false")
	params.Set("substitutesOf", "false")
	params.Set("deputies", "false")
	params.Set("account", "false")

	var out apiOrganization
	path := "/organization/id/" + url.PathEscape(orgID)
	if err := c.do(ctx, cred, http.MethodGet, path, params, nil, &out, "users"); err != nil {
		return nil, err
	}
	users := make([]domain.UserRef, 0, len(out.Children))
	for _, child := range out.Children {
		if child.ID == "" {
			continue
		}
		users = append(users, child)
	}
	return users, nil
}

func (c *Client) do(ctx context.Context, cred auth.Credential, method, path string, params url.Values, body any, out any, op string) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("backend: %s: encode body: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("backend: %s: create request: %w", op, err)
	}
	req.Header.Set("Authorization", cred.Header())
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("backend request failed",
			zap.String("op", op),
			zap.String("path", path),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return fmt.Errorf("backend: %s: %w", op, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("backend response",
		zap.String("op", op),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Op: op, StatusCode: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("backend: %s: read body: %w", op, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("backend: %s: decode: %w", op, err)
	}
	return nil
}

func queryParams(q Query) url.Values {
	params := url.Values{}
	params.Set("type", q.Type)
	params.Set("offset", strconv.Itoa(q.Offset))
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("header", "false")
	params.Set("datameta", "false")
	for _, status := range q.Statuses {
		params.Add("status", string(status))
	}
	if q.AssignedTo != "" {
		params.Set("assignedto", q.AssignedTo)
	}
	return params
}

// decodeList accepts either a bare JSON array or an object wrapping one
// under "documents", "data" or "items".
func decodeList(raw json.RawMessage, out any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return json.Unmarshal([]byte("[]"), out)
	}
	if trimmed[0] == '[' {
		return json.Unmarshal(trimmed, out)
	}
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return err
	}
	for _, key := range []string{"documents", "data", "items"} {
		if list, ok := wrapper[key]; ok {
			return decodeList(list, out)
		}
	}
	return json.Unmarshal([]byte("[]"), out)
}

package tableapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clientctl/clientctl/internal/clients"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Auth   string
	Body   string
}

func newUpstream(t *testing.T, status int, response string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var seen []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		seen = append(seen, capturedRequest{
			Method: r.Method,
			Path:   r.URL.EscapedPath(),
			Query:  r.URL.Query(),
			Auth:   r.Header.Get("Authorization"),
			Body:   string(body),
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func testClient(baseURL string) Client {
	return Client{
		BaseURL: baseURL,
		BaseID:  "appXYZ",
		Table:   "Clientes",
		Token:   "pat-secret",
		Doer:    http.DefaultClient,
	}
}

func TestListSendsFormulaAndCursor(t *testing.T) {
	srv, seen := newUpstream(t, http.StatusOK,
		`{"records":[{"id":"rec1","createdTime":"2024-01-01T00:00:00.000Z","fields":{"nome":"Ana","email":"ana@x.io"}}],"offset":"cur456"}`)

	page, err := testClient(srv.URL).List(context.Background(), ListParams{
		PageSize: 10,
		Offset:   "cur123",
		Formula:  SearchFormula("ana"),
	})
	require.NoError(t, err)

	require.Len(t, *seen, 1)
	req := (*seen)[0]
	require.Equal(t, http.MethodGet, req.Method)
	require.Equal(t, "/appXYZ/Clientes", req.Path)
	require.Equal(t, "Bearer pat-secret", req.Auth)
	require.Equal(t, []string{"10"}, req.Query["pageSize"])
	require.Equal(t, []string{"cur123"}, req.Query["offset"])
	require.Equal(t, []string{SearchFormula("ana")}, req.Query["filterByFormula"])
	require.NotContains(t, req.Query, "search")

	want := clients.Page{
		Records: []clients.Record{{
			ID:          "rec1",
			CreatedTime: "2024-01-01T00:00:00.000Z",
			Fields:      clients.Fields{Name: "Ana", Email: "ana@x.io"},
		}},
		Offset: "cur456",
	}
	if diff := cmp.Diff(want, page); diff != "" {
		t.Fatalf("page mismatch (-want +got):\n%s", diff)
	}
}

func TestListEmptyTableReturnsEmptySlice(t *testing.T) {
	srv, seen := newUpstream(t, http.StatusOK, `{}`)

	page, err := testClient(srv.URL).List(context.Background(), ListParams{})
	require.NoError(t, err)
	require.NotNil(t, page.Records)
	require.Empty(t, page.Records)
	require.Empty(t, page.Offset)
	require.Equal(t, []string{"10"}, (*seen)[0].Query["pageSize"])
	require.NotContains(t, (*seen)[0].Query, "offset")
	require.NotContains(t, (*seen)[0].Query, "filterByFormula")
}

func TestTableURLEscapesTableName(t *testing.T) {
	c := Client{BaseID: "app1", Table: "Meus Clientes"}
	require.Equal(t, "https://api.airtable.com/v0/app1/Meus%20Clientes", c.TableURL())

	c.BaseURL = "http://localhost:9999/v0/"
	require.Equal(t, "http://localhost:9999/v0/app1/Meus%20Clientes", c.TableURL())
}

func TestCreateWrapsFieldsInRecordsArray(t *testing.T) {
	srv, seen := newUpstream(t, http.StatusOK,
		`{"records":[{"id":"recNew","fields":{"nome":"Bia","email":"bia@x.io","telefone":""}}]}`)

	rec, err := testClient(srv.URL).Create(context.Background(), clients.Fields{Name: "Bia", Email: "bia@x.io"})
	require.NoError(t, err)
	require.Equal(t, "recNew", rec.ID)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte((*seen)[0].Body), &body))
	want := map[string]any{
		"records": []any{
			map[string]any{"fields": map[string]any{"nome": "Bia", "email": "bia@x.io", "telefone": ""}},
		},
	}
	if diff := cmp.Diff(want, body); diff != "" {
		t.Fatalf("body mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateSendsOnlyPatchedFields(t *testing.T) {
	srv, seen := newUpstream(t, http.StatusOK,
		`{"records":[{"id":"rec1","fields":{"nome":"Ana Maria","email":"ana@x.io"}}]}`)

	name := "Ana Maria"
	rec, err := testClient(srv.URL).Update(context.Background(), "rec1", clients.Patch{Name: &name})
	require.NoError(t, err)
	require.Equal(t, "Ana Maria", rec.Fields.Name)

	req := (*seen)[0]
	require.Equal(t, http.MethodPatch, req.Method)
	require.Equal(t, "/appXYZ/Clientes", req.Path)
	require.JSONEq(t, `{"records":[{"id":"rec1","fields":{"nome":"Ana Maria"}}]}`, req.Body)
}

func TestDeleteAddressesRecord(t *testing.T) {
	srv, seen := newUpstream(t, http.StatusOK, `{"id":"rec1","deleted":true}`)

	out, err := testClient(srv.URL).Delete(context.Background(), "rec1")
	require.NoError(t, err)
	require.Equal(t, Deleted{ID: "rec1", Deleted: true}, out)
	require.Equal(t, http.MethodDelete, (*seen)[0].Method)
	require.Equal(t, "/appXYZ/Clientes/rec1", (*seen)[0].Path)
}

func TestBlankIDRejectedLocally(t *testing.T) {
	srv, seen := newUpstream(t, http.StatusOK, `{}`)
	c := testClient(srv.URL)

	_, err := c.Delete(context.Background(), " ")
	require.ErrorIs(t, err, clients.ErrMissingID)
	_, err = c.Update(context.Background(), "", clients.Patch{})
	require.ErrorIs(t, err, clients.ErrMissingID)
	require.Empty(t, *seen)
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		text    string
	}{
		{
			name:    "object error",
			status:  http.StatusUnprocessableEntity,
			body:    `{"error":{"type":"INVALID_FILTER_BY_FORMULA","message":"bad formula"}}`,
			message: "INVALID_FILTER_BY_FORMULA: bad formula",
			text:    "table service error 422: INVALID_FILTER_BY_FORMULA: bad formula",
		},
		{
			name:    "string error",
			status:  http.StatusNotFound,
			body:    `{"error":"NOT_FOUND"}`,
			message: "NOT_FOUND",
			text:    "table service error 404: NOT_FOUND",
		},
		{
			name:   "plain body",
			status: http.StatusBadGateway,
			body:   `upstream down`,
			text:   "table service error 502: upstream down",
		},
		{
			name:   "empty body",
			status: http.StatusUnauthorized,
			text:   "table service error 401: Unauthorized",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newUpstream(t, tt.status, tt.body)
			_, err := testClient(srv.URL).List(context.Background(), ListParams{})
			require.Error(t, err)

			var se *StatusError
			require.ErrorAs(t, err, &se)
			require.Equal(t, tt.status, se.StatusCode)
			require.Equal(t, tt.message, se.Message)
			require.Equal(t, tt.text, err.Error())
		})
	}
}

func TestClampPageSize(t *testing.T) {
	require.Equal(t, DefaultPageSize, ClampPageSize(0))
	require.Equal(t, DefaultPageSize, ClampPageSize(-3))
	require.Equal(t, 1, ClampPageSize(1))
	require.Equal(t, 25, ClampPageSize(25))
	require.Equal(t, MaxPageSize, ClampPageSize(500))
}

func TestValidate(t *testing.T) {
	require.NoError(t, testClient("").Validate())
	require.ErrorContains(t, Client{BaseID: "a", Table: "b"}.Validate(), "token")
	require.ErrorContains(t, Client{Token: "t", Table: "b"}.Validate(), "base id")
	require.ErrorContains(t, Client{Token: "t", BaseID: "a"}.Validate(), "table name")
}

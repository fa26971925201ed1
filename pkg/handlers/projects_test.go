package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/apperrors"
	"github.com/coldconnect/coldconnect-engine/pkg/audit"
	"github.com/coldconnect/coldconnect-engine/pkg/auth"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
	"github.com/coldconnect/coldconnect-engine/pkg/services"
)

type projectsFixture struct {
	projects *mockProjectService
	matcher  *mockMatchService
	importer *mockImportService
	mux      *http.ServeMux
}

func newProjectsFixture() *projectsFixture {
	f := &projectsFixture{
		projects: &mockProjectService{},
		matcher:  &mockMatchService{},
		importer: &mockImportService{},
		mux:      http.NewServeMux(),
	}
	handler := NewProjectsHandler(f.projects, f.matcher, f.importer, audit.NewSecurityAuditor(zap.NewNop()), zap.NewNop())
	handler.RegisterRoutes(f.mux, auth.NewMiddleware(headerAuthService{}, zap.NewNop()), passthroughOwner)
	return f
}

func (f *projectsFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("X-Test-Email", "Ada@Example.com")
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	var resp struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NoError(t, json.Unmarshal(resp.Data, dst))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestProjectsHandler_RequiresAuth(t *testing.T) {
	f := newProjectsFixture()
	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	rec := httptest.NewRecorder()

	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProjectsHandler_Add(t *testing.T) {
	f := newProjectsFixture()
	f.projects.project = &models.Project{ID: uuid.New(), Name: "Inventory Bot", Skills: []string{"Python"}}
	f.projects.message = `Embedded project "Inventory Bot" with category "Backend".`

	rec := f.do(http.MethodPost, "/api/projects", models.ProjectFields{Name: "Inventory Bot", Skills: []string{"Python"}})

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp AddProjectResponse
	decodeData(t, rec, &resp)
	assert.Equal(t, "Inventory Bot", resp.Project.Name)
	assert.Equal(t, f.projects.message, resp.Message)
	assert.Equal(t, models.MustOwnerID("ada@example.com"), f.projects.gotOwner)
	assert.Equal(t, []string{"Python"}, f.projects.gotFields.Skills)
}

func TestProjectsHandler_Add_IngestFailureKeepsProjectID(t *testing.T) {
	f := newProjectsFixture()
	id := uuid.New()
	f.projects.project = &models.Project{ID: id, Name: "x"}
	f.projects.err = fmt.Errorf("%w: provider down", apperrors.ErrIngestionFailed)

	rec := f.do(http.MethodPost, "/api/projects", models.ProjectFields{Name: "x"})

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "ingestion_failed", body["error"])
	assert.Equal(t, id.String(), body["project_id"])
}

func TestProjectsHandler_Add_NotConfigured(t *testing.T) {
	f := newProjectsFixture()
	f.projects.project = &models.Project{ID: uuid.New()}
	f.projects.err = apperrors.ErrEmbeddingNotConfigured

	rec := f.do(http.MethodPost, "/api/projects", models.ProjectFields{Name: "x"})

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestProjectsHandler_Add_InvalidBody(t *testing.T) {
	f := newProjectsFixture()
	req := httptest.NewRequest(http.MethodPost, "/api/projects", bytes.NewBufferString("{not json"))
	req.Header.Set("X-Test-Email", "a@x.com")
	rec := httptest.NewRecorder()

	f.mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec)["error"])
}

func TestProjectsHandler_List(t *testing.T) {
	f := newProjectsFixture()
	f.projects.projects = []*models.Project{{Name: "b"}, {Name: "a"}}

	rec := f.do(http.MethodGet, "/api/projects", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var projects []models.Project
	decodeData(t, rec, &projects)
	require.Len(t, projects, 2)
	assert.Equal(t, "b", projects[0].Name)
}

func TestProjectsHandler_GetAndDelete(t *testing.T) {
	f := newProjectsFixture()
	id := uuid.New()
	f.projects.project = &models.Project{ID: id, Name: "x"}

	rec := f.do(http.MethodGet, "/api/projects/"+id.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, f.projects.gotID)

	rec = f.do(http.MethodDelete, "/api/projects/"+id.String(), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(http.MethodGet, "/api/projects/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.projects.err = apperrors.ErrNotFound
	rec = f.do(http.MethodGet, "/api/projects/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProjectsHandler_Ingest(t *testing.T) {
	f := newProjectsFixture()
	id := uuid.New()
	f.projects.message = `Embedded project "x" with category "".`

	rec := f.do(http.MethodPost, "/api/projects/"+id.String()+"/ingest", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ApiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, f.projects.message, resp.Message)
	assert.Equal(t, id, f.projects.gotID)
}

func TestProjectsHandler_Match(t *testing.T) {
	f := newProjectsFixture()
	id := uuid.New()
	f.matcher.results = []models.MatchResult{{ProjectID: id, ProjectName: "Inventory Bot", AverageScore: 0.93}}

	rec := f.do(http.MethodPost, "/api/projects/match", MatchRequest{JobDescription: "Python backend"})

	require.Equal(t, http.StatusOK, rec.Code)
	var results []models.MatchResult
	decodeData(t, rec, &results)
	require.Len(t, results, 1)
	assert.Equal(t, id, results[0].ProjectID)
	assert.Equal(t, "Python backend", f.matcher.gotJD)
	assert.Contains(t, rec.Body.String(), `"averageScore":0.93`)
}

func TestProjectsHandler_Match_EmptyIsSuccess(t *testing.T) {
	f := newProjectsFixture()
	f.matcher.results = []models.MatchResult{}

	rec := f.do(http.MethodPost, "/api/projects/match", MatchRequest{JobDescription: "Watercolor painter"})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestProjectsHandler_Match_Errors(t *testing.T) {
	f := newProjectsFixture()

	rec := f.do(http.MethodPost, "/api/projects/match", MatchRequest{JobDescription: "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	f.matcher.err = fmt.Errorf("%w: rate limited", apperrors.ErrMatchFailed)
	rec = f.do(http.MethodPost, "/api/projects/match", MatchRequest{JobDescription: "Go"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "match_failed", decodeError(t, rec)["error"])
}

func TestProjectsHandler_ImportGitHub(t *testing.T) {
	f := newProjectsFixture()
	f.importer.results = []services.ImportedProject{{Repository: "inventory-bot", Message: "ok"}, {Repository: "fork", Skipped: true}}

	rec := f.do(http.MethodPost, "/api/projects/import/github", ImportRequest{GitHubURL: "https://github.com/ada"})

	require.Equal(t, http.StatusOK, rec.Code)
	var results []services.ImportedProject
	decodeData(t, rec, &results)
	assert.Len(t, results, 2)
	assert.Equal(t, "https://github.com/ada", f.importer.gotURL)
}

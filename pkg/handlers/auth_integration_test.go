//go:build integration

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/audit"
	"github.com/coldconnect/coldconnect-engine/pkg/auth"
	"github.com/coldconnect/coldconnect-engine/pkg/database"
	"github.com/coldconnect/coldconnect-engine/pkg/embedding"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
	"github.com/coldconnect/coldconnect-engine/pkg/repositories"
	"github.com/coldconnect/coldconnect-engine/pkg/services"
	"github.com/coldconnect/coldconnect-engine/pkg/testhelpers"
	"github.com/coldconnect/coldconnect-engine/pkg/vectorindex"
)

// constantEmbedder maps every text to the same unit vector, so every chunk
// scores 1.0 against every query.
type constantEmbedder struct{}

func (constantEmbedder) Embed(ctx context.Context, texts []string, mode embedding.Mode) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

func (constantEmbedder) Dimensions() int   { return 3 }
func (constantEmbedder) ModelName() string { return "constant" }

// newAuthenticatedMux wires the real JWT, owner-scope and project stack
// against the test database. Signature verification is off, as in local
// development.
func newAuthenticatedMux(t *testing.T) (*http.ServeMux, *vectorindex.MemoryIndex) {
	t.Helper()
	engineDB := testhelpers.GetEngineDB(t)

	validator, err := auth.NewJWKSClient(context.Background(), &auth.JWKSConfig{EnableVerification: false})
	require.NoError(t, err)
	authMiddleware := auth.NewMiddleware(auth.NewAuthService(validator, zap.NewNop()), zap.NewNop())
	ownerMiddleware := database.WithOwnerContext(engineDB.DB, zap.NewNop())

	index := vectorindex.NewMemoryIndex()
	ingestion := services.NewIngestionService(constantEmbedder{}, index, zap.NewNop())
	projects := services.NewProjectService(repositories.NewProjectRepository(), ingestion, zap.NewNop())
	matcher := services.NewMatchService(constantEmbedder{}, index, services.MatchConfig{Threshold: services.DefaultMatchThreshold}, zap.NewNop())

	mux := http.NewServeMux()
	NewProjectsHandler(projects, matcher, nil, audit.NewSecurityAuditor(zap.NewNop()), zap.NewNop()).
		RegisterRoutes(mux, authMiddleware, ownerMiddleware)
	return mux, index
}

func doWithBearer(mux *http.ServeMux, method, path, bearer string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestProjectsAPI_BearerToken_EndToEnd(t *testing.T) {
	mux, index := newAuthenticatedMux(t)

	suffix := uuid.NewString()[:8]
	alice := testhelpers.GenerateTestJWTWithBearer("alice", fmt.Sprintf("Alice-%s@X.com", suffix))
	bob := testhelpers.GenerateTestJWTWithBearer("bob", fmt.Sprintf("bob-%s@y.com", suffix))

	rec := doWithBearer(mux, http.MethodPost, "/api/projects", alice, models.ProjectFields{
		Name:     "Inventory Bot",
		Skills:   []string{"Python", "Redis"},
		Category: "Backend",
		Domain:   "Retail",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var added AddProjectResponse
	decodeData(t, rec, &added)
	require.NotEqual(t, uuid.Nil, added.Project.ID)

	rec = doWithBearer(mux, http.MethodPost, "/api/projects", bob, models.ProjectFields{Name: "Bob's Store", Category: "Backend"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 2*services.FacetCount, index.Len())

	t.Run("list is owner scoped", func(t *testing.T) {
		rec := doWithBearer(mux, http.MethodGet, "/api/projects", alice, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var list []*models.Project
		decodeData(t, rec, &list)
		require.Len(t, list, 1)
		assert.Equal(t, added.Project.ID, list[0].ID)
	})

	t.Run("match never returns another owner's project", func(t *testing.T) {
		rec := doWithBearer(mux, http.MethodPost, "/api/projects/match", alice, MatchRequest{JobDescription: "Python backend inventory systems"})
		require.Equal(t, http.StatusOK, rec.Code)
		var results []models.MatchResult
		decodeData(t, rec, &results)
		require.Len(t, results, 1)
		assert.Equal(t, added.Project.ID, results[0].ProjectID)
	})

	t.Run("other owner cannot read the project", func(t *testing.T) {
		rec := doWithBearer(mux, http.MethodGet, "/api/projects/"+added.Project.ID.String(), bob, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("token without email is rejected", func(t *testing.T) {
		rec := doWithBearer(mux, http.MethodGet, "/api/projects", testhelpers.GenerateTestJWTWithBearer("anon", ""), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing token is rejected", func(t *testing.T) {
		rec := doWithBearer(mux, http.MethodGet, "/api/projects", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"

	"github.com/coldconnect/coldconnect-engine/pkg/apperrors"
	"github.com/coldconnect/coldconnect-engine/pkg/auth"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
	"github.com/coldconnect/coldconnect-engine/pkg/services"
)

type fakeScoper struct {
	err      error
	owners   []models.OwnerID
	released int
}

func (f *fakeScoper) WithOwnerScope(ctx context.Context, owner models.OwnerID) (context.Context, func(), error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	f.owners = append(f.owners, owner)
	return ctx, func() { f.released++ }, nil
}

type mockProjectService struct {
	projects []*models.Project
	listErr  error
}

var _ services.ProjectService = (*mockProjectService)(nil)

func (m *mockProjectService) AddProject(ctx context.Context, owner models.OwnerID, fields models.ProjectFields) (*models.Project, error) {
	return nil, apperrors.ErrInvalidInput
}

func (m *mockProjectService) IngestProject(ctx context.Context, owner models.OwnerID, projectID uuid.UUID) (string, error) {
	return "", apperrors.ErrInvalidInput
}

func (m *mockProjectService) AddAndIngest(ctx context.Context, owner models.OwnerID, fields models.ProjectFields) (*models.Project, string, error) {
	return nil, "", apperrors.ErrInvalidInput
}

func (m *mockProjectService) Get(ctx context.Context, owner models.OwnerID, projectID uuid.UUID) (*models.Project, error) {
	for _, p := range m.projects {
		if p.ID == projectID && p.Owner == owner {
			return p, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockProjectService) List(ctx context.Context, owner models.OwnerID) ([]*models.Project, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*models.Project
	for _, p := range m.projects {
		if p.Owner == owner {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockProjectService) Delete(ctx context.Context, owner models.OwnerID, projectID uuid.UUID) error {
	return apperrors.ErrNotFound
}

type mockMatchService struct {
	results   []models.MatchResult
	err       error
	lastOwner models.OwnerID
	lastQuery string
}

var _ services.MatchService = (*mockMatchService)(nil)

func (m *mockMatchService) Match(ctx context.Context, owner models.OwnerID, jobDescription string) ([]models.MatchResult, error) {
	m.lastOwner = owner
	m.lastQuery = jobDescription
	return m.results, m.err
}

func ctxWithEmail(email string) context.Context {
	return auth.WithClaims(context.Background(), &auth.Claims{Email: email}, "test-token")
}

// callTool invokes a tool through HandleMessage and returns the text content
// and isError flag of the result.
func callTool(t *testing.T, ctx context.Context, s *server.MCPServer, name string, args map[string]any) (string, bool) {
	t.Helper()

	request, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
		"id":      1,
	})
	require.NoError(t, err)

	resultBytes, err := json.Marshal(s.HandleMessage(ctx, request))
	require.NoError(t, err)

	var response struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(resultBytes, &response))
	require.Nil(t, response.Error, "unexpected protocol error")
	require.NotEmpty(t, response.Result.Content)
	return response.Result.Content[0].Text, response.Result.IsError
}

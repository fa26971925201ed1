package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/auth"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
	"github.com/coldconnect/coldconnect-engine/pkg/services"
)

// ProjectToolDeps contains the dependencies for the project tools.
type ProjectToolDeps struct {
	Scopes   OwnerScoper
	Projects services.ProjectService
	Matcher  services.MatchService
	Logger   *zap.Logger
}

type projectSummary struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Skills      []string  `json:"skills"`
	URL         string    `json:"url,omitempty"`
	Category    string    `json:"category,omitempty"`
	Domain      string    `json:"domain"`
}

type listProjectsResult struct {
	Projects []projectSummary `json:"projects"`
	Count    int              `json:"count"`
}

type matchProjectsResult struct {
	Matches []models.MatchResult `json:"matches"`
	Count   int                  `json:"count"`
}

// RegisterProjectTools registers list_projects, get_project and match_projects.
func RegisterProjectTools(s *server.MCPServer, deps *ProjectToolDeps) {
	registerListProjectsTool(s, deps)
	registerGetProjectTool(s, deps)
	registerMatchProjectsTool(s, deps)
}

func registerListProjectsTool(s *server.MCPServer, deps *ProjectToolDeps) {
	tool := mcp.NewTool(
		"list_projects",
		mcp.WithDescription("Lists the caller's portfolio projects with their skills and links."),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		owner, scopedCtx, cleanup, err := AcquireOwnerScope(ctx, deps.Scopes, deps.Logger, "list_projects")
		if err != nil {
			if result := AsToolAccessResult(err); result != nil {
				return result, nil
			}
			return nil, err
		}
		defer cleanup()

		projects, err := deps.Projects.List(scopedCtx, owner)
		if err != nil {
			if result := ServiceErrorResult(err); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("list projects: %w", err)
		}

		out := listProjectsResult{Projects: make([]projectSummary, 0, len(projects))}
		for _, p := range projects {
			out.Projects = append(out.Projects, toProjectSummary(p))
		}
		out.Count = len(out.Projects)
		return jsonResult(out)
	})
}

func registerGetProjectTool(s *server.MCPServer, deps *ProjectToolDeps) {
	tool := mcp.NewTool(
		"get_project",
		mcp.WithDescription("Returns one portfolio project by ID."),
		mcp.WithString("project_id",
			mcp.Required(),
			mcp.Description("Project UUID as returned by list_projects or match_projects"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		rawID, err := req.RequireString("project_id")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		projectID, err := uuid.Parse(strings.TrimSpace(rawID))
		if err != nil {
			return NewErrorResult("invalid_parameters", fmt.Sprintf("project_id %q is not a valid UUID", rawID)), nil
		}

		owner, scopedCtx, cleanup, err := AcquireOwnerScope(ctx, deps.Scopes, deps.Logger, "get_project")
		if err != nil {
			if result := AsToolAccessResult(err); result != nil {
				return result, nil
			}
			return nil, err
		}
		defer cleanup()

		project, err := deps.Projects.Get(scopedCtx, owner, projectID)
		if err != nil {
			if result := ServiceErrorResult(err); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("get project: %w", err)
		}
		return jsonResult(toProjectSummary(project))
	})
}

func registerMatchProjectsTool(s *server.MCPServer, deps *ProjectToolDeps) {
	tool := mcp.NewTool(
		"match_projects",
		mcp.WithDescription("Ranks the caller's projects against a job description. "+
			"Only projects whose mean chunk similarity exceeds the relevance threshold are returned, best first."),
		mcp.WithString("job_description",
			mcp.Required(),
			mcp.Description("Full text of the job posting"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jobDescription, err := req.RequireString("job_description")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}

		// Matching reads the shared vector index, so no owner-scoped connection is held.
		owner, err := auth.OwnerFromContext(ctx)
		if err != nil {
			return NewErrorResult("unauthorized", "authentication required: "+err.Error()), nil
		}

		matches, err := deps.Matcher.Match(ctx, owner, jobDescription)
		if err != nil {
			if result := ServiceErrorResult(err); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("match projects: %w", err)
		}

		deps.Logger.Debug("match_projects completed",
			zap.String("owner", owner.String()),
			zap.Int("matches", len(matches)))

		if matches == nil {
			matches = []models.MatchResult{}
		}
		return jsonResult(matchProjectsResult{Matches: matches, Count: len(matches)})
	})
}

func toProjectSummary(p *models.Project) projectSummary {
	skills := p.Skills
	if skills == nil {
		skills = []string{}
	}
	return projectSummary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Skills:      skills,
		URL:         p.URL,
		Category:    p.Category,
		Domain:      p.DomainOrDefault(),
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

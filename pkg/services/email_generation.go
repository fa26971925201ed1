package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/adapters/emailservice"
	"github.com/coldconnect/coldconnect-engine/pkg/apperrors"
	"github.com/coldconnect/coldconnect-engine/pkg/config"
	"github.com/coldconnect/coldconnect-engine/pkg/llm"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
	"github.com/coldconnect/coldconnect-engine/pkg/prompts"
	"github.com/coldconnect/coldconnect-engine/pkg/repositories"
)

// maxPromptProjects caps how many matched projects the model sees.
const maxPromptProjects = 3

const emailTemperature = 0.4

// EmailGenerationRequest describes the role an email is drafted for.
type EmailGenerationRequest struct {
	JobURL         string    `json:"job_url"`
	JobDescription string    `json:"job_description,omitempty"`
	ResumeID       uuid.UUID `json:"resume_id"`
}

// EmailGenerator drafts an outreach email. The context must carry an owner
// scope for owner.
type EmailGenerator interface {
	Generate(ctx context.Context, owner models.OwnerID, req EmailGenerationRequest) (*models.EmailDraft, error)
}

// DraftClient is the external generation service.
type DraftClient interface {
	Generate(ctx context.Context, jobURL string, resume emailservice.Resume) (*models.EmailDraft, error)
}

// ============================================================================
// Remote generator
// ============================================================================

type remoteEmailGenerator struct {
	client  DraftClient
	resumes repositories.ResumeRepository
	logger  *zap.Logger
}

var _ EmailGenerator = (*remoteEmailGenerator)(nil)

// NewRemoteEmailGenerator forwards the job URL and a stored résumé to the
// external generation service.
func NewRemoteEmailGenerator(client DraftClient, resumes repositories.ResumeRepository, logger *zap.Logger) EmailGenerator {
	return &remoteEmailGenerator{
		client:  client,
		resumes: resumes,
		logger:  logger.Named("email-generator"),
	}
}

func (g *remoteEmailGenerator) Generate(ctx context.Context, owner models.OwnerID, req EmailGenerationRequest) (*models.EmailDraft, error) {
	jobURL := strings.TrimSpace(req.JobURL)
	if jobURL == "" {
		return nil, fmt.Errorf("%w: job_url is required", apperrors.ErrInvalidInput)
	}
	if req.ResumeID == uuid.Nil {
		return nil, fmt.Errorf("%w: resume_id is required", apperrors.ErrInvalidInput)
	}

	resume, err := g.resumes.Get(ctx, req.ResumeID)
	if err != nil {
		return nil, err
	}
	if resume.Owner != owner {
		return nil, apperrors.ErrNotFound
	}

	draft, err := g.client.Generate(ctx, jobURL, emailservice.Resume{
		FileName:    resume.FileName,
		ContentType: resume.ContentType,
		Data:        resume.Data,
	})
	if err != nil {
		g.logger.Error("Remote email generation failed",
			zap.String("owner", owner.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrEmailGenerationFailed, err)
	}
	return draft, nil
}

// ============================================================================
// LLM generator
// ============================================================================

type llmEmailGenerator struct {
	client   llm.Client
	matcher  MatchService
	projects repositories.ProjectRepository
	users    repositories.UserRepository
	logger   *zap.Logger
}

var _ EmailGenerator = (*llmEmailGenerator)(nil)

// NewLLMEmailGenerator drafts emails with a chat model. When matcher is set
// the best matching projects are included in the prompt.
func NewLLMEmailGenerator(client llm.Client, matcher MatchService, projects repositories.ProjectRepository, users repositories.UserRepository, logger *zap.Logger) EmailGenerator {
	return &llmEmailGenerator{
		client:   client,
		matcher:  matcher,
		projects: projects,
		users:    users,
		logger:   logger.Named("email-generator"),
	}
}

func (g *llmEmailGenerator) Generate(ctx context.Context, owner models.OwnerID, req EmailGenerationRequest) (*models.EmailDraft, error) {
	jd := strings.TrimSpace(req.JobDescription)
	if jd == "" {
		return nil, fmt.Errorf("%w: job_description is required", apperrors.ErrInvalidInput)
	}

	input := prompts.OutreachEmailInput{
		SenderName:     g.senderName(ctx),
		JobURL:         strings.TrimSpace(req.JobURL),
		JobDescription: jd,
		Projects:       g.projectContext(ctx, owner, jd),
	}

	response, err := g.client.GenerateResponse(ctx,
		prompts.BuildOutreachEmailPrompt(input),
		prompts.BuildOutreachEmailSystemMessage(),
		emailTemperature)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrEmailGenerationFailed, err)
	}

	draft, err := llm.ParseJSONResponse[models.EmailDraft](response)
	if err != nil {
		g.logger.Warn("Unparseable email draft",
			zap.String("model", g.client.GetModel()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", apperrors.ErrEmailGenerationFailed, err)
	}
	draft.Subject = strings.TrimSpace(draft.Subject)
	draft.Body = strings.TrimSpace(draft.Body)
	if draft.Subject == "" || draft.Body == "" {
		return nil, fmt.Errorf("%w: model returned an incomplete draft", apperrors.ErrEmailGenerationFailed)
	}

	g.logger.Info("Email drafted",
		zap.String("owner", owner.String()),
		zap.String("provider", g.client.GetProvider()),
		zap.Int("projects", len(input.Projects)))
	return &draft, nil
}

func (g *llmEmailGenerator) senderName(ctx context.Context) string {
	if g.users == nil {
		return ""
	}
	user, err := g.users.Get(ctx)
	if err != nil {
		return ""
	}
	return user.Name
}

// projectContext is best effort: a failed match still produces a draft.
func (g *llmEmailGenerator) projectContext(ctx context.Context, owner models.OwnerID, jd string) []prompts.ProjectContext {
	if g.matcher == nil {
		return nil
	}

	matches, err := g.matcher.Match(ctx, owner, jd)
	if err != nil {
		if !errors.Is(err, apperrors.ErrEmbeddingNotConfigured) {
			g.logger.Warn("Project match for email failed",
				zap.String("owner", owner.String()),
				zap.Error(err))
		}
		return nil
	}

	out := make([]prompts.ProjectContext, 0, maxPromptProjects)
	for _, m := range matches {
		if len(out) == maxPromptProjects {
			break
		}
		pc := prompts.ProjectContext{Name: m.ProjectName, Score: m.AverageScore}
		if g.projects != nil {
			if p, err := g.projects.Get(ctx, m.ProjectID); err == nil && p.Owner == owner {
				pc.Description = p.Description
				pc.Skills = p.Skills
				pc.URL = p.URL
			}
		}
		out = append(out, pc)
	}
	return out
}

// ============================================================================
// Factory
// ============================================================================

// EmailGeneratorDeps are the collaborators a generator may need.
type EmailGeneratorDeps struct {
	Resumes  repositories.ResumeRepository
	Projects repositories.ProjectRepository
	Users    repositories.UserRepository
	Matcher  MatchService
}

// NewEmailGeneratorFromConfig builds the generator selected by cfg.Provider.
func NewEmailGeneratorFromConfig(cfg *config.EmailGenerationConfig, deps EmailGeneratorDeps, logger *zap.Logger) (EmailGenerator, error) {
	switch cfg.Provider {
	case config.EmailProviderRemote:
		client := emailservice.NewClient(config.ResolveURLForDocker(cfg.ServiceURL), cfg.Timeout, logger)
		return NewRemoteEmailGenerator(client, deps.Resumes, logger), nil
	case config.EmailProviderOpenAI, config.EmailProviderAnthropic:
		client, err := llm.NewClientFromConfig(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("create email LLM client: %w", err)
		}
		return NewLLMEmailGenerator(client, deps.Matcher, deps.Projects, deps.Users, logger), nil
	default:
		return nil, fmt.Errorf("unknown email generation provider %q", cfg.Provider)
	}
}

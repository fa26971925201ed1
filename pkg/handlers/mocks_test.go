package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/coldconnect/coldconnect-engine/pkg/auth"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
	"github.com/coldconnect/coldconnect-engine/pkg/services"
)

// withClaims attaches claims for email, as the auth middleware would.
func withClaims(r *http.Request, email string) *http.Request {
	claims := &auth.Claims{Email: email, Name: "Ada Lovelace"}
	claims.Subject = "user-123"
	return r.WithContext(auth.WithClaims(r.Context(), claims, "token"))
}

// mockProjectService is a configurable mock for project handler tests.
type mockProjectService struct {
	project  *models.Project
	projects []*models.Project
	message  string
	err      error

	gotOwner  models.OwnerID
	gotFields models.ProjectFields
	gotID     uuid.UUID
}

var _ services.ProjectService = (*mockProjectService)(nil)

func (m *mockProjectService) AddProject(ctx context.Context, owner models.OwnerID, fields models.ProjectFields) (*models.Project, error) {
	m.gotOwner, m.gotFields = owner, fields
	return m.project, m.err
}

func (m *mockProjectService) IngestProject(ctx context.Context, owner models.OwnerID, projectID uuid.UUID) (string, error) {
	m.gotOwner, m.gotID = owner, projectID
	return m.message, m.err
}

func (m *mockProjectService) AddAndIngest(ctx context.Context, owner models.OwnerID, fields models.ProjectFields) (*models.Project, string, error) {
	m.gotOwner, m.gotFields = owner, fields
	return m.project, m.message, m.err
}

func (m *mockProjectService) Get(ctx context.Context, owner models.OwnerID, projectID uuid.UUID) (*models.Project, error) {
	m.gotOwner, m.gotID = owner, projectID
	if m.err != nil {
		return nil, m.err
	}
	return m.project, nil
}

func (m *mockProjectService) List(ctx context.Context, owner models.OwnerID) ([]*models.Project, error) {
	m.gotOwner = owner
	return m.projects, m.err
}

func (m *mockProjectService) Delete(ctx context.Context, owner models.OwnerID, projectID uuid.UUID) error {
	m.gotOwner, m.gotID = owner, projectID
	return m.err
}

type mockMatchService struct {
	results []models.MatchResult
	err     error
	gotJD   string
}

func (m *mockMatchService) Match(ctx context.Context, owner models.OwnerID, jobDescription string) ([]models.MatchResult, error) {
	m.gotJD = jobDescription
	return m.results, m.err
}

type mockImportService struct {
	results []services.ImportedProject
	err     error
	gotURL  string
}

func (m *mockImportService) ImportRepositories(ctx context.Context, owner models.OwnerID, githubURL string) ([]services.ImportedProject, error) {
	m.gotURL = githubURL
	return m.results, m.err
}

type mockUserService struct {
	user      *models.User
	onboarded bool
	err       error
	gotName   string
	gotUpdate *models.UserProfileUpdate
}

var _ services.UserService = (*mockUserService)(nil)

func (m *mockUserService) Sync(ctx context.Context, owner models.OwnerID, name string) (*models.User, error) {
	m.gotName = name
	return m.user, m.err
}

func (m *mockUserService) Get(ctx context.Context, owner models.OwnerID) (*models.User, error) {
	return m.user, m.err
}

func (m *mockUserService) UpdateProfile(ctx context.Context, owner models.OwnerID, update *models.UserProfileUpdate) (*models.User, error) {
	m.gotUpdate = update
	return m.user, m.err
}

func (m *mockUserService) OnboardingStatus(ctx context.Context, owner models.OwnerID) (bool, error) {
	return m.onboarded, m.err
}

type mockEmailService struct {
	email    *models.Email
	emails   []*models.Email
	draft    *models.EmailDraft
	err      error
	gotToken string
	gotReq   services.EmailGenerationRequest
}

var _ services.EmailService = (*mockEmailService)(nil)

func (m *mockEmailService) Create(ctx context.Context, owner models.OwnerID, fields models.EmailFields) (*models.Email, error) {
	return m.email, m.err
}

func (m *mockEmailService) ListByOwner(ctx context.Context, owner models.OwnerID) ([]*models.Email, error) {
	return m.emails, m.err
}

func (m *mockEmailService) Generate(ctx context.Context, owner models.OwnerID, req services.EmailGenerationRequest) (*models.EmailDraft, error) {
	m.gotReq = req
	return m.draft, m.err
}

func (m *mockEmailService) Send(ctx context.Context, owner models.OwnerID, emailID uuid.UUID, accessToken string) (*models.Email, error) {
	m.gotToken = accessToken
	return m.email, m.err
}

type mockResumeService struct {
	file    *models.ResumeFile
	files   []*models.ResumeFile
	err     error
	gotName string
	gotType string
	gotData []byte
}

var _ services.ResumeService = (*mockResumeService)(nil)

func (m *mockResumeService) Upload(ctx context.Context, owner models.OwnerID, fileName, contentType string, data []byte) (*models.ResumeFile, error) {
	m.gotName, m.gotType, m.gotData = fileName, contentType, data
	return m.file, m.err
}

func (m *mockResumeService) Get(ctx context.Context, owner models.OwnerID, id uuid.UUID) (*models.ResumeFile, error) {
	return m.file, m.err
}

func (m *mockResumeService) List(ctx context.Context, owner models.OwnerID) ([]*models.ResumeFile, error) {
	return m.files, m.err
}

func (m *mockResumeService) Rename(ctx context.Context, owner models.OwnerID, id uuid.UUID, fileName string) error {
	m.gotName = fileName
	return m.err
}

func (m *mockResumeService) Delete(ctx context.Context, owner models.OwnerID, id uuid.UUID) error {
	return m.err
}

// headerAuthService authenticates requests carrying an X-Test-Email header.
type headerAuthService struct{}

func (headerAuthService) ValidateRequest(r *http.Request) (*auth.Claims, string, error) {
	email := r.Header.Get("X-Test-Email")
	if email == "" {
		return nil, "", auth.ErrMissingAuthorization
	}
	claims := &auth.Claims{Email: email}
	return claims, "token", nil
}

// passthroughOwner stands in for the owner-scoped connection middleware.
func passthroughOwner(next http.HandlerFunc) http.HandlerFunc {
	return next
}

package services

import (
	"context"
	"strings"
	"sync"
	"unicode"

	"github.com/google/uuid"

	"github.com/coldconnect/coldconnect-engine/pkg/adapters/emailservice"
	"github.com/coldconnect/coldconnect-engine/pkg/adapters/github"
	"github.com/coldconnect/coldconnect-engine/pkg/adapters/gmail"
	"github.com/coldconnect/coldconnect-engine/pkg/apperrors"
	"github.com/coldconnect/coldconnect-engine/pkg/embedding"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
	"github.com/coldconnect/coldconnect-engine/pkg/repositories"
	"github.com/coldconnect/coldconnect-engine/pkg/vectorindex"
)

// ============================================================================
// Topic embedder
// ============================================================================

// Every text shares a baseline component; known keywords add weight to
// one of three topics. Related texts land close, unrelated ones stay near
// the baseline and score low.
const (
	dimBaseline = iota
	dimBackend
	dimFrontend
	dimArt
	topicDims
)

var topicKeywords = map[string]int{
	"python":     dimBackend,
	"redis":      dimBackend,
	"backend":    dimBackend,
	"inventory":  dimBackend,
	"bot":        dimBackend,
	"retail":     dimBackend,
	"warehouse":  dimBackend,
	"robot":      dimBackend,
	"postgres":   dimBackend,
	"react":      dimFrontend,
	"css":        dimFrontend,
	"frontend":   dimFrontend,
	"dashboard":  dimFrontend,
	"figma":      dimArt,
	"watercolor": dimArt,
	"painting":   dimArt,
	"portrait":   dimArt,
}

func topicVector(text string) []float32 {
	v := make([]float32, topicDims)
	v[dimBaseline] = 1
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if dim, ok := topicKeywords[w]; ok {
			v[dim]++
		}
	}
	return v
}

type embedCall struct {
	texts []string
	mode  embedding.Mode
}

type fakeEmbedder struct {
	mu    sync.Mutex
	calls []embedCall
	err   error
	// short returns one vector fewer than requested.
	short bool
}

var _ embedding.Provider = (*fakeEmbedder)(nil)

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string, mode embedding.Mode) ([][]float32, error) {
	f.mu.Lock()
	f.calls = append(f.calls, embedCall{texts: append([]string(nil), texts...), mode: mode})
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vectors[i] = topicVector(t)
	}
	if f.short && len(vectors) > 0 {
		vectors = vectors[:len(vectors)-1]
	}
	return vectors, nil
}

func (f *fakeEmbedder) Dimensions() int { return topicDims }
func (f *fakeEmbedder) ModelName() string { return "topic-fake" }

func (f *fakeEmbedder) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeEmbedder) lastCall() embedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

// ============================================================================
// Vector index wrappers
// ============================================================================

type countingIndex struct {
	inner     vectorindex.Index
	upserts   int
	queries   int
	lastK     int
	upsertErr error
	queryErr  error
}

var _ vectorindex.Index = (*countingIndex)(nil)

func (c *countingIndex) UpsertBatch(ctx context.Context, chunks []models.ProjectChunk) error {
	c.upserts++
	if c.upsertErr != nil {
		return c.upsertErr
	}
	return c.inner.UpsertBatch(ctx, chunks)
}

func (c *countingIndex) QuerySimilar(ctx context.Context, vector []float32, k int) ([]vectorindex.Hit, error) {
	c.queries++
	c.lastK = k
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	return c.inner.QuerySimilar(ctx, vector, k)
}

// ============================================================================
// Project repository
// ============================================================================

type fakeProjectRepo struct {
	mu        sync.Mutex
	projects  map[uuid.UUID]*models.Project
	order     []uuid.UUID
	createErr error
}

var _ repositories.ProjectRepository = (*fakeProjectRepo)(nil)

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[uuid.UUID]*models.Project)}
}

func (r *fakeProjectRepo) Create(ctx context.Context, project *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	stored := *project
	r.projects[project.ID] = &stored
	r.order = append(r.order, project.ID)
	return nil
}

func (r *fakeProjectRepo) Get(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProjectRepo) List(ctx context.Context) ([]*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Project
	for i := len(r.order) - 1; i >= 0; i-- {
		if p, ok := r.projects[r.order[i]]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.projects, id)
	return nil
}

// ============================================================================
// User repository
// ============================================================================

// fakeUserRepo holds a single user, matching an owner-scoped connection.
type fakeUserRepo struct {
	email     string
	user      *models.User
	updateErr error
	upserts   int
}

var _ repositories.UserRepository = (*fakeUserRepo)(nil)

func (r *fakeUserRepo) Upsert(ctx context.Context, name string) (*models.User, error) {
	r.upserts++
	if r.user == nil {
		r.user = &models.User{Email: r.email, Name: name}
	} else if name != "" {
		r.user.Name = name
	}
	cp := *r.user
	return &cp, nil
}

func (r *fakeUserRepo) Get(ctx context.Context) (*models.User, error) {
	if r.user == nil {
		return nil, apperrors.ErrNotFound
	}
	cp := *r.user
	return &cp, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, update *models.UserProfileUpdate) (*models.User, error) {
	if r.updateErr != nil {
		return nil, r.updateErr
	}
	if r.user == nil {
		return nil, apperrors.ErrNotFound
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&r.user.Name, update.Name)
	set(&r.user.ResumeURL, update.ResumeURL)
	set(&r.user.GitHubURL, update.GitHubURL)
	set(&r.user.PortfolioURL, update.PortfolioURL)
	set(&r.user.LinkedInURL, update.LinkedInURL)
	if update.HasOnboarded != nil {
		r.user.HasOnboarded = *update.HasOnboarded
	}
	cp := *r.user
	return &cp, nil
}

// ============================================================================
// Email repository
// ============================================================================

type fakeEmailRepo struct {
	emails    map[uuid.UUID]*models.Email
	order     []uuid.UUID
	owner     models.OwnerID
	updateErr error
	statuses  []models.EmailStatus
}

var _ repositories.EmailRepository = (*fakeEmailRepo)(nil)

func newFakeEmailRepo(owner models.OwnerID) *fakeEmailRepo {
	return &fakeEmailRepo{emails: make(map[uuid.UUID]*models.Email), owner: owner}
}

func (r *fakeEmailRepo) Create(ctx context.Context, email *models.Email) error {
	if email.ID == uuid.Nil {
		email.ID = uuid.New()
	}
	if email.CreatedBy.IsZero() {
		email.CreatedBy = r.owner
	}
	cp := *email
	r.emails[email.ID] = &cp
	r.order = append(r.order, email.ID)
	return nil
}

func (r *fakeEmailRepo) Get(ctx context.Context, id uuid.UUID) (*models.Email, error) {
	e, ok := r.emails[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEmailRepo) ListByOwner(ctx context.Context) ([]*models.Email, error) {
	var out []*models.Email
	for i := len(r.order) - 1; i >= 0; i-- {
		cp := *r.emails[r.order[i]]
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeEmailRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.EmailStatus) error {
	r.statuses = append(r.statuses, status)
	if r.updateErr != nil {
		return r.updateErr
	}
	e, ok := r.emails[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	e.Status = status
	return nil
}

// ============================================================================
// Resume repository
// ============================================================================

type fakeResumeRepo struct {
	files map[uuid.UUID]*models.ResumeFile
	order []uuid.UUID
	owner models.OwnerID
}

var _ repositories.ResumeRepository = (*fakeResumeRepo)(nil)

func newFakeResumeRepo(owner models.OwnerID) *fakeResumeRepo {
	return &fakeResumeRepo{files: make(map[uuid.UUID]*models.ResumeFile), owner: owner}
}

func (r *fakeResumeRepo) Create(ctx context.Context, file *models.ResumeFile) error {
	if file.ID == uuid.Nil {
		file.ID = uuid.New()
	}
	if file.Owner.IsZero() {
		file.Owner = r.owner
	}
	file.Size = int64(len(file.Data))
	cp := *file
	r.files[file.ID] = &cp
	r.order = append(r.order, file.ID)
	return nil
}

func (r *fakeResumeRepo) Get(ctx context.Context, id uuid.UUID) (*models.ResumeFile, error) {
	f, ok := r.files[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *fakeResumeRepo) List(ctx context.Context) ([]*models.ResumeFile, error) {
	var out []*models.ResumeFile
	for i := len(r.order) - 1; i >= 0; i-- {
		if f, ok := r.files[r.order[i]]; ok {
			cp := *f
			cp.Data = nil
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeResumeRepo) Rename(ctx context.Context, id uuid.UUID, fileName string) error {
	f, ok := r.files[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	f.FileName = fileName
	return nil
}

func (r *fakeResumeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.files[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.files, id)
	return nil
}

// ============================================================================
// External clients
// ============================================================================

type fakeDraftClient struct {
	draft  *models.EmailDraft
	err    error
	jobURL string
	resume emailservice.Resume
}

func (c *fakeDraftClient) Generate(ctx context.Context, jobURL string, resume emailservice.Resume) (*models.EmailDraft, error) {
	c.jobURL = jobURL
	c.resume = resume
	if c.err != nil {
		return nil, c.err
	}
	return c.draft, nil
}

type fakeMailSender struct {
	err   error
	token string
	sent  []gmail.Message
}

func (s *fakeMailSender) Send(ctx context.Context, accessToken string, msg gmail.Message) (string, error) {
	s.token = accessToken
	if s.err != nil {
		return "", s.err
	}
	s.sent = append(s.sent, msg)
	return "msg-1", nil
}

type fakeRepositorySource struct {
	mu      sync.Mutex
	repos   []github.Repository
	listErr error
	readmes map[string]string
	fetched []string
}

func (s *fakeRepositorySource) ListPublicRepositories(ctx context.Context, username string) ([]github.Repository, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.repos, nil
}

func (s *fakeRepositorySource) Readme(ctx context.Context, owner, repo string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetched = append(s.fetched, repo)
	return s.readmes[repo], nil
}

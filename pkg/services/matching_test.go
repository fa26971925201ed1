package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/coldconnect/coldconnect-engine/pkg/apperrors"
	"github.com/coldconnect/coldconnect-engine/pkg/embedding"
	"github.com/coldconnect/coldconnect-engine/pkg/models"
	"github.com/coldconnect/coldconnect-engine/pkg/vectorindex"
)

func warehouseRobot(owner string) *models.Project {
	return &models.Project{
		ID:          uuid.New(),
		Owner:       models.MustOwnerID(owner),
		Name:        "Warehouse Robot",
		Description: "Inventory robot for warehouse retail backend",
		Skills:      []string{"Python", "Redis", "Postgres"},
		Category:    "Backend",
		Domain:      "Retail",
	}
}

func portraitStudio(owner string) *models.Project {
	return &models.Project{
		ID:          uuid.New(),
		Owner:       models.MustOwnerID(owner),
		Name:        "Portrait Studio",
		Description: "Watercolor painting gallery",
		Skills:      []string{"Figma"},
		Category:    "Art",
		Domain:      "Painting",
	}
}

type matchFixture struct {
	embedder *fakeEmbedder
	index    *countingIndex
	ingest   IngestionService
}

func newMatchFixture(t *testing.T, projects ...*models.Project) *matchFixture {
	t.Helper()
	f := &matchFixture{
		embedder: &fakeEmbedder{},
		index:    &countingIndex{inner: vectorindex.NewMemoryIndex()},
	}
	f.ingest = NewIngestionService(f.embedder, f.index, zap.NewNop())
	for _, p := range projects {
		_, err := f.ingest.Ingest(context.Background(), p)
		require.NoError(t, err)
	}
	return f
}

func (f *matchFixture) matcher(cfg MatchConfig) MatchService {
	return NewMatchService(f.embedder, f.index, cfg, zap.NewNop())
}

func TestMatch_SingleRelevantProject(t *testing.T) {
	bot := inventoryBot("a@x.com")
	f := newMatchFixture(t, bot)

	results, err := f.matcher(MatchConfig{TopK: 15, Threshold: 0.5}).
		Match(context.Background(), models.MustOwnerID("a@x.com"), "Python backend inventory systems")

	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, bot.ID, results[0].ProjectID)
	assert.Equal(t, "Inventory Bot", results[0].ProjectName)
	assert.Greater(t, results[0].AverageScore, 0.5)
}

func TestMatch_RanksRelevantAboveUnrelated(t *testing.T) {
	bot := inventoryBot("a@x.com")
	art := portraitStudio("a@x.com")
	f := newMatchFixture(t, art, bot)

	results, err := f.matcher(MatchConfig{TopK: 15, Threshold: 0.5}).
		Match(context.Background(), models.MustOwnerID("a@x.com"), "Python backend inventory systems")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, bot.ID, results[0].ProjectID)
}

func TestMatch_NeverReturnsOtherOwnersProjects(t *testing.T) {
	mine := inventoryBot("a@x.com")
	theirs := warehouseRobot("b@y.com")
	f := newMatchFixture(t, mine, theirs)

	// The other owner's project outranks ours in the raw index.
	query := f.embedder
	vectors, err := query.Embed(context.Background(), []string{MatchQueryText("Python backend inventory systems")}, embedding.ModeQuery)
	require.NoError(t, err)
	hits, err := f.index.inner.QuerySimilar(context.Background(), vectors[0], 1)
	require.NoError(t, err)
	require.Equal(t, "b@y.com", hits[0].Metadata.OwnerID)

	results, err := f.matcher(MatchConfig{TopK: 15, Threshold: 0.5}).
		Match(context.Background(), models.MustOwnerID("a@x.com"), "Python backend inventory systems")

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, mine.ID, results[0].ProjectID)
	for _, r := range results {
		assert.NotEqual(t, theirs.ID, r.ProjectID)
	}
}

func TestMatch_SmallTopKLosesRecallToOtherOwners(t *testing.T) {
	theirs := warehouseRobot("b@y.com")
	mine := inventoryBot("a@x.com")
	f := newMatchFixture(t, theirs, mine)

	// With K=3 every retrieved chunk belongs to b@y.com, so a@x.com gets
	// nothing even though their project is relevant.
	results, err := f.matcher(MatchConfig{TopK: 3, Threshold: 0.5}).
		Match(context.Background(), models.MustOwnerID("a@x.com"), "Python backend inventory systems")

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 3, f.index.lastK)
}

func TestMatch_NothingRelevantIsEmptyNotError(t *testing.T) {
	f := newMatchFixture(t, inventoryBot("a@x.com"))

	results, err := f.matcher(MatchConfig{TopK: 15, Threshold: 0.5}).
		Match(context.Background(), models.MustOwnerID("a@x.com"), "Watercolor portrait painting commission")

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
}

func TestMatch_EmbedsFramedQueryInQueryMode(t *testing.T) {
	f := newMatchFixture(t, inventoryBot("a@x.com"))

	_, err := f.matcher(MatchConfig{}).
		Match(context.Background(), models.MustOwnerID("a@x.com"), "  Senior Go engineer  ")
	require.NoError(t, err)

	call := f.embedder.lastCall()
	assert.Equal(t, embedding.ModeQuery, call.mode)
	require.Len(t, call.texts, 1)
	assert.True(t, strings.HasPrefix(call.texts[0], "Job Title Context:\nSenior Go engineer\n"))
	assert.Contains(t, call.texts[0], "The goal is to match user projects")
	assert.Equal(t, DefaultMatchTopK, f.index.lastK)
}

func TestMatch_RejectsBlankDescription(t *testing.T) {
	f := newMatchFixture(t)

	_, err := f.matcher(MatchConfig{}).Match(context.Background(), models.MustOwnerID("a@x.com"), " \n\t ")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Zero(t, f.embedder.callCount())
}

func TestMatch_RequiresOwner(t *testing.T) {
	f := newMatchFixture(t)

	_, err := f.matcher(MatchConfig{}).Match(context.Background(), models.OwnerID{}, "Go engineer")

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestMatch_NotConfigured(t *testing.T) {
	f := newMatchFixture(t)
	f.embedder.err = apperrors.ErrEmbeddingNotConfigured

	_, err := f.matcher(MatchConfig{}).Match(context.Background(), models.MustOwnerID("a@x.com"), "Go engineer")

	assert.ErrorIs(t, err, apperrors.ErrEmbeddingNotConfigured)
	assert.NotErrorIs(t, err, apperrors.ErrMatchFailed)
	assert.Zero(t, f.index.queries)
}

func TestMatch_ProviderFailure(t *testing.T) {
	f := newMatchFixture(t)
	f.embedder.err = embedding.NewError(embedding.ErrorTypeRateLimit, "slow down", true, nil)

	results, err := f.matcher(MatchConfig{}).Match(context.Background(), models.MustOwnerID("a@x.com"), "Go engineer")

	assert.Nil(t, results)
	assert.ErrorIs(t, err, apperrors.ErrMatchFailed)
	assert.Equal(t, embedding.ErrorTypeRateLimit, embedding.GetErrorType(err))
	assert.Zero(t, f.index.queries)
}

func TestMatch_IndexFailure(t *testing.T) {
	f := newMatchFixture(t)
	f.index.queryErr = errors.New("index unavailable")

	results, err := f.matcher(MatchConfig{}).Match(context.Background(), models.MustOwnerID("a@x.com"), "Go engineer")

	assert.Nil(t, results)
	assert.ErrorIs(t, err, apperrors.ErrMatchFailed)
}

func TestMatchQueryText_KeepsDescriptionFirst(t *testing.T) {
	text := MatchQueryText("Build APIs")

	assert.True(t, strings.HasPrefix(text, "Job Title Context:\nBuild APIs\n\n"))
	assert.Greater(t, len(text), len("Job Title Context:\nBuild APIs\n\n"))
}

package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tendercraft/rfp-engine/pkg/models"
	"github.com/tendercraft/rfp-engine/pkg/repositories"
)

// Default snippet shaping. Snippets feed generation prompts, so they stay
// short: a title plus a bounded content prefix.
const (
	DefaultSnippetLimit    = 3
	DefaultSnippetMaxChars = 500
)

// ContextSnippet is a prompt-ready excerpt of a knowledge entry.
type ContextSnippet struct {
	EntryID uuid.UUID `json:"entry_id"`
	Title   string    `json:"title"`
	Text    string    `json:"text"`
}

// KnowledgeService selects knowledge base content to ground response
// generation. Selection counts as usage: every selected entry gets its usage
// counter bumped atomically by the repository.
type KnowledgeService interface {
	// SelectContext returns up to limit prompt-ready snippets for the
	// organization. Selection is recency-based; keywords are carried for
	// traceability and future relevance scoring but do not affect ranking.
	SelectContext(ctx context.Context, orgID uuid.UUID, keywords []string, limit int) ([]ContextSnippet, error)
}

type knowledgeService struct {
	repo            repositories.KnowledgeRepository
	snippetMaxChars int
	defaultLimit    int
	logger          *zap.Logger
}

// NewKnowledgeService creates a new KnowledgeService. snippetMaxChars bounds
// the content prefix per snippet and defaultLimit is the snippet count used
// when a caller passes no limit; zero for either means the package default.
func NewKnowledgeService(repo repositories.KnowledgeRepository, snippetMaxChars, defaultLimit int, logger *zap.Logger) KnowledgeService {
	if snippetMaxChars <= 0 {
		snippetMaxChars = DefaultSnippetMaxChars
	}
	if defaultLimit <= 0 {
		defaultLimit = DefaultSnippetLimit
	}
	return &knowledgeService{
		repo:            repo,
		snippetMaxChars: snippetMaxChars,
		defaultLimit:    defaultLimit,
		logger:          logger.Named("knowledge-service"),
	}
}

var _ KnowledgeService = (*knowledgeService)(nil)

func (s *knowledgeService) SelectContext(ctx context.Context, orgID uuid.UUID, keywords []string, limit int) ([]ContextSnippet, error) {
	if limit <= 0 {
		limit = s.defaultLimit
	}

	entries, err := s.repo.SelectForContext(ctx, orgID, limit)
	if err != nil {
		return nil, fmt.Errorf("select knowledge entries: %w", err)
	}

	snippets := make([]ContextSnippet, 0, len(entries))
	for _, entry := range entries {
		snippets = append(snippets, ContextSnippet{
			EntryID: entry.ID,
			Title:   entry.Title,
			Text:    formatSnippet(entry, s.snippetMaxChars),
		})
	}

	s.logger.Debug("Selected knowledge context",
		zap.String("org_id", orgID.String()),
		zap.Strings("keywords", keywords),
		zap.Int("requested", limit),
		zap.Int("selected", len(snippets)))

	return snippets, nil
}

func formatSnippet(entry *models.KnowledgeEntry, maxChars int) string {
	return fmt.Sprintf("%s: %s", entry.Title, entry.ContentPreview(maxChars))
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/kirillkom/document-inbox/internal/core/domain"
	"github.com/kirillkom/document-inbox/internal/core/ports"
	"github.com/kirillkom/document-inbox/internal/core/view"
)

type BrowseUseCase struct {
	sessions SessionStore
	pipeline *view.Pipeline
	exporter ports.ViewExporter
}

func NewBrowseUseCase(sessions SessionStore, pipeline *view.Pipeline, exporter ports.ViewExporter) *BrowseUseCase {
	return &BrowseUseCase{
		sessions: sessions,
		pipeline: pipeline,
		exporter: exporter,
	}
}

func (uc *BrowseUseCase) GetDocument(ctx context.Context, sessionID, documentID string) (domain.Document, error) {
	sess, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return domain.Document{}, fmt.Errorf("load session: %w", err)
	}
	return sess.Catalog.Get(documentID)
}

func (uc *BrowseUseCase) List(ctx context.Context, sessionID string, query domain.Query) ([]domain.Document, error) {
	query, err := query.Normalize()
	if err != nil {
		return nil, err
	}
	snapshot, err := uc.snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return uc.pipeline.Derive(snapshot, query), nil
}

func (uc *BrowseUseCase) ListGrouped(ctx context.Context, sessionID string, query domain.Query) ([]domain.Group, error) {
	docs, err := uc.List(ctx, sessionID, query)
	if err != nil {
		return nil, err
	}
	return view.GroupByFormat(docs), nil
}

// Folder lists one format class. Folders sort by date, name or type only.
func (uc *BrowseUseCase) Folder(
	ctx context.Context,
	sessionID string,
	class domain.FormatClass,
	query domain.Query,
) ([]domain.Document, error) {
	if !class.Valid() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "folder view", fmt.Errorf("unknown format class %q", class))
	}
	if query.SortKey == domain.SortByFormatClass {
		return nil, domain.WrapError(domain.ErrInvalidInput, "folder view", errors.New("folders cannot sort by format class"))
	}
	query.FormatFilter = string(class)
	query, err := query.Normalize()
	if err != nil {
		return nil, err
	}
	snapshot, err := uc.snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return uc.pipeline.Folder(snapshot, class, query), nil
}

func (uc *BrowseUseCase) Folders(ctx context.Context, sessionID string) ([]domain.FolderSummary, error) {
	snapshot, err := uc.snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return view.Folders(snapshot), nil
}

func (uc *BrowseUseCase) Stats(ctx context.Context, sessionID string) (domain.Stats, error) {
	snapshot, err := uc.snapshot(ctx, sessionID)
	if err != nil {
		return domain.Stats{}, err
	}
	return view.Aggregate(snapshot), nil
}

// Export writes the grouped view to w and returns its content type.
func (uc *BrowseUseCase) Export(ctx context.Context, sessionID string, query domain.Query, w io.Writer) (string, error) {
	if uc.exporter == nil {
		return "", errors.New("export is not configured")
	}
	groups, err := uc.ListGrouped(ctx, sessionID, query)
	if err != nil {
		return "", err
	}
	if err := uc.exporter.Export(ctx, groups, w); err != nil {
		return "", fmt.Errorf("export view: %w", err)
	}
	return uc.exporter.ContentType(), nil
}

func (uc *BrowseUseCase) snapshot(ctx context.Context, sessionID string) ([]domain.Document, error) {
	sess, err := uc.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return sess.Catalog.Snapshot(), nil
}

package ports

import (
	"context"
	"io"

	"github.com/kirillkom/document-inbox/internal/core/domain"
)

// DocumentIngestor is the inbound contract for dropping files into a session.
type DocumentIngestor interface {
	Append(ctx context.Context, sessionID string, files []domain.FileDescriptor) ([]domain.Document, error)
}

// DocumentBrowser is the inbound read model over a session catalog.
type DocumentBrowser interface {
	GetDocument(ctx context.Context, sessionID, documentID string) (domain.Document, error)
	List(ctx context.Context, sessionID string, query domain.Query) ([]domain.Document, error)
	ListGrouped(ctx context.Context, sessionID string, query domain.Query) ([]domain.Group, error)
	Folder(ctx context.Context, sessionID string, class domain.FormatClass, query domain.Query) ([]domain.Document, error)
	Folders(ctx context.Context, sessionID string) ([]domain.FolderSummary, error)
	Stats(ctx context.Context, sessionID string) (domain.Stats, error)
	Export(ctx context.Context, sessionID string, query domain.Query, w io.Writer) (contentType string, err error)
}

// SessionManager is the inbound contract for session lifecycle and preferences.
type SessionManager interface {
	Open(ctx context.Context) (SessionInfo, error)
	Close(ctx context.Context, sessionID string) error
	Theme(ctx context.Context, sessionID string) (domain.ThemePreference, error)
	SetTheme(ctx context.Context, sessionID string, pref domain.ThemePreference) error
}

type SessionInfo struct {
	ID    string                 `json:"id"`
	Theme domain.ThemePreference `json:"theme"`
}

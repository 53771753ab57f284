// Package drive implements the Google Drive content source. It lists
// documents from configured folders (or everything the service account
// can see), and downloads or exports their content for processing.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2/google"
	driveapi "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/custodia-labs/infobot/internal/connectors"
	"github.com/custodia-labs/infobot/internal/core/domain"
	"github.com/custodia-labs/infobot/internal/core/ports/driven"
	"github.com/custodia-labs/infobot/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.ContentSource = (*Connector)(nil)

const (
	folderMimeType   = "application/vnd.google-apps.folder"
	googleAppsPrefix = "application/vnd.google-apps"

	// listFields limits document listings to the metadata the pipeline
	// actually consumes.
	listFields = "nextPageToken, files(id, name, mimeType, webViewLink, modifiedTime, createdTime, size)"

	// folderPageSize is used when walking configured folders.
	folderPageSize = 1000

	// broadPageSize is used when listing everything accessible; the
	// result set is unbounded so pages stay small.
	broadPageSize = 100
)

// MaxDownloadSize caps downloaded and exported content (20MB).
const MaxDownloadSize = 20 * 1024 * 1024

// supportedContentTypes are the MIME types the processing pipeline can
// extract text from, including the Google Workspace natives that get
// exported to office formats on fetch.
var supportedContentTypes = map[string]struct{}{
	domain.ContentTypePDF:         {},
	domain.ContentTypeDoc:         {},
	domain.ContentTypeDocx:        {},
	domain.ContentTypeXls:         {},
	domain.ContentTypeXlsx:        {},
	domain.ContentTypeText:        {},
	domain.ContentTypeCSV:         {},
	domain.ContentTypeGoogleDoc:   {},
	domain.ContentTypeGoogleSheet: {},
}

var supportedExtensions = []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".txt", ".csv"}

// Config holds Google Drive connector configuration.
type Config struct {
	// CredentialsFile is the path to a service account JSON key. Falls
	// back to GOOGLE_APPLICATION_CREDENTIALS when empty.
	CredentialsFile string

	// DelegatedUser impersonates a workspace user via domain-wide
	// delegation. Optional.
	DelegatedUser string

	// FolderIDs restricts listing to these folders and their subfolders.
	// Empty means everything the account can see.
	FolderIDs []string
}

// Connector is the Google Drive content source.
type Connector struct {
	svc       *driveapi.Service
	limiter   *connectors.RateLimiter
	folderIDs []string
}

// New creates a Drive connector from service account credentials.
// Missing credentials produce a disabled connector rather than an
// error, so the rest of the pipeline can run without Drive.
func New(ctx context.Context, cfg Config) (*Connector, error) {
	data, err := readCredentials(cfg.CredentialsFile)
	if err != nil {
		return nil, err
	}
	if data == nil {
		logger.Warn("Google Drive credentials not configured")
		return &Connector{limiter: connectors.NewRateLimiter(connectors.ServiceDrive)}, nil
	}

	jwtCfg, err := google.JWTConfigFromJSON(data, driveapi.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse drive credentials: %w", err)
	}
	if cfg.DelegatedUser != "" {
		jwtCfg.Subject = cfg.DelegatedUser
	}

	svc, err := driveapi.NewService(ctx, option.WithTokenSource(jwtCfg.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}

	logger.Info("Google Drive connector initialised (%d configured folders)", len(cfg.FolderIDs))
	return NewWithService(svc, cfg.FolderIDs), nil
}

// NewWithService creates a Drive connector around an existing service.
func NewWithService(svc *driveapi.Service, folderIDs []string) *Connector {
	return &Connector{
		svc:       svc,
		limiter:   connectors.NewRateLimiter(connectors.ServiceDrive),
		folderIDs: folderIDs,
	}
}

// Label returns the source label stamped on produced chunks.
func (c *Connector) Label() string {
	return domain.SourceLabelDrive
}

// IsAvailable reports whether the connector is configured.
func (c *Connector) IsAvailable(_ context.Context) bool {
	return c.svc != nil
}

// List returns all supported documents visible to the connector. With
// folders configured it walks each folder tree; otherwise it pages
// through everything the account can access.
func (c *Connector) List(ctx context.Context) ([]domain.SourceDocument, error) {
	if c.svc == nil {
		return nil, errors.New("drive service not configured")
	}

	if len(c.folderIDs) == 0 {
		return c.listAll(ctx)
	}

	var docs []domain.SourceDocument
	visited := make(map[string]struct{})
	for _, folderID := range c.folderIDs {
		folderDocs, err := c.walkFolder(ctx, strings.TrimSpace(folderID), visited)
		if err != nil {
			logger.Error("Error listing Drive folder %s: %v", folderID, err)
			continue
		}
		docs = append(docs, folderDocs...)
	}

	logger.Info("Found %d documents across %d Drive folders", len(docs), len(c.folderIDs))
	return docs, nil
}

// walkFolder lists a folder's documents and recurses into subfolders.
// The visited set guards against folder cycles.
func (c *Connector) walkFolder(ctx context.Context, folderID string, visited map[string]struct{}) ([]domain.SourceDocument, error) {
	if _, ok := visited[folderID]; ok {
		return nil, nil
	}
	visited[folderID] = struct{}{}

	docs, err := c.listFolderDocuments(ctx, folderID)
	if err != nil {
		return nil, err
	}

	subfolders, err := c.listSubfolders(ctx, folderID)
	if err != nil {
		return nil, err
	}
	for _, sub := range subfolders {
		subDocs, err := c.walkFolder(ctx, sub, visited)
		if err != nil {
			logger.Error("Error listing Drive subfolder %s: %v", sub, err)
			continue
		}
		docs = append(docs, subDocs...)
	}

	return docs, nil
}

// listFolderDocuments returns the supported documents directly inside
// one folder.
func (c *Connector) listFolderDocuments(ctx context.Context, folderID string) ([]domain.SourceDocument, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType!='%s' and trashed=false", folderID, folderMimeType)

	var docs []domain.SourceDocument
	pageToken := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		result, err := c.svc.Files.List().
			Q(query).
			Fields(listFields).
			PageSize(folderPageSize).
			PageToken(pageToken).
			Context(ctx).
			Do()
		if err != nil {
			c.recordIfRateLimited(err)
			return nil, fmt.Errorf("list folder %s: %w", folderID, err)
		}

		for _, f := range result.Files {
			if isSupported(f) {
				docs = append(docs, toSourceDocument(f))
			}
		}

		pageToken = result.NextPageToken
		if pageToken == "" {
			return docs, nil
		}
	}
}

// listSubfolders returns the IDs of a folder's immediate subfolders.
func (c *Connector) listSubfolders(ctx context.Context, folderID string) ([]string, error) {
	query := fmt.Sprintf("'%s' in parents and mimeType='%s' and trashed=false", folderID, folderMimeType)

	var subfolders []string
	pageToken := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		result, err := c.svc.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name)").
			PageSize(folderPageSize).
			PageToken(pageToken).
			Context(ctx).
			Do()
		if err != nil {
			c.recordIfRateLimited(err)
			return nil, fmt.Errorf("list subfolders of %s: %w", folderID, err)
		}

		for _, f := range result.Files {
			subfolders = append(subfolders, f.Id)
		}

		pageToken = result.NextPageToken
		if pageToken == "" {
			return subfolders, nil
		}
	}
}

// listAll pages through every non-folder document the account can see.
func (c *Connector) listAll(ctx context.Context) ([]domain.SourceDocument, error) {
	query := fmt.Sprintf("mimeType!='%s' and trashed=false", folderMimeType)

	var docs []domain.SourceDocument
	pageToken := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		result, err := c.svc.Files.List().
			Q(query).
			Fields(listFields).
			PageSize(broadPageSize).
			PageToken(pageToken).
			Context(ctx).
			Do()
		if err != nil {
			c.recordIfRateLimited(err)
			return nil, fmt.Errorf("list accessible documents: %w", err)
		}

		for _, f := range result.Files {
			if isSupported(f) {
				docs = append(docs, toSourceDocument(f))
			}
		}

		pageToken = result.NextPageToken
		if pageToken == "" {
			logger.Info("Found %d accessible Drive documents", len(docs))
			return docs, nil
		}
	}
}

// Fetch downloads a document's raw bytes. Google Workspace natives are
// exported to the matching office format first.
func (c *Connector) Fetch(ctx context.Context, id, contentType string) ([]byte, error) {
	if c.svc == nil {
		return nil, errors.New("drive service not configured")
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var resp *http.Response
	var err error
	if strings.HasPrefix(contentType, googleAppsPrefix) {
		resp, err = c.svc.Files.Export(id, exportContentType(contentType)).Context(ctx).Download()
	} else {
		resp, err = c.svc.Files.Get(id).Context(ctx).Download()
	}
	if err != nil {
		c.recordIfRateLimited(err)
		return nil, fmt.Errorf("download file %s: %w", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxDownloadSize))
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", id, err)
	}
	return data, nil
}

// exportContentType maps a Google Workspace type to its export format.
func exportContentType(googleType string) string {
	switch googleType {
	case domain.ContentTypeGoogleDoc:
		return domain.ContentTypeDocx
	case domain.ContentTypeGoogleSheet:
		return domain.ContentTypeXlsx
	default:
		return domain.ContentTypePDF
	}
}

// recordIfRateLimited tells the limiter to back off when the API
// returned a quota error.
func (c *Connector) recordIfRateLimited(err error) {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		logger.Warn("Drive API rate limited, backing off")
		c.limiter.RecordRateLimitError(0)
	}
}

// isSupported reports whether the pipeline can extract text from the
// file, by MIME type or by filename extension.
func isSupported(f *driveapi.File) bool {
	if _, ok := supportedContentTypes[f.MimeType]; ok {
		return true
	}

	name := strings.ToLower(f.Name)
	for _, ext := range supportedExtensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// toSourceDocument maps a Drive file to the domain listing type.
func toSourceDocument(f *driveapi.File) domain.SourceDocument {
	return domain.SourceDocument{
		ID:          f.Id,
		Name:        f.Name,
		ContentType: f.MimeType,
		ViewURL:     f.WebViewLink,
		ModifiedAt:  f.ModifiedTime,
		CreatedAt:   f.CreatedTime,
	}
}

// readCredentials loads the service account key from the configured
// path or the GOOGLE_APPLICATION_CREDENTIALS environment variable.
// Returns nil bytes when neither is set.
func readCredentials(path string) ([]byte, error) {
	if path == "" {
		path = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
	}
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read drive credentials %s: %w", path, err)
	}
	return data, nil
}

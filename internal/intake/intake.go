// internal/intake/intake.go
package intake

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"sync"

	"cardio-wsi-back/internal/models"
	"cardio-wsi-back/internal/storage"
	"cardio-wsi-back/pkg/imaging"

	"github.com/google/uuid"
)

// Source is one file handed over by the file picker.
type Source struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

func FromFileHeaders(headers []*multipart.FileHeader) []Source {
	sources := make([]Source, 0, len(headers))
	for _, h := range headers {
		header := h
		sources = append(sources, Source{
			Name: header.Filename,
			Size: header.Size,
			Open: func() (io.ReadCloser, error) { return header.Open() },
		})
	}
	return sources
}

func FromPaths(paths []string) ([]Source, error) {
	sources := make([]Source, 0, len(paths))
	for _, p := range paths {
		path := p
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory", path)
		}
		sources = append(sources, Source{
			Name: filepath.Base(path),
			Size: info.Size(),
			Open: func() (io.ReadCloser, error) { return os.Open(path) },
		})
	}
	return sources, nil
}

// Selector receives the accepted selection.
type Selector interface {
	Select(files []models.UploadedFile) error
}

type UploadResult struct {
	Files []models.UploadedFile `json:"files"`
	Count int                   `json:"count"`
}

type Limits struct {
	MaxFiles    int
	MaxFileSize int64
}

type Intake struct {
	store    storage.ContentStore
	selector Selector
	limits   Limits
	logger   *slog.Logger
	newID    func() string

	// OnAccepted, when set, is called after a selection is handed over.
	OnAccepted func([]models.UploadedFile)

	mu      sync.Mutex
	current []models.UploadedFile
}

func New(store storage.ContentStore, selector Selector, limits Limits, logger *slog.Logger) *Intake {
	if logger == nil {
		logger = slog.Default()
	}
	return &Intake{
		store:    store,
		selector: selector,
		limits:   limits,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

// Select stores every source, assigns display references and hands the
// list to the pipeline. Nothing is kept when any part fails.
func (in *Intake) Select(ctx context.Context, sources []Source) (UploadResult, error) {
	if len(sources) == 0 {
		return UploadResult{}, fmt.Errorf("select: %w", models.ErrEmptySelection)
	}
	if err := in.checkLimits(sources); err != nil {
		return UploadResult{}, err
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	batch := in.newID()
	files := make([]models.UploadedFile, 0, len(sources))
	for _, src := range sources {
		file, err := in.storeSource(ctx, batch, src)
		if err != nil {
			in.removeAll(ctx, files)
			return UploadResult{}, err
		}
		files = append(files, file)
	}

	if err := in.selector.Select(files); err != nil {
		in.removeAll(ctx, files)
		return UploadResult{}, err
	}

	previous := in.current
	in.current = files
	in.removeAll(ctx, previous)

	if in.OnAccepted != nil {
		in.OnAccepted(files)
	}
	in.logger.Info("upload accepted", "batch", batch, "count", len(files))

	return UploadResult{Files: files, Count: len(files)}, nil
}

// Reset forgets the current selection and removes its stored content.
func (in *Intake) Reset(ctx context.Context) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.removeAll(ctx, in.current)
	in.current = nil
}

// File looks up a file of the current selection by id.
func (in *Intake) File(id string) (models.UploadedFile, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	for _, f := range in.current {
		if f.ID == id {
			return f, nil
		}
	}
	return models.UploadedFile{}, fmt.Errorf("file %s: %w", id, models.ErrNotFound)
}

// OpenContent streams the stored bytes of a current file.
func (in *Intake) OpenContent(ctx context.Context, id string) (io.ReadCloser, models.UploadedFile, error) {
	file, err := in.File(id)
	if err != nil {
		return nil, models.UploadedFile{}, err
	}
	rc, _, err := in.store.Open(ctx, file.ContentRef)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, models.UploadedFile{}, models.WrapError(models.ErrNotFound, "open content", err)
		}
		return nil, models.UploadedFile{}, err
	}
	return rc, file, nil
}

func (in *Intake) checkLimits(sources []Source) error {
	if in.limits.MaxFiles > 0 && len(sources) > in.limits.MaxFiles {
		return fmt.Errorf("select: %w: %d files exceeds limit of %d", models.ErrInvalidInput, len(sources), in.limits.MaxFiles)
	}
	for _, src := range sources {
		if src.Name == "" {
			return fmt.Errorf("select: %w: file without a name", models.ErrInvalidInput)
		}
		if in.limits.MaxFileSize > 0 && src.Size > in.limits.MaxFileSize {
			return fmt.Errorf("select: %w: %s is %d bytes, limit is %d", models.ErrInvalidInput, src.Name, src.Size, in.limits.MaxFileSize)
		}
	}
	return nil
}

func (in *Intake) storeSource(ctx context.Context, batch string, src Source) (models.UploadedFile, error) {
	format, advertised := imaging.Lookup(src.Name)
	if !advertised {
		in.logger.Warn("unrecognised slide format, accepting anyway", "file", src.Name)
	}

	id := in.newID()
	objectName := fmt.Sprintf("uploads/%s/%s%s", batch, id, format.Extension)

	rc, err := src.Open()
	if err != nil {
		return models.UploadedFile{}, fmt.Errorf("failed to open %s: %w", src.Name, err)
	}
	defer rc.Close()

	if _, err := in.store.Put(ctx, objectName, rc, src.Size, format.ContentType); err != nil {
		return models.UploadedFile{}, fmt.Errorf("failed to store %s: %w", src.Name, err)
	}

	file := models.UploadedFile{
		ID:          id,
		Name:        src.Name,
		ContentRef:  objectName,
		Size:        src.Size,
		ContentType: format.ContentType,
	}

	if presigner, ok := in.store.(storage.Presigner); ok {
		url, err := presigner.PresignedURL(ctx, objectName)
		if err != nil {
			_ = in.store.Delete(ctx, objectName)
			return models.UploadedFile{}, err
		}
		file.DisplayURL = url
	} else {
		file.DisplayURL = ContentPath(id)
	}
	return file, nil
}

func (in *Intake) removeAll(ctx context.Context, files []models.UploadedFile) {
	for _, f := range files {
		if err := in.store.Delete(ctx, f.ContentRef); err != nil {
			in.logger.Warn("failed to remove stored upload", "object", f.ContentRef, "error", err)
		}
	}
}

// ContentPath is the API route serving a file's bytes.
func ContentPath(id string) string {
	return "/api/files/" + id + "/content"
}

package diagnoses

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/floracare/internal/prompts"
	"github.com/JaimeStill/floracare/internal/workflow"
	"github.com/JaimeStill/floracare/pkg/imaging"
	"github.com/JaimeStill/floracare/pkg/storage"
)

// Replier answers a prompt with free text.
type Replier interface {
	Reply(ctx context.Context, prompt string) (string, error)
}

type service struct {
	rt          *workflow.Runtime
	replier     Replier
	store       storage.System
	imagePrefix string
	uploadDir   string
	logger      *slog.Logger
}

// New creates the diagnosis system. When store is nil uploads are kept
// under uploadDir so the image paths recorded in plant history stay
// readable, and Image reports storage.ErrNotConfigured.
func New(
	rt *workflow.Runtime,
	replier Replier,
	store storage.System,
	imagePrefix string,
	uploadDir string,
	logger *slog.Logger,
) System {
	return &service{
		rt:          rt,
		replier:     replier,
		store:       store,
		imagePrefix: imagePrefix,
		uploadDir:   uploadDir,
		logger:      logger.With("system", "diagnoses"),
	}
}

func (s *service) Handler(maxUploadSize int64) *Handler {
	return NewHandler(s, s.logger, maxUploadSize)
}

func (s *service) Diagnose(ctx context.Context, cmd DiagnoseCommand) (*workflow.DiagnosisReport, error) {
	info, err := imaging.Inspect(cmd.Data)
	if err != nil {
		return nil, err
	}

	location := strings.TrimSpace(cmd.Location)
	if location == "" {
		location = DefaultLocation
	}

	rt := *s.rt
	rt.Logger = s.logger

	var path string
	if s.store != nil {
		key, err := storage.Key(s.imagePrefix, uuid.NewString(), sanitizeFilename(cmd.Filename))
		if err != nil {
			return nil, err
		}
		if err := s.store.Upload(ctx, key, bytes.NewReader(cmd.Data), info.MIME); err != nil {
			return nil, fmt.Errorf("upload image: %w", err)
		}
		path = key
		rt.Images = imaging.BlobLoader{Store: s.store}
	} else {
		local, err := s.stage(cmd.Data, cmd.Filename, info.Format)
		if err != nil {
			return nil, err
		}
		path = local
		rt.Images = imaging.FileLoader{}
	}

	s.logger.InfoContext(ctx, "diagnosis requested", "image", path, "plant", cmd.PlantName, "location", location)

	return workflow.Execute(ctx, &rt, workflow.Request{
		ImagePath: path,
		UserQuery: cmd.UserQuery,
		Location:  location,
		PlantName: cmd.PlantName,
	})
}

func (s *service) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	prompt, err := prompts.Compose(ctx, s.rt.Prompts, prompts.StageChat, req.sections()...)
	if err != nil {
		return nil, err
	}

	text, err := s.replier.Reply(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReplyFailed, err)
	}

	return &ChatResponse{Response: strings.TrimSpace(text)}, nil
}

func (s *service) Annotate(data []byte, analysis *workflow.ImageAnalysis) ([]byte, string, error) {
	if analysis == nil {
		return nil, "", fmt.Errorf("%w: analysis required", ErrInvalidAnalysis)
	}
	return imaging.Annotate(data, analysis.Boxes())
}

func (s *service) Image(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.store == nil {
		return nil, storage.ErrNotConfigured
	}
	return s.store.Download(ctx, key)
}

// stage writes an upload to <uploadDir>/<uuid>/<filename> and returns
// its absolute path. Staged files are never removed by the service.
func (s *service) stage(data []byte, filename, format string) (string, error) {
	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "image." + format
	}

	dir, err := filepath.Abs(filepath.Join(s.uploadDir, uuid.NewString()))
	if err != nil {
		return "", fmt.Errorf("stage image: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("stage image: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("stage image: %w", err)
	}
	return path, nil
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" {
		name = "image"
	}
	return url.PathEscape(name)
}

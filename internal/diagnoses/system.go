package diagnoses

import (
	"context"
	"io"

	"github.com/JaimeStill/floracare/internal/workflow"
)

// System defines the public contract for diagnosis operations.
type System interface {
	Handler(maxUploadSize int64) *Handler

	// Diagnose stores the uploaded image and runs the full pipeline over it.
	Diagnose(ctx context.Context, cmd DiagnoseCommand) (*workflow.DiagnosisReport, error)

	// Chat answers a follow-up question grounded in a prior report.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Annotate draws the analysis bounding boxes onto the image and
	// returns the encoded result with its MIME type.
	Annotate(data []byte, analysis *workflow.ImageAnalysis) ([]byte, string, error)

	// Image streams a stored upload by key.
	Image(ctx context.Context, key string) (io.ReadCloser, error)
}

package workflow_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/goleak"

	"github.com/JaimeStill/floracare/internal/knowledge"
	"github.com/JaimeStill/floracare/internal/plants"
	"github.com/JaimeStill/floracare/internal/prompts"
	"github.com/JaimeStill/floracare/internal/workflow"
	"github.com/JaimeStill/floracare/pkg/weather"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const tomatoAnalysis = `{
  "plant_type": "Tomato",
  "diagnosed_disease": "Early Blight",
  "visual_symptoms": ["brown concentric spots", "yellowing lower leaves"],
  "confidence": 0.62,
  "severity_score": 6,
  "affected_area": "15%",
  "description": "Lower leaves show target-like lesions.",
  "detected_objects": [{"name": "lesion", "bounding_box": [100, 100, 300, 300]}]
}`

const healthyAnalysis = `{
  "plant_type": "Basil",
  "diagnosed_disease": null,
  "visual_symptoms": [],
  "confidence": 0.95,
  "description": "Uniform green leaves with no visible damage.",
  "detected_objects": []
}`

const earlyBlightSynthesis = `{
  "diagnosis": "Early Blight",
  "category": "Early Blight",
  "progression": "new",
  "treatment_plan": ["Remove infected leaves", "Apply copper fungicide"],
  "user_query_answer": null
}`

var errTransport = errors.New("connection refused")

func ptr[T any](v T) *T { return &v }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := range 8 {
		for y := range 8 {
			img.Set(x, y, color.RGBA{G: 160, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type fakeImages struct {
	data []byte
	err  error
}

func (f fakeImages) Load(_ context.Context, _ string) ([]byte, error) {
	return f.data, f.err
}

type fakeVision struct {
	visionFn func(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

func (f *fakeVision) Vision(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	return f.visionFn(ctx, prompt, image, mimeType)
}

func visionReturning(text string) *fakeVision {
	return &fakeVision{visionFn: func(context.Context, string, []byte, string) (string, error) {
		return text, nil
	}}
}

type fakeReasoning struct {
	mu      sync.Mutex
	prompts []string
	chatFn  func(ctx context.Context, prompt string) (string, error)
}

func (f *fakeReasoning) Chat(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()
	return f.chatFn(ctx, prompt)
}

func (f *fakeReasoning) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func reasoningReturning(text string) *fakeReasoning {
	return &fakeReasoning{chatFn: func(context.Context, string) (string, error) {
		return text, nil
	}}
}

type fakeWeather struct {
	mu       sync.Mutex
	snapshot *weather.Snapshot
	err      error
	location string
}

func (f *fakeWeather) Current(_ context.Context, location string) (*weather.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.location = location
	return f.snapshot, f.err
}

type fakeKnowledge struct {
	mu     sync.Mutex
	chunks []knowledge.Chunk
	err    error
	query  string
	k      int
}

func (f *fakeKnowledge) SimilaritySearch(_ context.Context, text string, k int) ([]knowledge.Chunk, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.query, f.k = text, k
	return slices.Clone(f.chunks), f.err
}

// memStore is an in-memory HistoryStore. CreatePlant mirrors the
// insert-or-ignore behavior of the Postgres repository.
type memStore struct {
	mu        sync.Mutex
	plants    map[string]*plants.Plant
	history   map[uuid.UUID][]string
	logs      []plants.AppendCommand
	weather   map[uuid.UUID]*weather.Snapshot
	species   map[uuid.UUID]string
	findErr   error
	appendErr error
	speciesFn func() error
}

func newMemStore() *memStore {
	return &memStore{
		plants:  map[string]*plants.Plant{},
		history: map[uuid.UUID][]string{},
		weather: map[uuid.UUID]*weather.Snapshot{},
		species: map[uuid.UUID]string{},
	}
}

func (s *memStore) seed(name string, entries ...string) *plants.Plant {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := &plants.Plant{ID: uuid.New(), Name: name, Species: plants.UnknownSpecies, CreatedAt: time.Now()}
	s.plants[name] = p
	s.history[p.ID] = entries
	return p
}

func (s *memStore) FindPlantByName(_ context.Context, name string) (*plants.Plant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	p, ok := s.plants[name]
	if !ok {
		return nil, plants.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) CreatePlant(_ context.Context, name, species string) (*plants.Plant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.plants[name]; ok {
		cp := *p
		return &cp, nil
	}
	p := &plants.Plant{ID: uuid.New(), Name: name, Species: species, CreatedAt: time.Now()}
	s.plants[name] = p
	cp := *p
	return &cp, nil
}

func (s *memStore) RecentHistory(_ context.Context, plantID uuid.UUID, limit int) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.history[plantID]
	if len(h) > limit {
		h = h[:limit]
	}
	return slices.Clone(h), nil
}

func (s *memStore) AppendLog(_ context.Context, cmd plants.AppendCommand) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendErr != nil {
		return uuid.Nil, s.appendErr
	}
	s.logs = append(s.logs, cmd)
	return uuid.New(), nil
}

func (s *memStore) AttachWeather(_ context.Context, logID uuid.UUID, snapshot *weather.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weather[logID] = snapshot
	return nil
}

func (s *memStore) UpdateSpecies(_ context.Context, plantID uuid.UUID, species string) error {
	if s.speciesFn != nil {
		if err := s.speciesFn(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.species[plantID] = species
	return nil
}

func (s *memStore) plantCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.plants)
}

func (s *memStore) logCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.logs)
}

type fixture struct {
	vision    *fakeVision
	reasoning *fakeReasoning
	weather   *fakeWeather
	knowledge *fakeKnowledge
	store     *memStore
	rt        *workflow.Runtime
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		vision:    visionReturning(tomatoAnalysis),
		reasoning: reasoningReturning(earlyBlightSynthesis),
		weather: &fakeWeather{snapshot: &weather.Snapshot{
			Temperature: 18.5, Humidity: 82, Condition: "light rain", Location: "London,UK",
		}},
		knowledge: &fakeKnowledge{chunks: []knowledge.Chunk{
			{ID: "1", Content: "Early blight causes concentric rings.", Source: "tomato.md"},
			{ID: "2", Content: "Copper sprays slow fungal spread.", Source: ""},
		}},
		store: newMemStore(),
	}

	f.rt = &workflow.Runtime{
		Vision:    f.vision,
		Reasoning: f.reasoning,
		Weather:   f.weather,
		Knowledge: f.knowledge,
		History:   f.store,
		Images:    fakeImages{data: pngBytes(t)},
		Prompts:   prompts.Defaults{},
		Options:   workflow.DefaultOptions(),
		Logger:    discard(),
	}
	return f
}

package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fotokeramika/assets"
	"fotokeramika/catalog"
	"fotokeramika/filter"
	"fotokeramika/metrics"
	"fotokeramika/render"
	"fotokeramika/scene"
	"fotokeramika/storage"
)

// EditorKind selects the canvas preset of an editor session
type EditorKind string

const (
	EditorBackground EditorKind = "background"
	EditorPlate      EditorKind = "plate"
)

// Image slots tracked for stale load cancellation
const (
	slotBackground = "background"
	slotPortrait   = "portrait"
)

var (
	ErrEditorNotFound = errors.New("editor session not found")
	ErrInvalidEdit    = errors.New("invalid editor request")
)

// EditorState is the client view of an editor session
type EditorState struct {
	ID               string         `json:"id"`
	Kind             EditorKind     `json:"kind"`
	Graph            scene.Graph    `json:"graph"`
	Ops              []scene.DrawOp `json:"ops"`
	ExportMultiplier int            `json:"exportMultiplier"`
	OutputWidth      int            `json:"outputWidth"`
	OutputHeight     int            `json:"outputHeight"`
}

// FilterUpdate changes the portrait's adjustments.
// Reset is applied first; adjustment keys are filter kinds.
type FilterUpdate struct {
	Reset       bool               `json:"reset"`
	Grayscale   *bool              `json:"grayscale,omitempty"`
	Adjustments map[string]float64 `json:"adjustments,omitempty"`
}

// TextUpdate replaces the plate text fields that are set
type TextUpdate struct {
	Name      *string `json:"name,omitempty"`
	BirthDate *string `json:"birthDate,omitempty"`
	DeathDate *string `json:"deathDate,omitempty"`
	Epitaph   *string `json:"epitaph,omitempty"`
}

// StyleUpdate changes the text style and plate colour
type StyleUpdate struct {
	FontFamily      *string  `json:"fontFamily,omitempty"`
	FontSize        *float64 `json:"fontSize,omitempty"`
	TextColor       *string  `json:"textColor,omitempty"`
	BackgroundColor *string  `json:"backgroundColor,omitempty"`
}

// PortraitTransform moves or rescales the portrait
type PortraitTransform struct {
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
	Scale *float64 `json:"scale,omitempty"`
}

type editorSession struct {
	mu         sync.Mutex
	id         string
	kind       EditorKind
	graph      scene.Graph
	multiplier int
	touched    time.Time

	compositor *render.Compositor
	exporter   *render.Exporter
	tracker    *assets.Tracker
}

// EditorServiceConfig holds the collaborators of an EditorService
type EditorServiceConfig struct {
	Catalog *catalog.Catalog
	Loader  render.ImageLoader
	Fonts   *render.FontBook
	Storage storage.AssetStorage
	Orders  *OrderService
	// ImageSources lists extra URL prefixes images may be loaded from, besides
	// the storage backend and the catalog background hosts
	ImageSources []string
}

// EditorService owns the scene graph of every open editor session
type EditorService struct {
	catalog *catalog.Catalog
	loader  render.ImageLoader
	fonts   *render.FontBook
	storage storage.AssetStorage
	orders  *OrderService
	sources *assets.Sources
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*editorSession
}

// NewEditorService creates a new EditorService
func NewEditorService(cfg EditorServiceConfig) *EditorService {
	sources := assets.NewSources(cfg.ImageSources...)
	if cfg.Storage != nil {
		sources.Add(cfg.Storage.PublicURLPrefix())
	}
	for _, bg := range cfg.Catalog.Backgrounds {
		sources.Add(assets.Origin(bg.URL))
	}
	log.Printf("🖼️ Editor: images allowed from %v", sources.Prefixes())

	return &EditorService{
		catalog:  cfg.Catalog,
		loader:   cfg.Loader,
		fonts:    cfg.Fonts,
		storage:  cfg.Storage,
		orders:   cfg.Orders,
		sources:  sources,
		now:      time.Now,
		sessions: make(map[string]*editorSession),
	}
}

// Open starts an editor session with the catalog preset of kind
func (s *EditorService) Open(kind EditorKind) (EditorState, error) {
	var graph scene.Graph
	var multiplier int

	switch kind {
	case EditorBackground:
		preset := s.catalog.Editors.Background
		graph = scene.New(preset.Width, preset.Height).SetBackgroundColor(preset.BackgroundColor)
		if bg, ok := s.catalog.Background(preset.DefaultBackground); ok {
			graph = graph.SetBackground(bg.URL)
		}
		multiplier = preset.ExportMultiplier
	case EditorPlate:
		preset := s.catalog.Editors.Plate
		graph = scene.New(preset.Width, preset.Height).
			SetBackgroundColor(preset.BackgroundColor).
			SetFont(preset.FontFamily).
			SetFontSize(preset.BaseFontSize).
			SetTextColor(preset.TextColor)
		multiplier = preset.ExportMultiplier
	default:
		return EditorState{}, fmt.Errorf("%w: unknown editor kind %q", ErrInvalidEdit, kind)
	}

	compositor := render.NewCompositor(s.loader)
	session := &editorSession{
		id:         uuid.NewString(),
		kind:       kind,
		graph:      graph,
		multiplier: multiplier,
		touched:    s.now(),
		compositor: compositor,
		exporter:   render.NewExporter(compositor, s.fonts),
		tracker:    assets.NewTracker(),
	}

	s.mu.Lock()
	s.sessions[session.id] = session
	count := len(s.sessions)
	s.mu.Unlock()
	metrics.SetEditorSessions(count)

	log.Printf("🎨 Editor: opened %s session %s (%dx%d)", kind, session.id, graph.Width, graph.Height)
	return session.state(), nil
}

// Get returns the current state of a session
func (s *EditorService) Get(id string) (EditorState, error) {
	session, err := s.session(id)
	if err != nil {
		return EditorState{}, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.state(), nil
}

// SetBackground loads ref and makes it the background image.
// A newer background request for the same session supersedes this one:
// the older load is cancelled and its result discarded with assets.ErrStaleLoad.
func (s *EditorService) SetBackground(ctx context.Context, id, ref string) (EditorState, error) {
	ref, err := s.checkRef(ref, "background")
	if err != nil {
		return EditorState{}, err
	}
	session, err := s.session(id)
	if err != nil {
		return EditorState{}, err
	}
	_, ticket, err := session.load(ctx, slotBackground, ref)
	if err != nil {
		return EditorState{}, err
	}
	return session.applyLoaded(s.now(), ticket, func(g scene.Graph) scene.Graph { return g.SetBackground(ref) })
}

// SetPortrait loads ref and places it as the portrait, replacing any previous one
func (s *EditorService) SetPortrait(ctx context.Context, id, ref string) (EditorState, error) {
	ref, err := s.checkRef(ref, "portrait")
	if err != nil {
		return EditorState{}, err
	}
	session, err := s.session(id)
	if err != nil {
		return EditorState{}, err
	}
	img, ticket, err := session.load(ctx, slotPortrait, ref)
	if err != nil {
		return EditorState{}, err
	}
	bounds := img.Bounds()
	return session.applyLoaded(s.now(), ticket, func(g scene.Graph) scene.Graph {
		return g.SetPortrait(ref, bounds.Dx(), bounds.Dy())
	})
}

// checkRef refuses image references outside the allowed sources
func (s *EditorService) checkRef(ref, what string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: %s image is required", ErrInvalidEdit, what)
	}
	if !s.sources.Allows(ref) {
		log.Printf("⚠️  Editor: refused %s image from %q", what, ref)
		return "", fmt.Errorf("%w: %s image source is not allowed", ErrInvalidEdit, what)
	}
	return ref, nil
}

// UploadPortrait stores a customer photo and places it as the portrait
func (s *EditorService) UploadPortrait(ctx context.Context, id, name string, data []byte) (EditorState, error) {
	if _, err := s.session(id); err != nil {
		return EditorState{}, err
	}
	ref, err := s.storage.UploadAsset(ctx, data, name)
	if err != nil {
		return EditorState{}, err
	}
	return s.SetPortrait(ctx, id, ref)
}

// RemovePortrait drops the portrait layer
func (s *EditorService) RemovePortrait(id string) (EditorState, error) {
	session, err := s.session(id)
	if err != nil {
		return EditorState{}, err
	}
	return session.apply(s.now(), scene.Graph.RemovePortrait), nil
}

// TransformPortrait moves and/or rescales the portrait; without a portrait it changes nothing
func (s *EditorService) TransformPortrait(id string, t PortraitTransform) (EditorState, error) {
	session, err := s.session(id)
	if err != nil {
		return EditorState{}, err
	}
	return session.apply(s.now(), func(g scene.Graph) scene.Graph {
		if t.Scale != nil {
			g = g.ScalePortrait(*t.Scale)
		}
		if (t.X != nil || t.Y != nil) && g.Portrait != nil {
			x, y := g.Portrait.X, g.Portrait.Y
			if t.X != nil {
				x = *t.X
			}
			if t.Y != nil {
				y = *t.Y
			}
			g = g.MovePortrait(x, y)
		}
		return g
	}), nil
}

// UpdateFilters applies filter changes to the portrait
func (s *EditorService) UpdateFilters(id string, update FilterUpdate) (EditorState, error) {
	kinds := make([]filter.Kind, 0, len(update.Adjustments))
	values := make(map[filter.Kind]float64, len(update.Adjustments))
	for raw, magnitude := range update.Adjustments {
		kind, err := filter.ParseKind(raw)
		if err != nil {
			return EditorState{}, fmt.Errorf("%w: %v", ErrInvalidEdit, err)
		}
		kinds = append(kinds, kind)
		values[kind] = magnitude
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	session, err := s.session(id)
	if err != nil {
		return EditorState{}, err
	}
	return session.apply(s.now(), func(g scene.Graph) scene.Graph {
		if update.Reset {
			g = g.ResetFilters()
		}
		if update.Grayscale != nil {
			g = g.SetGrayscale(*update.Grayscale)
		}
		for _, kind := range kinds {
			if kind.IsToggle() {
				g = g.SetGrayscale(values[kind] != 0)
				continue
			}
			g = g.UpdateFilter(kind, values[kind])
		}
		return g
	}), nil
}

// SetText replaces the text fields present in update
func (s *EditorService) SetText(id string, update TextUpdate) (EditorState, error) {
	session, err := s.session(id)
	if err != nil {
		return EditorState{}, err
	}
	return session.apply(s.now(), func(g scene.Graph) scene.Graph {
		for field, value := range map[string]*string{
			scene.FieldName:      update.Name,
			scene.FieldBirthDate: update.BirthDate,
			scene.FieldDeathDate: update.DeathDate,
			scene.FieldEpitaph:   update.Epitaph,
		} {
			if value != nil {
				g = g.SetTextField(field, *value)
			}
		}
		return g
	}), nil
}

// SetStyle changes font, size, text colour and plate colour
func (s *EditorService) SetStyle(id string, update StyleUpdate) (EditorState, error) {
	if update.FontFamily != nil && !s.knownFont(*update.FontFamily) {
		return EditorState{}, fmt.Errorf("%w: unknown font %q", ErrInvalidEdit, *update.FontFamily)
	}
	session, err := s.session(id)
	if err != nil {
		return EditorState{}, err
	}
	return session.apply(s.now(), func(g scene.Graph) scene.Graph {
		if update.FontFamily != nil {
			g = g.SetFont(*update.FontFamily)
		}
		if update.FontSize != nil {
			g = g.SetFontSize(*update.FontSize)
		}
		if update.TextColor != nil {
			g = g.SetTextColor(*update.TextColor)
		}
		if update.BackgroundColor != nil {
			g = g.SetBackgroundColor(*update.BackgroundColor)
		}
		return g
	}), nil
}

func (s *EditorService) knownFont(family string) bool {
	for _, f := range s.catalog.Fonts {
		if strings.EqualFold(f, strings.TrimSpace(family)) {
			return true
		}
	}
	return false
}

// Export renders the session's scene to PNG. A zero multiplier uses the editor preset.
func (s *EditorService) Export(ctx context.Context, id string, multiplier int) ([]byte, error) {
	session, err := s.session(id)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	graph := session.graph
	if multiplier == 0 {
		multiplier = session.multiplier
	}
	session.touched = s.now()
	session.mu.Unlock()

	return session.exporter.Export(ctx, graph, multiplier)
}

// Preview renders the session's scene at its logical size
func (s *EditorService) Preview(ctx context.Context, id string) ([]byte, error) {
	return s.Export(ctx, id, 1)
}

// SaveToOrder exports the design, uploads it and attaches it to a wizard session.
// A plate design switches the order to the plate-only service.
func (s *EditorService) SaveToOrder(ctx context.Context, id, wizardID string) (WizardState, error) {
	if _, err := s.orders.Get(wizardID); err != nil {
		return WizardState{}, err
	}
	session, err := s.session(id)
	if err != nil {
		return WizardState{}, err
	}

	png, err := s.Export(ctx, id, 0)
	if err != nil {
		return WizardState{}, err
	}
	designURL, err := s.storage.UploadAsset(ctx, png, fmt.Sprintf("%s-design.png", session.kind))
	if err != nil {
		return WizardState{}, err
	}

	log.Printf("💾 Editor: saved %s design of %s to wizard %s", session.kind, id, wizardID)
	return s.orders.AddPhotoURL(wizardID, designURL, session.kind == EditorPlate)
}

// Close ends a session and aborts its in-flight loads
func (s *EditorService) Close(id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	count := len(s.sessions)
	s.mu.Unlock()

	if !ok {
		return ErrEditorNotFound
	}
	session.tracker.CancelAll()
	metrics.SetEditorSessions(count)
	return nil
}

// EvictIdle closes sessions untouched for longer than ttl and reports how many were removed
func (s *EditorService) EvictIdle(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	var evicted []*editorSession
	for id, session := range s.sessions {
		if !session.mu.TryLock() {
			continue
		}
		idle := now.Sub(session.touched) > ttl
		session.mu.Unlock()
		if idle {
			delete(s.sessions, id)
			evicted = append(evicted, session)
		}
	}
	count := len(s.sessions)
	s.mu.Unlock()

	for _, session := range evicted {
		session.tracker.CancelAll()
	}
	metrics.SetEditorSessions(count)
	return len(evicted)
}

func (s *EditorService) session(id string) (*editorSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrEditorNotFound
	}
	return session, nil
}

// load fetches ref for slot without holding the session lock, so a newer
// request for the same slot can cancel it. The ticket must be passed to applyLoaded.
func (es *editorSession) load(ctx context.Context, slot, ref string) (image.Image, assets.Ticket, error) {
	loadCtx, ticket := es.tracker.Begin(ctx, slot)
	img, err := es.compositor.Original(loadCtx, ref)
	if finishErr := es.tracker.Finish(ticket); finishErr != nil {
		return nil, ticket, finishErr
	}
	if err != nil {
		return nil, ticket, err
	}
	return img, ticket, nil
}

// applyLoaded applies a transition that depends on a finished load. If a newer
// load of the same slot began in the meantime the transition is discarded.
func (es *editorSession) applyLoaded(now time.Time, ticket assets.Ticket, transition func(scene.Graph) scene.Graph) (EditorState, error) {
	es.mu.Lock()
	defer es.mu.Unlock()

	if !es.tracker.Current(ticket) {
		return EditorState{}, assets.ErrStaleLoad
	}
	es.transition(now, transition)
	return es.state(), nil
}

// apply runs a graph transition under the session lock
func (es *editorSession) apply(now time.Time, transition func(scene.Graph) scene.Graph) EditorState {
	es.mu.Lock()
	defer es.mu.Unlock()

	es.transition(now, transition)
	return es.state()
}

// transition replaces the graph and drops cached images it no longer references.
// es.mu must be held.
func (es *editorSession) transition(now time.Time, next func(scene.Graph) scene.Graph) {
	es.graph = next(es.graph)
	es.touched = now

	var keep []string
	if es.graph.Background.ImageRef != "" {
		keep = append(keep, es.graph.Background.ImageRef)
	}
	if es.graph.Portrait != nil {
		keep = append(keep, es.graph.Portrait.ImageRef)
	}
	es.compositor.Retain(keep...)
}

// state must be called with es.mu held
func (es *editorSession) state() EditorState {
	w, h := render.OutputSize(es.graph, es.multiplier)
	return EditorState{
		ID:               es.id,
		Kind:             es.kind,
		Graph:            es.graph,
		Ops:              es.graph.Render(),
		ExportMultiplier: es.multiplier,
		OutputWidth:      w,
		OutputHeight:     h,
	}
}

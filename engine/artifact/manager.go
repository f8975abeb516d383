package artifact

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"github.com/forgebuild/forge/common/model"
	"github.com/forgebuild/forge/engine/eventbus"
	"github.com/forgebuild/forge/engine/plugin"
)

// Outcome is the result of BuildFromDependencies (§4.G).
type Outcome struct {
	Cached      bool
	Fingerprint string
	Outputs     []string
	Cause       error
}

// Manager is the Artifact Manager: it computes fingerprints, consults the
// Index, and either replays a cache hit or invokes a plugin blueprint.
type Manager struct {
	index *Index
	bus   *eventbus.Bus
	ext   *plugin.ExtensionManager
	clock clock.Clock

	// buildMu serializes blueprint invocations per fingerprint, guaranteeing
	// at most one concurrent build per fingerprint within an invocation (P9).
	buildMu   sync.Mutex
	inFlight  map[string]struct{}
	inFlightC map[string]chan struct{}
}

func NewManager(index *Index, bus *eventbus.Bus, ext *plugin.ExtensionManager, c clock.Clock) *Manager {
	if c == nil {
		c = clock.New()
	}
	return &Manager{
		index:     index,
		bus:       bus,
		ext:       ext,
		clock:     c,
		inFlight:  make(map[string]struct{}),
		inFlightC: make(map[string]chan struct{}),
	}
}

// BuildFromDependencies implements the algorithm in §4.G: compute the
// fingerprint, check the cache, and either short-circuit with a replayed
// log or run the blueprint and store its outputs.
func (m *Manager) BuildFromDependencies(
	ctx context.Context,
	scope *eventbus.Scope,
	blueprint plugin.ArtifactBlueprint,
	art *model.Artifact,
	project *model.Project,
	buildConfig model.FingerprintContributor,
	invalidate bool,
) Outcome {
	fp, err := Fingerprint(project, buildConfig)
	if err != nil {
		return Outcome{Cause: err}
	}

	m.awaitFingerprintSlot(fp)
	defer m.releaseFingerprintSlot(fp)

	now := m.clock.Now().UnixMilli()
	if !invalidate {
		if entry, ok := m.index.Lookup(fp, now); ok {
			m.bus.Emit(eventbus.NewEvent(scope, eventbus.LevelInfo, eventbus.KindCacheHit, map[string]interface{}{
				"fingerprint": fp, "artifact": art.Name.String(),
			}))
			eventbus.Replay(m.bus, scope, entry.LogCache)
			return Outcome{Cached: true, Fingerprint: fp, Outputs: entry.Outputs}
		}
	}

	m.bus.Emit(eventbus.NewEvent(scope, eventbus.LevelInfo, eventbus.KindCacheMiss, map[string]interface{}{
		"fingerprint": fp, "artifact": art.Name.String(),
	}))

	// Dependencies are resolved once, at graph-attach time (Engine Facade
	// step 3), rather than on every BuildFromDependencies call.

	replay := eventbus.NewReplaySink()
	sinkToken := m.bus.AddSink(scopedSink{scope: scope, sink: replay})
	defer m.bus.RemoveSink(sinkToken)

	outputs, err := blueprint.Run(ctx, art, project, buildConfig, busLogSink{bus: m.bus, scope: scope})
	if err != nil {
		return Outcome{Cause: err}
	}

	storedOutputs, err := m.storeOutputs(fp, outputs)
	if err != nil {
		return Outcome{Cause: err}
	}

	m.index.Store(CacheEntry{
		Fingerprint:      fp,
		ProjectID:        project.ID,
		ArtifactName:     art.Name.String(),
		Outputs:          storedOutputs,
		StoredAtMillis:   now,
		LastAccessMillis: now,
		LogCache:         replay.Entries(),
	})
	art.LogCache = replay.Entries()

	return Outcome{Fingerprint: fp, Outputs: storedOutputs}
}

// Flush persists the underlying cache index to disk.
func (m *Manager) Flush() error {
	return m.index.FlushCacheToDisk()
}

// RunArtifactJob adapts BuildFromDependencies to the executor's
// ArtifactRunner contract for an artifact's "build" job.
func (m *Manager) RunArtifactJob(ctx context.Context, scope *eventbus.Scope, job *model.Job) error {
	art, project, buildConfig, blueprintRef := m.lookupJobContext(job)
	if art == nil {
		return nil
	}
	blueprint, err := m.ext.ResolveBlueprint(blueprintRef)
	if err != nil {
		return err
	}
	outcome := m.BuildFromDependencies(ctx, scope, blueprint, art, project, buildConfig, false)
	return outcome.Cause
}

// lookupJobContext is a seam for the Engine Facade to supply per-job
// artifact/project/config context; the default implementation here
// handles the common case where job.Owner is the artifact's Project.
func (m *Manager) lookupJobContext(job *model.Job) (*model.Artifact, *model.Project, model.FingerprintContributor, model.PluginComponentRef) {
	project, ok := job.Owner.(*model.Project)
	if !ok {
		return nil, nil, nil, model.PluginComponentRef{}
	}
	art, ok := project.Artifacts[job.ArtifactName]
	if !ok {
		return nil, nil, nil, model.PluginComponentRef{}
	}
	return art, project, noContributions{}, art.Blueprint
}

func (m *Manager) storeOutputs(fp string, outputs []string) ([]string, error) {
	destDir := m.index.OutputDir(fp)
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "creating cache output dir %s", destDir)
	}
	stored := make([]string, 0, len(outputs))
	for _, out := range outputs {
		dest := filepath.Join(destDir, filepath.Base(out))
		if err := os.Rename(out, dest); err != nil {
			return nil, errors.Wrapf(err, "moving output %s into cache", out)
		}
		stored = append(stored, dest)
	}
	return stored, nil
}

func (m *Manager) awaitFingerprintSlot(fp string) {
	for {
		m.buildMu.Lock()
		if _, busy := m.inFlight[fp]; !busy {
			m.inFlight[fp] = struct{}{}
			m.inFlightC[fp] = make(chan struct{})
			m.buildMu.Unlock()
			return
		}
		wait := m.inFlightC[fp]
		m.buildMu.Unlock()
		<-wait
	}
}

func (m *Manager) releaseFingerprintSlot(fp string) {
	m.buildMu.Lock()
	defer m.buildMu.Unlock()
	if ch, ok := m.inFlightC[fp]; ok {
		close(ch)
	}
	delete(m.inFlight, fp)
	delete(m.inFlightC, fp)
}

// noContributions is the zero-value FingerprintContributor used when the
// Engine Facade has not wired a richer build-configuration record for a
// job; it contributes nothing beyond the source-set fingerprints.
type noContributions struct{}

func (noContributions) FingerprintContributions() []model.FieldContribution { return nil }

type busLogSink struct {
	bus   *eventbus.Bus
	scope *eventbus.Scope
}

func (s busLogSink) Log(level, message string, fields map[string]interface{}) {
	payload := map[string]interface{}{"message": message}
	for k, v := range fields {
		payload[k] = v
	}
	s.bus.Emit(eventbus.NewEvent(s.scope, eventbus.Level(level), eventbus.KindScriptLog, payload))
}

type scopedSink struct {
	scope *eventbus.Scope
	sink  *eventbus.ReplaySink
}

func (s scopedSink) Emit(e eventbus.Event) {
	if e.ContextID != s.scope.ID {
		return
	}
	s.sink.Emit(e)
}

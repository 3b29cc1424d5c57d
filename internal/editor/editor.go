// Package editor owns the working copy of site-config.json and every write
// made to it. Writes are whole-file commits through the Contents API guarded
// by the SHA the working copy was loaded at.
package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"willstech-admin/internal/github"
	"willstech-admin/internal/logger"
	"willstech-admin/internal/metrics"
	"willstech-admin/internal/siteconfig"
)

var (
	ErrNoChanges       = errors.New("no changes detected")
	ErrProductNotFound = errors.New("product not found")
	ErrNotConfigured   = errors.New("repository is not configured")
	// ErrRestorePending blocks section and product edits while a restored
	// document is waiting to be deployed.
	ErrRestorePending = errors.New("restored document is not deployed yet, deploy it or sync to discard it")
)

const sectionDeploy = "deploy"

const (
	SourceFile      = "file"
	SourceExtracted = "extracted"
	SourceEmpty     = "empty"
)

// Backend is the slice of the GitHub client the editor needs.
type Backend interface {
	GetFile(ctx context.Context, path string) (*github.File, error)
	PutFile(ctx context.Context, r github.PutFileRequest) (*github.CommitResult, error)
	VerifyAccess(ctx context.Context) (*github.Access, error)
	Target() github.Target
}

type Notifier interface {
	BroadcastEvent(eventType string, data interface{})
}

// CommitInfo describes one successful write for the history log.
type CommitInfo struct {
	Repository string
	Branch     string
	Path       string
	Section    string
	Message    string
	FileSHA    string
	CommitSHA  string
	CommitURL  string
	Retried    bool
	At         time.Time
}

type Recorder interface {
	RecordCommit(ctx context.Context, c CommitInfo) error
}

type SnapshotWriter interface {
	WriteSnapshot(doc *siteconfig.Document, at time.Time) (string, error)
}

type Options struct {
	Backend      Backend
	ConfigPath   string
	IndexPath    string
	CommitPrefix string
	Logger       *logger.Logger
	Notifier     Notifier
	Recorder     Recorder
	Snapshots    SnapshotWriter
	Clock        func() time.Time
}

// CommitResult is returned by every operation that writes to the repository.
type CommitResult struct {
	Section   string    `json:"section"`
	Path      string    `json:"path"`
	Message   string    `json:"message"`
	FileSHA   string    `json:"file_sha"`
	CommitSHA string    `json:"commit_sha"`
	CommitURL string    `json:"commit_url"`
	Retried   bool      `json:"retried"`
	At        time.Time `json:"at"`
}

type Status struct {
	Target     github.Target `json:"target"`
	TreeURL    string        `json:"tree_url"`
	Configured bool          `json:"configured"`
	Loaded     bool          `json:"loaded"`
	SHA        string        `json:"sha"`
	Source     string        `json:"source"`
	LastSynced time.Time     `json:"last_synced"`
	Dirty      bool          `json:"dirty"`
}

type Editor struct {
	mu sync.Mutex

	backend      Backend
	configPath   string
	indexPath    string
	commitPrefix string

	log       *logger.Logger
	notifier  Notifier
	recorder  Recorder
	snapshots SnapshotWriter
	now       func() time.Time

	doc        *siteconfig.Document
	saved      *siteconfig.Document
	sha        string
	source     string
	lastSynced time.Time
	dirty      bool
}

func New(opts Options) *Editor {
	e := &Editor{
		backend:      opts.Backend,
		configPath:   opts.ConfigPath,
		indexPath:    opts.IndexPath,
		commitPrefix: opts.CommitPrefix,
		log:          opts.Logger,
		notifier:     opts.Notifier,
		recorder:     opts.Recorder,
		snapshots:    opts.Snapshots,
		now:          opts.Clock,
	}
	if e.configPath == "" {
		e.configPath = "data/site-config.json"
	}
	if e.indexPath == "" {
		e.indexPath = "index.html"
	}
	if e.commitPrefix == "" {
		e.commitPrefix = "🔄 Will's Tech Update"
	}
	if e.log == nil {
		e.log = logger.Nop()
	}
	e.log = e.log.WithComponent("editor")
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Sync replaces the working copy with the repository's current file.
func (e *Editor) Sync(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.syncLocked(ctx)
}

// SetBackend points the editor at a new repository and syncs from it.
func (e *Editor) SetBackend(ctx context.Context, b Backend) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.backend = b
	e.doc, e.saved, e.sha, e.source, e.dirty = nil, nil, "", "", false
	return e.syncLocked(ctx)
}

func (e *Editor) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Status{
		Configured: e.backend != nil,
		Loaded:     e.doc != nil,
		SHA:        e.sha,
		Source:     e.source,
		LastSynced: e.lastSynced,
		Dirty:      e.dirty,
	}
	if e.backend != nil {
		s.Target = e.backend.Target()
		s.TreeURL = s.Target.TreeURL()
	}
	return s
}

// Document returns a copy of the working document, syncing first if needed.
func (e *Editor) Document(ctx context.Context) (*siteconfig.Document, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	return e.doc.Clone(), nil
}

func (e *Editor) ensureLoaded(ctx context.Context) error {
	if e.doc != nil {
		return nil
	}
	return e.syncLocked(ctx)
}

func (e *Editor) syncLocked(ctx context.Context) error {
	if e.backend == nil {
		return ErrNotConfigured
	}
	doc, sha, source, err := e.load(ctx)
	if err != nil {
		e.notify("sync_failed", map[string]string{"error": err.Error()})
		return err
	}
	e.adopt(doc, sha)
	e.source = source
	e.lastSynced = e.now()
	metrics.SetLastSync(e.lastSynced)
	e.writeSnapshot()

	e.log.Infow("Synced with GitHub",
		"repository", e.backend.Target().FullName(),
		"branch", e.backend.Target().Branch,
		"sha", sha,
		"source", source,
		"products", len(doc.Products),
	)
	e.notify("sync_completed", map[string]interface{}{"sha": sha, "source": source})
	return nil
}

// load reads the config file, falling back to the site's index page and then
// to an empty document when the file does not exist yet.
func (e *Editor) load(ctx context.Context) (*siteconfig.Document, string, string, error) {
	file, err := e.backend.GetFile(ctx, e.configPath)
	if err == nil {
		doc, derr := siteconfig.Decode(file.Content)
		if derr != nil {
			return nil, "", "", derr
		}
		return doc, file.SHA, SourceFile, nil
	}
	if !errors.Is(err, github.ErrNotFound) {
		return nil, "", "", fmt.Errorf("could not load data from repository: %w", err)
	}

	e.log.Infow("No site config in repository, extracting from index page", "path", e.indexPath)
	index, ierr := e.backend.GetFile(ctx, e.indexPath)
	if ierr == nil {
		doc, xerr := siteconfig.Extract(index.Content, e.now())
		if xerr == nil {
			return doc, "", SourceExtracted, nil
		}
		e.log.WithError(xerr).Warn("Index page extraction failed")
	} else {
		e.log.WithError(ierr).Warn("Index page not readable")
	}
	return siteconfig.Empty(e.now()), "", SourceEmpty, nil
}

func (e *Editor) adopt(doc *siteconfig.Document, sha string) {
	e.doc = doc
	e.saved = doc.Clone()
	e.sha = sha
	e.dirty = false
}

// commit applies mutate to a copy of the working document and writes it. If
// the file moved on since it was read, the remote copy is fetched, mutate is
// applied to that instead and the write is tried exactly once more.
func (e *Editor) commit(ctx context.Context, section string, mutate func(doc *siteconfig.Document) error) (*CommitResult, error) {
	if err := e.ensureLoaded(ctx); err != nil {
		return nil, err
	}
	if e.dirty && section != sectionDeploy {
		return nil, ErrRestorePending
	}

	next := e.doc.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}

	res, err := e.put(ctx, section, next, e.sha)
	retried := false
	if errors.Is(err, github.ErrConflict) {
		metrics.IncConflict()
		e.log.Warnw("Write conflict, re-syncing", "section", section, "sha", e.sha)
		e.notify("save_conflict", map[string]string{"section": section})

		remote, sha, source, lerr := e.load(ctx)
		if lerr != nil {
			metrics.IncSave(section, "error")
			return nil, fmt.Errorf("re-sync after conflict: %w", lerr)
		}
		next = remote.Clone()
		if merr := mutate(next); merr != nil {
			e.adopt(remote, sha)
			e.source = source
			e.lastSynced = e.now()
			return nil, merr
		}
		res, err = e.put(ctx, section, next, sha)
		retried = true
	}
	if err != nil {
		metrics.IncSave(section, "error")
		e.log.WithError(err).Errorw("Save failed", "section", section)
		return nil, err
	}

	e.adopt(next, res.FileSHA)
	e.source = SourceFile
	res.Retried = retried
	metrics.IncSave(section, "ok")
	e.log.LogCommit(e.configPath, section, res.CommitSHA, retried)
	e.record(ctx, res)
	e.writeSnapshot()
	e.notify("config_saved", res)
	return res, nil
}

func (e *Editor) put(ctx context.Context, section string, doc *siteconfig.Document, sha string) (*CommitResult, error) {
	now := e.now()
	doc.LastUpdated = &now
	body, err := doc.Encode()
	if err != nil {
		return nil, err
	}
	msg := fmt.Sprintf("%s - %s (%s) - %s", e.commitPrefix, e.configPath, section, now.Format("2006-01-02 15:04:05"))
	out, err := e.backend.PutFile(ctx, github.PutFileRequest{
		Path:    e.configPath,
		Content: body,
		SHA:     sha,
		Message: msg,
	})
	if err != nil {
		return nil, err
	}
	return &CommitResult{
		Section:   section,
		Path:      e.configPath,
		Message:   msg,
		FileSHA:   out.ContentSHA,
		CommitSHA: out.CommitSHA,
		CommitURL: out.CommitURL,
		At:        now,
	}, nil
}

func (e *Editor) record(ctx context.Context, r *CommitResult) {
	if e.recorder == nil {
		return
	}
	target := e.backend.Target()
	err := e.recorder.RecordCommit(ctx, CommitInfo{
		Repository: target.FullName(),
		Branch:     target.Branch,
		Path:       r.Path,
		Section:    r.Section,
		Message:    r.Message,
		FileSHA:    r.FileSHA,
		CommitSHA:  r.CommitSHA,
		CommitURL:  r.CommitURL,
		Retried:    r.Retried,
		At:         r.At,
	})
	if err != nil {
		e.log.WithError(err).Warn("Failed to record commit history")
	}
}

func (e *Editor) writeSnapshot() {
	if e.snapshots == nil || e.doc == nil {
		return
	}
	if _, err := e.snapshots.WriteSnapshot(e.doc, e.now()); err != nil {
		e.log.WithError(err).Warn("Failed to write local snapshot")
	}
}

func (e *Editor) notify(eventType string, data interface{}) {
	if e.notifier != nil {
		e.notifier.BroadcastEvent(eventType, data)
	}
}

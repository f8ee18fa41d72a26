package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/semmidev/phylax-mongo/internal/domain"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) record(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.calls))
	for _, c := range r.calls {
		out = append(out, strings.SplitN(c, " ", 2)[0])
	}
	return out
}

type fakeLogger struct {
	mu    sync.Mutex
	infos []string
	warns []string
	errs  []string
}

func (l *fakeLogger) Infof(template string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, fmt.Sprintf(template, args...))
}

func (l *fakeLogger) Warnf(template string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, fmt.Sprintf(template, args...))
}

func (l *fakeLogger) Errorf(template string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, fmt.Sprintf(template, args...))
}

type fakeStaging struct {
	rec     *recorder
	base    string
	err     error
	cleaned []string
}

func (s *fakeStaging) Prepare(runID string) (string, error) {
	s.rec.record("prepare %s", runID)
	if s.err != nil {
		return "", s.err
	}
	dir := filepath.Join(s.base, runID)
	return dir, os.MkdirAll(dir, 0755)
}

func (s *fakeStaging) Populated(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}

func (s *fakeStaging) Cleanup(dir string) error {
	s.cleaned = append(s.cleaned, dir)
	return os.RemoveAll(dir)
}

type fakeExporter struct {
	rec   *recorder
	files map[string]string
	out   domain.ExportOutput
	err   error
}

func (e *fakeExporter) Export(_ context.Context, dir string) (domain.ExportOutput, error) {
	e.rec.record("export %s", dir)
	for name, content := range e.files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			return e.out, err
		}
	}
	return e.out, e.err
}

func (e *fakeExporter) Engine() string {
	return "mongodb"
}

type fakeArchiver struct {
	rec *recorder
	err error
}

func (a *fakeArchiver) Archive(_ context.Context, dir string) ([]byte, error) {
	a.rec.record("archive %s", dir)
	if a.err != nil {
		return nil, a.err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return []byte(strings.Join(names, ",")), nil
}

func (a *fakeArchiver) Extension() string   { return ".zip" }
func (a *fakeArchiver) ContentType() string { return "application/zip" }

// memoryStore is an in-memory object store whose clock advances one minute
// per Put so uploads are always the newest objects.
type memoryStore struct {
	rec       *recorder
	objects   map[string]domain.Object
	bodies    map[string][]byte
	lastPut   domain.PutOptions
	clock     time.Time
	putErr    error
	listErr   error
	deleteErr error
	deletes   [][]string
}

func newMemoryStore(rec *recorder) *memoryStore {
	return &memoryStore{
		rec:     rec,
		objects: map[string]domain.Object{},
		bodies:  map[string][]byte{},
		clock:   time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (m *memoryStore) seed(key string, modified time.Time) {
	m.objects[key] = domain.Object{Key: key, LastModified: modified}
}

func (m *memoryStore) Put(_ context.Context, key string, body []byte, opts domain.PutOptions) error {
	m.rec.record("put %s", key)
	if m.putErr != nil {
		return m.putErr
	}
	m.clock = m.clock.Add(time.Minute)
	m.objects[key] = domain.Object{Key: key, LastModified: m.clock, Size: int64(len(body))}
	m.bodies[key] = body
	m.lastPut = opts
	return nil
}

func (m *memoryStore) List(_ context.Context, prefix string) ([]domain.Object, error) {
	m.rec.record("list %s", prefix)
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.Object
	for key, obj := range m.objects {
		if strings.HasPrefix(key, prefix) {
			out = append(out, obj)
		}
	}
	// map order is random; SelectExpired must not depend on input order
	return out, nil
}

func (m *memoryStore) DeleteObjects(_ context.Context, keys []string) error {
	m.rec.record("delete %s", strings.Join(keys, ","))
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletes = append(m.deletes, keys)
	for _, key := range keys {
		if _, ok := m.objects[key]; !ok {
			return errors.New("no such key: " + key)
		}
		delete(m.objects, key)
	}
	return nil
}

func (m *memoryStore) keys() []string {
	var out []string
	for key := range m.objects {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

type fakeNotifier struct {
	messages []string
	ctxErrs  []error
	err      error
}

func (n *fakeNotifier) Notify(ctx context.Context, message string) error {
	n.messages = append(n.messages, message)
	n.ctxErrs = append(n.ctxErrs, ctx.Err())
	return n.err
}

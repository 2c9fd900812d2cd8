package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"

	"github.com/felixgeelhaar/covermon/internal/domain"
)

type fakeConfigLoader struct {
	cfg     Config
	loadErr error
}

func (f fakeConfigLoader) Exists(path string) (bool, error) { return true, nil }

func (f fakeConfigLoader) Load(path string) (Config, error) { return f.cfg, f.loadErr }

type fakeEventLoader struct {
	pr  domain.PullRequest
	err error
}

func (f fakeEventLoader) Load(path string) (domain.PullRequest, error) { return f.pr, f.err }

// fakeParser maps report text to counters.
type fakeParser map[string]domain.RawCounts

func (f fakeParser) Parse(data []byte) (domain.RawCounts, error) {
	raw, ok := f[string(data)]
	if !ok {
		return domain.RawCounts{}, errors.Mark(errors.New("unknown report"), domain.ErrMalformedReport)
	}
	return raw, nil
}

type fakeStore struct {
	mu      sync.Mutex
	files   map[string][]byte
	loadErr map[string]error
	saved   map[string][]byte
	saveErr error
	prefix  string
}

func newFakeStore(files map[string]string) *fakeStore {
	s := &fakeStore{files: map[string][]byte{}, loadErr: map[string]error{}, saved: map[string][]byte{}}
	for k, v := range files {
		s.files[k] = []byte(v)
	}
	return s
}

func (s *fakeStore) Load(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadErr[key]; err != nil {
		return nil, err
	}
	data, ok := s.files[key]
	if !ok {
		return nil, errors.Wrapf(ErrReportNotFound, "%s", key)
	}
	return data, nil
}

func (s *fakeStore) Save(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved[key] = data
	return nil
}

func (s *fakeStore) Location(key string) string { return s.prefix + key }

type fakePlatform struct {
	mu        sync.Mutex
	comments  []domain.BotComment
	listErr   error
	createErr error
	deleteErr error
	updateErr error
	statusErr error
	nextID    int64
	calls     []string
	statuses  []domain.StatusPayload
	bodies    map[int64]string
}

func (p *fakePlatform) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *fakePlatform) ListComments(ctx context.Context, repo domain.Repository, prNumber int) ([]domain.BotComment, error) {
	p.record(fmt.Sprintf("list %s#%d", repo.FullName(), prNumber))
	return p.comments, p.listErr
}

func (p *fakePlatform) CreateComment(ctx context.Context, repo domain.Repository, prNumber int, body string) (int64, error) {
	p.record(fmt.Sprintf("create %s#%d", repo.FullName(), prNumber))
	if p.createErr != nil {
		return 0, p.createErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.nextID == 0 {
		p.nextID = 1000
	}
	id := p.nextID
	p.nextID++
	if p.bodies == nil {
		p.bodies = map[int64]string{}
	}
	p.bodies[id] = body
	return id, nil
}

func (p *fakePlatform) UpdateComment(ctx context.Context, repo domain.Repository, commentID int64, body string) error {
	p.record(fmt.Sprintf("update %d", commentID))
	if p.updateErr != nil {
		return p.updateErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bodies == nil {
		p.bodies = map[int64]string{}
	}
	p.bodies[commentID] = body
	return nil
}

func (p *fakePlatform) DeleteComment(ctx context.Context, repo domain.Repository, commentID int64) error {
	p.record(fmt.Sprintf("delete %d", commentID))
	return p.deleteErr
}

func (p *fakePlatform) CreateStatus(ctx context.Context, repo domain.Repository, sha string, status domain.StatusPayload) error {
	p.record(fmt.Sprintf("status %s", sha))
	p.mu.Lock()
	p.statuses = append(p.statuses, status)
	p.mu.Unlock()
	return p.statusErr
}

func (p *fakePlatform) factory() PlatformFactory {
	return func(token, apiURL string) (PlatformClient, error) { return p, nil }
}

// fakeRenderer prefixes the marker so ownership checks work.
type fakeRenderer struct{}

func (fakeRenderer) Render(metric domain.Metric, commentContext string) string {
	return domain.CommentMarker(commentContext) + "\navg " + domain.FormatRate(domain.Round2(metric.AverageRate))
}

// counts builds raw counters with the given per-category covered counts out of 100.
func counts(elements, statements, methods, conditionals int) domain.RawCounts {
	return domain.RawCounts{
		Elements: 100, CoveredElements: elements,
		StatementsTotal: 100, CoveredStatements: statements,
		MethodsTotal: 100, CoveredMethods: methods,
		ConditionalsTotal: 100, CoveredConditionals: conditionals,
	}
}

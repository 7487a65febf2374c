// Package memory provides in-process implementations of the storage
// interfaces. They back the handler and analytics tests.
package memory

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"io"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"interview-assistant/internal/interview"
	"interview-assistant/internal/storage"
	"interview-assistant/internal/types"
)

// Store holds candidates, interviews and settings in maps.
type Store struct {
	mu         sync.RWMutex
	candidates map[string]types.Candidate
	interviews map[string]types.Interview
	settings   map[string][]byte
	// Events records every staged domain event type, in order.
	Events []string
}

var (
	_ storage.CandidateRepository = (*Store)(nil)
	_ storage.SettingsRepository  = (*Store)(nil)
	_ storage.InterviewRepository = interviewRepo{}
	_ storage.UploadDeduper       = (*Deduper)(nil)
	_ storage.Cache               = (*Cache)(nil)
	_ storage.ObjectStorage       = (*Objects)(nil)
)

func NewStore() *Store {
	return &Store{
		candidates: make(map[string]types.Candidate),
		interviews: make(map[string]types.Interview),
		settings:   make(map[string][]byte),
	}
}

// Interviews returns the InterviewRepository view of the store.
func (s *Store) Interviews() storage.InterviewRepository {
	return interviewRepo{s}
}

func (s *Store) emailTaken(email, exceptID string) bool {
	for id, c := range s.candidates {
		if id != exceptID && c.Email == email {
			return true
		}
	}
	return false
}

func cloneCandidate(c types.Candidate) types.Candidate {
	c.Skills = append([]string{}, c.Skills...)
	if c.Resume != nil {
		r := *c.Resume
		c.Resume = &r
	}
	c.Interviews = nil
	return c
}

func (s *Store) Create(_ context.Context, c *types.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(c.Email, "") {
		return storage.ErrDuplicateEmail
	}
	now := time.Now()
	if c.ID == "" {
		c.ID = interview.NewID()
	}
	if c.Skills == nil {
		c.Skills = []string{}
	}
	c.CreatedAt, c.UpdatedAt = now, now
	s.candidates[c.ID] = cloneCandidate(*c)
	s.Events = append(s.Events, storage.EventCandidateCreated)
	return nil
}

func (s *Store) Get(_ context.Context, id string) (*types.Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.candidates[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c = cloneCandidate(c)
	c.Interviews = []types.InterviewSummary{}
	for _, iv := range s.sortedInterviews() {
		if iv.CandidateID == id {
			c.Interviews = append(c.Interviews, types.InterviewSummary{
				ID: iv.ID, ScheduledAt: iv.ScheduledAt, Status: iv.Status, OverallScore: iv.OverallScore,
			})
		}
	}
	return &c, nil
}

func (s *Store) Update(_ context.Context, c *types.Candidate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.candidates[c.ID]
	if !ok {
		return storage.ErrNotFound
	}
	if s.emailTaken(c.Email, c.ID) {
		return storage.ErrDuplicateEmail
	}
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = time.Now()
	s.candidates[c.ID] = cloneCandidate(*c)
	s.Events = append(s.Events, storage.EventCandidateUpdated)
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidates[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.candidates, id)
	for ivID, iv := range s.interviews {
		if iv.CandidateID == id {
			delete(s.interviews, ivID)
		}
	}
	s.Events = append(s.Events, storage.EventCandidateDeleted)
	return nil
}

// sortableTime orders lexicographically like the instant it formats.
const sortableTime = "2006-01-02T15:04:05.000000000"

func candidateField(c types.Candidate, field string) string {
	switch field {
	case "name":
		return c.Name
	case "email":
		return c.Email
	case "position":
		return c.Position
	case "status":
		return string(c.Status)
	case "updatedAt":
		return c.UpdatedAt.UTC().Format(sortableTime)
	default:
		return c.CreatedAt.UTC().Format(sortableTime)
	}
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (s *Store) List(_ context.Context, f types.CandidateFilter) ([]types.Candidate, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	var out []types.Candidate
	for _, c := range s.candidates {
		if search != "" && !strings.Contains(strings.ToLower(c.Name), search) &&
			!strings.Contains(strings.ToLower(c.Email), search) {
			continue
		}
		if f.Position != "" && c.Position != f.Position {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		out = append(out, cloneCandidate(c))
	}

	sortBy := f.SortBy
	if _, ok := types.CandidateSortFields[sortBy]; !ok {
		sortBy = "createdAt"
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := candidateField(out[i], sortBy), candidateField(out[j], sortBy)
		if f.SortDesc {
			return a > b
		}
		return a < b
	})
	total := int64(len(out))
	return paginate(out, f.Page, f.Limit), total, nil
}

func groupCounts(keys []string) []types.GroupCount {
	counts := map[string]int64{}
	for _, k := range keys {
		counts[k]++
	}
	out := make([]types.GroupCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, types.GroupCount{ID: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Store) Stats(_ context.Context) (types.CandidateStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var statuses, positions []string
	for _, c := range s.candidates {
		statuses = append(statuses, string(c.Status))
		positions = append(positions, c.Position)
	}
	return types.CandidateStats{
		TotalCandidates:   int64(len(s.candidates)),
		StatusBreakdown:   groupCounts(statuses),
		PositionBreakdown: groupCounts(positions),
	}, nil
}

// Load and Save implement storage.SettingsRepository.
func (s *Store) Load(_ context.Context, key string, dest any) (bool, error) {
	s.mu.RLock()
	raw, ok := s.settings[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (s *Store) Save(_ context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.settings[key] = raw
	s.Events = append(s.Events, storage.EventSettingsChanged)
	s.mu.Unlock()
	return nil
}

// sortedInterviews returns every interview, newest scheduledAt first.
// Callers hold s.mu.
func (s *Store) sortedInterviews() []types.Interview {
	out := make([]types.Interview, 0, len(s.interviews))
	for _, iv := range s.interviews {
		out = append(out, cloneInterview(iv))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ScheduledAt.Equal(out[j].ScheduledAt) {
			return out[i].ScheduledAt.After(out[j].ScheduledAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func cloneInterview(iv types.Interview) types.Interview {
	iv.Questions = append([]types.Question{}, iv.Questions...)
	iv.Evaluations = append([]types.Evaluation{}, iv.Evaluations...)
	if iv.Recording != nil {
		r := *iv.Recording
		iv.Recording = &r
	}
	if iv.Feedback != nil {
		f := *iv.Feedback
		iv.Feedback = &f
	}
	iv.Candidate = nil
	return iv
}

type interviewRepo struct {
	s *Store
}

func (r interviewRepo) ref(candidateID string) *types.CandidateRef {
	c, ok := r.s.candidates[candidateID]
	if !ok {
		return nil
	}
	return &types.CandidateRef{ID: c.ID, Name: c.Name, Email: c.Email, Position: c.Position}
}

func (r interviewRepo) Create(_ context.Context, iv *types.Interview) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.candidates[iv.CandidateID]; !ok {
		return storage.ErrCandidateMissing
	}
	now := time.Now()
	if iv.ID == "" {
		iv.ID = interview.NewID()
	}
	iv.CreatedAt, iv.UpdatedAt = now, now
	interview.ApplyDefaults(iv)
	r.s.interviews[iv.ID] = cloneInterview(*iv)
	iv.Candidate = r.ref(iv.CandidateID)
	r.s.Events = append(r.s.Events, storage.EventInterviewCreated)
	return nil
}

func (r interviewRepo) Get(_ context.Context, id string) (*types.Interview, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	iv, ok := r.s.interviews[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	iv = cloneInterview(iv)
	iv.Candidate = r.ref(iv.CandidateID)
	return &iv, nil
}

func (r interviewRepo) mutate(id, event string, fn func(iv *types.Interview) error) (*types.Interview, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	iv, ok := r.s.interviews[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	iv = cloneInterview(iv)
	if err := fn(&iv); err != nil {
		return nil, err
	}
	iv.UpdatedAt = time.Now()
	r.s.interviews[id] = cloneInterview(iv)
	if event != "" {
		r.s.Events = append(r.s.Events, event)
	}
	out := cloneInterview(iv)
	out.Candidate = r.ref(out.CandidateID)
	return &out, nil
}

func (r interviewRepo) Update(_ context.Context, iv *types.Interview) error {
	updated, err := r.mutate(iv.ID, storage.EventInterviewUpdated, func(cur *types.Interview) error {
		candidate, created := cur.CandidateID, cur.CreatedAt
		*cur = cloneInterview(*iv)
		cur.CandidateID, cur.CreatedAt = candidate, created
		cur.OverallScore = interview.OverallScore(cur.Evaluations)
		return nil
	})
	if err != nil {
		return err
	}
	*iv = *updated
	return nil
}

func (r interviewRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.interviews[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.s.interviews, id)
	r.s.Events = append(r.s.Events, storage.EventInterviewDeleted)
	return nil
}

func (r interviewRepo) List(_ context.Context, f types.InterviewFilter) ([]types.Interview, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []types.Interview
	for _, iv := range r.s.sortedInterviews() {
		if f.Status != "" && iv.Status != f.Status {
			continue
		}
		if f.Position != "" && iv.Position != f.Position {
			continue
		}
		if f.CandidateID != "" && iv.CandidateID != f.CandidateID {
			continue
		}
		if f.From != nil && iv.ScheduledAt.Before(*f.From) {
			continue
		}
		if f.To != nil && iv.ScheduledAt.After(*f.To) {
			continue
		}
		iv.Candidate = r.ref(iv.CandidateID)
		out = append(out, iv)
	}
	total := int64(len(out))
	return paginate(out, f.Page, f.Limit), total, nil
}

func (r interviewRepo) Start(_ context.Context, id string, now time.Time) (*types.Interview, error) {
	return r.mutate(id, storage.EventInterviewStarted, func(iv *types.Interview) error {
		if !interview.CanStart(iv.Status) {
			return storage.ErrInvalidTransition
		}
		interview.Start(iv, now)
		return nil
	})
}

func (r interviewRepo) End(_ context.Context, id string, now time.Time) (*types.Interview, error) {
	return r.mutate(id, storage.EventInterviewEnded, func(iv *types.Interview) error {
		if !interview.CanEnd(iv.Status) {
			return storage.ErrInvalidTransition
		}
		interview.End(iv, now)

		snapshot := []types.Interview{*iv}
		for otherID, other := range r.s.interviews {
			if other.CandidateID == iv.CandidateID && otherID != iv.ID {
				snapshot = append(snapshot, other)
			}
		}
		if c, ok := r.s.candidates[iv.CandidateID]; ok {
			c.Status = types.CandidateInterviewed
			c.AverageScore = interview.AverageScore(snapshot)
			c.UpdatedAt = now
			r.s.candidates[c.ID] = c
		}
		return nil
	})
}

func (r interviewRepo) AddQuestion(_ context.Context, id string, q types.Question) (*types.Question, error) {
	interview.PrepareQuestion(&q, time.Now())
	_, err := r.mutate(id, "", func(iv *types.Interview) error {
		iv.Questions = append(iv.Questions, q)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r interviewRepo) AddEvaluation(_ context.Context, id string, e types.Evaluation) (*types.Evaluation, error) {
	interview.PrepareEvaluation(&e)
	_, err := r.mutate(id, storage.EventEvaluationRecorded, func(iv *types.Interview) error {
		iv.Evaluations = append(iv.Evaluations, e)
		iv.OverallScore = interview.OverallScore(iv.Evaluations)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r interviewRepo) SetTranscript(_ context.Context, id, transcript string) (*types.Interview, error) {
	return r.mutate(id, "", func(iv *types.Interview) error {
		iv.Transcript = transcript
		return nil
	})
}

func (r interviewRepo) AttachRecording(_ context.Context, id string, rec types.Recording) error {
	_, err := r.mutate(id, storage.EventRecordingAttached, func(iv *types.Interview) error {
		iv.Recording = &rec
		return nil
	})
	return err
}

// Deduper is an in-memory storage.UploadDeduper.
type Deduper struct {
	mu   sync.Mutex
	seen map[string]bool
}

func NewDeduper() *Deduper {
	return &Deduper{seen: make(map[string]bool)}
}

func (d *Deduper) CheckAndAddUploadMD5(_ context.Context, md5Hex string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	exists := d.seen[md5Hex]
	d.seen[md5Hex] = true
	return exists, nil
}

// Cache is an in-memory storage.Cache. TTLs are honoured on read.
type Cache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	value   []byte
	expires time.Time
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry), now: time.Now}
}

func (c *Cache) GetJSON(_ context.Context, key string, dest any) error {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if !ok || (!e.expires.IsZero() && c.now().After(e.expires)) {
		return storage.ErrCacheMiss
	}
	return json.Unmarshal(e.value, dest)
}

func (c *Cache) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	e := cacheEntry{value: raw}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

func (c *Cache) DeletePattern(_ context.Context, pattern string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k := range c.entries {
		if ok, _ := path.Match(pattern, k); ok {
			delete(c.entries, k)
			n++
		}
	}
	return n, nil
}

// Len reports the number of cached keys, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Objects is an in-memory storage.ObjectStorage.
type Objects struct {
	mu      sync.Mutex
	objects map[string]object
}

type object struct {
	data        []byte
	contentType string
	modified    time.Time
}

func NewObjects() *Objects {
	return &Objects{objects: make(map[string]object)}
}

func (o *Objects) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	sum := md5.Sum(data)
	o.mu.Lock()
	o.objects[key] = object{data: data, contentType: contentType, modified: time.Now()}
	o.mu.Unlock()
	return hex.EncodeToString(sum[:]), nil
}

func (o *Objects) Get(ctx context.Context, key string) (io.ReadCloser, storage.ObjectInfo, error) {
	info, err := o.Stat(ctx, key)
	if err != nil {
		return nil, info, err
	}
	o.mu.Lock()
	data := o.objects[key].data
	o.mu.Unlock()
	return io.NopCloser(bytes.NewReader(data)), info, nil
}

func (o *Objects) Stat(_ context.Context, key string) (storage.ObjectInfo, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	obj, ok := o.objects[key]
	if !ok {
		return storage.ObjectInfo{}, storage.ErrNotFound
	}
	return storage.ObjectInfo{Key: key, Size: int64(len(obj.data)), ContentType: obj.contentType, LastModified: obj.modified}, nil
}

func (o *Objects) Delete(_ context.Context, key string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.objects[key]; !ok {
		return storage.ErrNotFound
	}
	delete(o.objects, key)
	return nil
}

func (o *Objects) PresignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "memory://" + key, nil
}

// Keys lists stored object keys in order.
func (o *Objects) Keys() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	keys := make([]string, 0, len(o.objects))
	for k := range o.objects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Package content owns the feed and explore collections of posts.
package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/picshare/backend/internal/fixtures"
	"github.com/picshare/backend/internal/latency"
	"github.com/picshare/backend/internal/logging"
	"github.com/picshare/backend/internal/metrics"
	"github.com/picshare/backend/internal/models"
	"github.com/picshare/backend/internal/session"
)

var (
	// ErrNotFound indicates no post has the requested id.
	ErrNotFound = errors.New("post not found")
	// ErrEmptyText indicates a blank comment; nothing was changed.
	ErrEmptyText = errors.New("comment text is empty")
	// ErrMissingImage indicates a post was created without an image reference.
	ErrMissingImage = errors.New("post image is required")
	// ErrUnknownCollection indicates a collection name other than feed or explore.
	ErrUnknownCollection = errors.New("unknown collection")
)

// Collection names one of the ordered post lists.
type Collection string

const (
	Feed    Collection = "feed"
	Explore Collection = "explore"
)

// CacheState tracks whether a collection has been populated.
type CacheState int

const (
	StateUnloaded CacheState = iota
	StateLoading
	StateLoaded
	StateStale
)

func (s CacheState) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateStale:
		return "stale"
	}
	return fmt.Sprintf("CacheState(%d)", int(s))
}

// Identity supplies the author of new posts and comments and receives the
// post count bump after a post is created. Mutate must apply the patch
// atomically with respect to the identity it was computed from.
type Identity interface {
	Current() (models.Identity, bool)
	Mutate(ctx context.Context, fn func(current models.Identity) models.IdentityPatch) (models.Identity, error)
}

// Seeder produces the seed posts of a collection, stamped relative to now.
type Seeder func(now time.Time) []models.Post

// Config controls a Store.
type Config struct {
	Latency     time.Duration
	Now         func() time.Time
	FeedSeed    Seeder
	ExploreSeed Seeder
}

// Store keeps every post once, keyed by id, and the feed and explore
// collections as ordered id lists into that table.
type Store struct {
	identity Identity
	latency  time.Duration
	now      func() time.Time
	seeds    map[Collection]Seeder
	loads    singleflight.Group

	mu      sync.RWMutex
	posts   map[string]*models.Post
	lists   map[Collection][]string
	states  map[Collection]CacheState
	pending map[Collection]*pendingLoad
}

// pendingLoad is the context shared by every fetch waiting on one load. It is
// canceled once the last of them gives up.
type pendingLoad struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// NewStore constructs a Store. identity may be nil, in which case posts and
// comments are attributed to the fallback demo author.
func NewStore(identity Identity, cfg Config) *Store {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.FeedSeed == nil {
		cfg.FeedSeed = fixtures.FeedPosts
	}
	if cfg.ExploreSeed == nil {
		cfg.ExploreSeed = fixtures.ExplorePosts
	}
	return &Store{
		identity: identity,
		latency:  cfg.Latency,
		now:      cfg.Now,
		seeds:    map[Collection]Seeder{Feed: cfg.FeedSeed, Explore: cfg.ExploreSeed},
		posts:    make(map[string]*models.Post),
		lists:    map[Collection][]string{Feed: nil, Explore: nil},
		states:   map[Collection]CacheState{Feed: StateUnloaded, Explore: StateUnloaded},
		pending:  make(map[Collection]*pendingLoad),
	}
}

// FetchFeed populates the feed on first use and returns it.
func (s *Store) FetchFeed(ctx context.Context) ([]models.Post, error) {
	return s.Fetch(ctx, Feed)
}

// FetchExplore populates the explore grid on first use and returns it.
func (s *Store) FetchExplore(ctx context.Context) ([]models.Post, error) {
	return s.Fetch(ctx, Explore)
}

// Fetch returns collection c, populating it from seed data after the simulated
// latency when it is unloaded or stale. A loaded collection is returned
// immediately. Concurrent fetches of one collection share a single load,
// which is abandoned without applying anything when every one of them is
// canceled.
func (s *Store) Fetch(ctx context.Context, c Collection) ([]models.Post, error) {
	if _, ok := s.seeds[c]; !ok {
		return nil, fmt.Errorf("fetch %q: %w", c, ErrUnknownCollection)
	}

	if s.State(c) == StateLoaded {
		return s.List(c), nil
	}

	call := s.join(ctx, c)
	ch := s.loads.DoChan(string(c), func() (any, error) {
		return nil, s.load(call.ctx, c)
	})

	select {
	case <-ctx.Done():
		s.leave(c, call, true)
		return nil, ctx.Err()
	case res := <-ch:
		s.leave(c, call, false)
		if res.Err != nil {
			return nil, res.Err
		}
	}

	return s.List(c), nil
}

func (s *Store) join(ctx context.Context, c Collection) *pendingLoad {
	s.mu.Lock()
	defer s.mu.Unlock()
	call, ok := s.pending[c]
	if !ok {
		loadCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		call = &pendingLoad{ctx: loadCtx, cancel: cancel}
		s.pending[c] = call
	}
	call.waiters++
	return call
}

func (s *Store) leave(c Collection, call *pendingLoad, canceled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call.waiters--
	if call.waiters > 0 {
		return
	}
	if s.pending[c] == call {
		delete(s.pending, c)
	}
	call.cancel()
	if canceled {
		s.loads.Forget(string(c))
	}
}

func (s *Store) load(ctx context.Context, c Collection) error {
	ctx, span := logging.StartSpan(ctx, "content.load")
	defer span.End()

	s.mu.Lock()
	prev := s.states[c]
	if prev == StateLoaded {
		s.mu.Unlock()
		return nil
	}
	s.states[c] = StateLoading
	s.mu.Unlock()

	if err := latency.Wait(ctx, s.latency); err != nil {
		s.mu.Lock()
		s.states[c] = prev
		s.mu.Unlock()
		span.Fail(err)
		return err
	}

	now := s.now()
	seed := s.seeds[c](now)

	s.mu.Lock()
	defer s.mu.Unlock()

	seeded := make(map[string]struct{}, len(seed))
	ids := make([]string, 0, len(seed))
	for _, post := range seed {
		seeded[post.ID] = struct{}{}
		ids = append(ids, post.ID)
		if existing, ok := s.posts[post.ID]; ok {
			stampAges(existing, now)
			continue
		}
		post = post.Clone()
		stampAges(&post, now)
		s.posts[post.ID] = &post
	}

	// Posts created before the first load stay ahead of the seed.
	var local []string
	for _, id := range s.lists[c] {
		if _, ok := seeded[id]; !ok {
			local = append(local, id)
		}
	}
	s.lists[c] = append(local, ids...)
	s.states[c] = StateLoaded

	metrics.SeedLoads.WithLabelValues("content", string(c)).Inc()
	logging.FromContext(ctx).Info("collection loaded", "collection", string(c), "posts", len(s.lists[c]))
	return nil
}

func stampAges(post *models.Post, now time.Time) {
	post.Age = models.Age(post.CreatedAt, now)
	for i := range post.Comments {
		post.Comments[i].Age = models.Age(post.Comments[i].CreatedAt, now)
	}
}

// Invalidate marks a loaded collection stale so the next fetch reloads it.
func (s *Store) Invalidate(c Collection) {
	s.mu.Lock()
	if s.states[c] == StateLoaded {
		s.states[c] = StateStale
	}
	s.mu.Unlock()
}

// State reports the cache state of collection c.
func (s *Store) State(c Collection) CacheState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[c]
}

// List returns a snapshot of collection c in display order.
func (s *Store) List(c Collection) []models.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked(s.lists[c])
}

// Feed returns a snapshot of the feed.
func (s *Store) Feed() []models.Post { return s.List(Feed) }

// Explore returns a snapshot of the explore grid.
func (s *Store) Explore() []models.Post { return s.List(Explore) }

func (s *Store) snapshotLocked(ids []string) []models.Post {
	out := make([]models.Post, 0, len(ids))
	for _, id := range ids {
		if p, ok := s.posts[id]; ok {
			out = append(out, p.Clone())
		}
	}
	return out
}

// Post returns a snapshot of a single post.
func (s *Store) Post(id string) (models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return models.Post{}, ErrNotFound
	}
	return p.Clone(), nil
}

// Like marks the post liked and increments its count. Liking an already
// liked post changes nothing.
func (s *Store) Like(id string) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return models.Post{}, ErrNotFound
	}
	if !p.HasLiked {
		p.Likes++
		p.HasLiked = true
		metrics.StoreOp("content", "like")
	}
	return p.Clone(), nil
}

// Unlike clears the liked flag and decrements the count. Unliking a post that
// is not liked changes nothing.
func (s *Store) Unlike(id string) (models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return models.Post{}, ErrNotFound
	}
	if p.HasLiked {
		p.HasLiked = false
		if p.Likes > 0 {
			p.Likes--
		}
		metrics.StoreOp("content", "unlike")
	}
	return p.Clone(), nil
}

// AddComment appends a comment by the current identity. Blank text returns
// ErrEmptyText and leaves the post untouched.
func (s *Store) AddComment(ctx context.Context, id, text string) (models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return models.Comment{}, ErrEmptyText
	}

	author := s.author()
	comment := models.Comment{
		ID:        "c" + uuid.NewString(),
		Author:    models.Author{ID: author.ID, Username: author.Username, Avatar: author.Avatar},
		Text:      text,
		CreatedAt: s.now(),
		Age:       models.JustNow,
	}

	s.mu.Lock()
	p, ok := s.posts[id]
	if !ok {
		s.mu.Unlock()
		return models.Comment{}, ErrNotFound
	}
	p.Comments = append(p.Comments, comment)
	s.mu.Unlock()

	metrics.StoreOp("content", "comment")
	logging.FromContext(ctx).Info("comment added", "postId", id, "commentId", comment.ID)
	return comment, nil
}

// CreatePost publishes a new post at the top of both the feed and explore
// collections and bumps the author's post count through the identity
// collaborator.
func (s *Store) CreatePost(ctx context.Context, image, caption string) (models.Post, error) {
	if strings.TrimSpace(image) == "" {
		return models.Post{}, ErrMissingImage
	}

	now := s.now()
	post := models.Post{
		ID:        "p" + uuid.NewString(),
		Author:    s.author(),
		Image:     image,
		Caption:   caption,
		Comments:  []models.Comment{},
		CreatedAt: now,
		Age:       models.JustNow,
	}

	s.mu.Lock()
	s.posts[post.ID] = &post
	s.lists[Feed] = append([]string{post.ID}, s.lists[Feed]...)
	s.lists[Explore] = append([]string{post.ID}, s.lists[Explore]...)
	created := post.Clone()
	s.mu.Unlock()

	metrics.StoreOp("content", "create")

	if s.identity != nil {
		_, err := s.identity.Mutate(ctx, func(current models.Identity) models.IdentityPatch {
			count := current.Posts + 1
			return models.IdentityPatch{Posts: &count}
		})
		switch {
		case errors.Is(err, session.ErrNotAuthenticated):
		case err != nil:
			logging.FromContext(ctx).Error("update post count", "error", err)
			return created, fmt.Errorf("update post count: %w", err)
		}
	}

	return created, nil
}

func (s *Store) author() models.Author {
	if s.identity != nil {
		if current, ok := s.identity.Current(); ok {
			return models.AuthorOf(current)
		}
	}
	return fixtures.FallbackAuthor()
}

// Search returns explore posts whose author username or caption contains
// query, case-insensitively. A blank query returns the whole explore grid.
func (s *Store) Search(query string) []models.Post {
	q := strings.ToLower(strings.TrimSpace(query))
	posts := s.List(Explore)
	if q == "" {
		return posts
	}

	matches := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Author.Username), q) || strings.Contains(strings.ToLower(p.Caption), q) {
			matches = append(matches, p)
		}
	}
	return matches
}

// PostsByAuthor returns the explore posts written by username.
func (s *Store) PostsByAuthor(username string) []models.Post {
	posts := s.List(Explore)
	out := make([]models.Post, 0)
	for _, p := range posts {
		if p.Author.Username == username {
			out = append(out, p)
		}
	}
	return out
}

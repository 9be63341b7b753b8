// Package profiles resolves usernames to profile pages.
package profiles

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/picshare/backend/internal/fixtures"
	"github.com/picshare/backend/internal/latency"
	"github.com/picshare/backend/internal/logging"
	"github.com/picshare/backend/internal/metrics"
	"github.com/picshare/backend/internal/models"
)

// ErrSelfFollow indicates the current user tried to follow themselves.
var ErrSelfFollow = errors.New("cannot follow yourself")

// DefaultLatency is the simulated delay of Lookup.
const DefaultLatency = 500 * time.Millisecond

const placeholderAvatar = "https://images.pexels.com/photos/415829/pexels-photo-415829.jpeg?auto=compress&cs=tinysrgb&w=300"

// Identity exposes the signed-in user.
type Identity interface {
	Current() (models.Identity, bool)
}

// Posts supplies the explore grid a profile's posts are picked from.
type Posts interface {
	FetchExplore(ctx context.Context) ([]models.Post, error)
	PostsByAuthor(username string) []models.Post
}

// Profile is the page rendered for a username.
type Profile struct {
	models.Identity
	IsCurrentUser bool          `json:"isCurrentUser"`
	IsFollowing   bool          `json:"isFollowing"`
	UserPosts     []models.Post `json:"userPosts"`
}

// Directory looks profiles up and remembers who the current user follows.
type Directory struct {
	identity Identity
	posts    Posts
	latency  time.Duration
	title    cases.Caser

	mu        sync.Mutex
	following map[string]bool
}

// NewDirectory wires a Directory. posts may be nil, in which case profiles
// carry no posts.
func NewDirectory(identity Identity, posts Posts, lookupLatency time.Duration) *Directory {
	return &Directory{
		identity:  identity,
		posts:     posts,
		latency:   lookupLatency,
		title:     cases.Title(language.English, cases.NoLower),
		following: make(map[string]bool),
	}
}

// Lookup returns the profile for username: the current identity when the
// usernames match, a demo user by key or username, or a fabricated profile.
func (d *Directory) Lookup(ctx context.Context, username string) (Profile, error) {
	ctx, span := logging.StartSpan(ctx, "profiles.lookup")
	defer span.End()

	if err := latency.Wait(ctx, d.latency); err != nil {
		span.Fail(err)
		return Profile{}, err
	}

	profile := d.resolve(username)

	if d.posts != nil {
		if _, err := d.posts.FetchExplore(ctx); err != nil {
			span.Fail(err)
			return Profile{}, err
		}
		profile.UserPosts = d.posts.PostsByAuthor(profile.Username)
	}
	if profile.UserPosts == nil {
		profile.UserPosts = []models.Post{}
	}
	return profile, nil
}

func (d *Directory) resolve(username string) Profile {
	username = strings.TrimSpace(username)
	if d.identity != nil {
		if current, ok := d.identity.Current(); ok && current.Username == username {
			return Profile{Identity: current, IsCurrentUser: true}
		}
	}

	identity, ok := fixtures.User(username)
	if !ok {
		identity, ok = fixtures.UserByUsername(username)
	}
	if !ok {
		identity = d.fabricate(username)
	}

	d.mu.Lock()
	following := d.following[identity.Username]
	d.mu.Unlock()
	if following {
		identity.Followers++
	}
	return Profile{Identity: identity, IsFollowing: following}
}

func (d *Directory) fabricate(username string) models.Identity {
	fullName := "Unknown User"
	if username == "" {
		username = "unknown"
	} else {
		fullName = d.title.String(username)
	}
	return models.Identity{
		ID:        "5",
		Username:  username,
		FullName:  fullName,
		Avatar:    placeholderAvatar,
		Bio:       "Demo user profile",
		Followers: 500,
		Following: 300,
		Posts:     15,
	}
}

// ToggleFollow flips whether the current user follows username and returns
// the updated profile.
func (d *Directory) ToggleFollow(ctx context.Context, username string) (Profile, error) {
	profile := d.resolve(username)
	if profile.IsCurrentUser {
		return Profile{}, ErrSelfFollow
	}

	d.mu.Lock()
	now := !d.following[profile.Username]
	if now {
		d.following[profile.Username] = true
		profile.Followers++
	} else {
		delete(d.following, profile.Username)
		profile.Followers--
	}
	d.mu.Unlock()
	profile.IsFollowing = now

	metrics.StoreOp("profiles", "toggle_follow")
	logging.FromContext(ctx).Info("follow toggled", "username", profile.Username, "following", now)
	return profile, nil
}

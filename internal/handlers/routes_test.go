package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/picshare/backend/internal/content"
	"github.com/picshare/backend/internal/conversations"
	"github.com/picshare/backend/internal/models"
	"github.com/picshare/backend/internal/notifications"
	"github.com/picshare/backend/internal/profiles"
	"github.com/picshare/backend/internal/recovery"
	"github.com/picshare/backend/internal/session"
	"github.com/picshare/backend/internal/settings"
)

type stubPublisher struct {
	refs []string
}

func (p *stubPublisher) Publish(_ context.Context, ref string) (string, error) {
	p.refs = append(p.refs, ref)
	return "https://cdn.example.com/posts/1.png", nil
}

type denyLimiter struct{}

func (denyLimiter) Allow(string) bool { return false }

type testEnv struct {
	mux       *http.ServeMux
	sessions  *session.Manager
	slot      *session.MemorySlot
	publisher *stubPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	slot := session.NewMemorySlot()
	sessions := session.NewManager(slot, session.WithLatency(0))
	posts := content.NewStore(sessions, content.Config{})
	publisher := &stubPublisher{}

	mux := http.NewServeMux()
	RegisterRoutes(mux, Dependencies{
		Sessions:      sessions,
		Content:       posts,
		Chats:         conversations.NewStore(conversations.Config{}),
		Notifications: notifications.NewStore(notifications.Config{}),
		Profiles:      profiles.NewDirectory(sessions, posts, 0),
		Settings:      settings.NewStore(),
		Recovery:      recovery.NewManager(time.Minute, 0, recovery.NewInMemoryTicketStore()),
		Media:         publisher,
		Taps:          content.NewDoubleTap(posts),
		Started:       time.Now(),
	})
	return &testEnv{mux: mux, sessions: sessions, slot: slot, publisher: publisher}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/login", loginRequest{Username: "johndoe", Password: "pw"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected login 200 got %d: %s", rec.Code, rec.Body.String())
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
	}
	return out
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/v1/feed", "/api/v1/me", "/api/v1/chats", "/api/v1/notifications", "/api/v1/settings/privacy"} {
		if rec := env.do(t, http.MethodGet, path, nil); rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401 got %d", path, rec.Code)
		}
	}
	if rec := env.do(t, http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected healthz 200 got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/metrics", nil); rec.Code != http.StatusOK {
		t.Fatalf("expected metrics 200 got %d", rec.Code)
	}
}

func TestLoginRegisterLogout(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/register", registerRequest{Username: "newbie", Email: "new@example.com", Password: "pw"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	resp := decode[identityResponse](t, rec)
	if resp.User.Username != "newbie" || resp.User.FullName != "newbie" {
		t.Fatalf("expected registered username got %+v", resp.User)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/auth/register", registerRequest{Username: "x", Email: "not-an-email", Password: "pw"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad email got %d", rec.Code)
	}

	if rec := env.do(t, http.MethodPost, "/api/v1/auth/logout", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
	if _, err := env.slot.Load(context.Background()); err == nil {
		t.Fatal("expected slot cleared after logout")
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/me", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout got %d", rec.Code)
	}
}

func TestUpdateMePersists(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodPatch, "/api/v1/me", map[string]string{"bio": "x"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	stored, err := env.slot.Load(context.Background())
	if err != nil {
		t.Fatalf("load slot: %v", err)
	}
	if stored.Bio != "x" || stored.Username != "johndoe" {
		t.Fatalf("expected bio x with username kept got %+v", stored)
	}

	rec = env.do(t, http.MethodPatch, "/api/v1/me", map[string]string{"username": " "})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank username got %d", rec.Code)
	}
}

func TestFeedLikeAndComment(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodGet, "/api/v1/feed", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if feed := decode[postsResponse](t, rec); len(feed.Posts) != 3 {
		t.Fatalf("expected 3 posts got %d", len(feed.Posts))
	}

	rec = env.do(t, http.MethodPost, "/api/v1/posts/1/like", nil)
	if post := decode[postResponse](t, rec).Post; post.Likes != 125 || !post.HasLiked {
		t.Fatalf("expected 125 liked got %+v", post)
	}
	rec = env.do(t, http.MethodDelete, "/api/v1/posts/1/like", nil)
	if post := decode[postResponse](t, rec).Post; post.Likes != 124 || post.HasLiked {
		t.Fatalf("expected 124 not liked got %+v", post)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/posts/nope/like", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}

	if rec := env.do(t, http.MethodPost, "/api/v1/posts/3/comments", commentRequest{Text: ""}); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for blank comment got %d", rec.Code)
	}
	rec = env.do(t, http.MethodPost, "/api/v1/posts/3/comments", commentRequest{Text: "nice"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	comment := decode[map[string]models.Comment](t, rec)["comment"]
	if comment.Author.Username != "johndoe" || comment.Age != models.JustNow {
		t.Fatalf("unexpected comment %+v", comment)
	}
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodGet, "/api/v1/search?q=sarahparker", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if posts := decode[postsResponse](t, rec).Posts; len(posts) != 2 {
		t.Fatalf("expected 2 matches got %d", len(posts))
	}
}

func TestCreatePostJSONBumpsCount(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodPost, "/api/v1/posts", createPostRequest{Image: "https://img/x.jpg", Caption: "hi"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	post := decode[postResponse](t, rec).Post
	if post.Image != "https://cdn.example.com/posts/1.png" {
		t.Fatalf("expected published image got %s", post.Image)
	}
	if current, _ := env.sessions.Current(); current.Posts != 25 {
		t.Fatalf("expected post count 25 got %d", current.Posts)
	}

	if rec := env.do(t, http.MethodPost, "/api/v1/posts", createPostRequest{Caption: "no image"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
}

func TestCreatePostMultipart(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("caption", "upload"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="a.png"`)
	header.Set("Content-Type", "image/png")
	part, err := form.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write([]byte("png-bytes")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/posts", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", rec.Code, rec.Body.String())
	}
	if len(env.publisher.refs) != 1 || !strings.HasPrefix(env.publisher.refs[0], "data:image/png;base64,") {
		t.Fatalf("expected data reference published got %v", env.publisher.refs)
	}
}

type recordingContent struct {
	*content.Store
	invalidated []content.Collection
}

func (c *recordingContent) Invalidate(coll content.Collection) {
	c.invalidated = append(c.invalidated, coll)
	c.Store.Invalidate(coll)
}

func TestRefreshInvalidatesCollection(t *testing.T) {
	sessions := session.NewManager(session.NewMemorySlot(), session.WithLatency(0))
	if _, err := sessions.Login(context.Background(), "johndoe", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	posts := &recordingContent{Store: content.NewStore(sessions, content.Config{})}
	mux := http.NewServeMux()
	RegisterRoutes(mux, Dependencies{Sessions: sessions, Content: posts})

	for _, path := range []string{"/api/v1/feed", "/api/v1/feed?refresh=true", "/api/v1/explore?refresh=1", "/api/v1/explore?refresh=no"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, rec.Code)
		}
	}

	if len(posts.invalidated) != 2 || posts.invalidated[0] != content.Feed || posts.invalidated[1] != content.Explore {
		t.Fatalf("expected feed then explore invalidated got %v", posts.invalidated)
	}
	if got := posts.State(content.Feed); got != content.StateLoaded {
		t.Fatalf("expected feed reloaded got %v", got)
	}
}

func TestDoubleTapLikesPost(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)
	env.do(t, http.MethodGet, "/api/v1/feed", nil)

	rec := env.do(t, http.MethodPost, "/api/v1/posts/1/tap", nil)
	if first := decode[tapResponse](t, rec); first.Liked || first.Post.HasLiked {
		t.Fatalf("expected single tap to leave the post alone got %+v", first)
	}
	rec = env.do(t, http.MethodPost, "/api/v1/posts/1/tap", nil)
	if second := decode[tapResponse](t, rec); !second.Liked || !second.Post.HasLiked || second.Post.Likes != 125 {
		t.Fatalf("expected double tap to like got %+v", second)
	}
	env.do(t, http.MethodPost, "/api/v1/posts/nope/tap", nil)
	if rec := env.do(t, http.MethodPost, "/api/v1/posts/nope/tap", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestChats(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodGet, "/api/v1/chats/chat4", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if chat := decode[map[string]models.Chat](t, rec)["chat"]; chat.UnreadCount != 0 {
		t.Fatalf("expected opened chat read got %d unread", chat.UnreadCount)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/chats/chat1/messages", messageRequest{Text: "hello"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", rec.Code)
	}
	sent := decode[map[string]models.Message](t, rec)["message"]

	rec = env.do(t, http.MethodGet, "/api/v1/chats", nil)
	list := decode[chatsResponse](t, rec)
	if list.Chats[0].LastMessage == nil || list.Chats[0].LastMessage.ID != sent.ID {
		t.Fatalf("expected last message %s got %+v", sent.ID, list.Chats[0].LastMessage)
	}
	if list.UnreadTotal != 1 {
		t.Fatalf("expected 1 unread left got %d", list.UnreadTotal)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/chats/active", nil)
	if active := decode[map[string]models.Chat](t, rec)["chat"]; active.ID != "chat4" {
		t.Fatalf("expected chat4 active got %q", active.ID)
	}

	if rec := env.do(t, http.MethodPost, "/api/v1/chats/chat1/messages", messageRequest{Text: " "}); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for blank message got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/chats/nope", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/chats/chat1/read", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rec.Code)
	}
}

func TestNotifications(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodGet, "/api/v1/notifications", nil)
	if resp := decode[notificationsResponse](t, rec); resp.UnreadCount != 3 || len(resp.Notifications) != 4 {
		t.Fatalf("expected 4 notifications with 3 unread got %+v", resp)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/notifications/n1/read", nil)
	if got := decode[map[string]int](t, rec)["unreadCount"]; got != 2 {
		t.Fatalf("expected 2 unread got %d", got)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/notifications", nil)
	if resp := decode[notificationsResponse](t, rec); resp.UnreadCount != 2 {
		t.Fatalf("expected listing to keep read state got %d unread", resp.UnreadCount)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/notifications/read", nil)
	if got := decode[map[string]int](t, rec)["unreadCount"]; got != 0 {
		t.Fatalf("expected 0 unread got %d", got)
	}

	if rec := env.do(t, http.MethodPost, "/api/v1/notifications/nope/read", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestProfiles(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodGet, "/api/v1/profiles/johndoe", nil)
	if profile := decode[map[string]profiles.Profile](t, rec)["profile"]; !profile.IsCurrentUser {
		t.Fatalf("expected current user profile got %+v", profile)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/profiles/riya/follow", nil)
	if profile := decode[map[string]profiles.Profile](t, rec)["profile"]; !profile.IsFollowing {
		t.Fatalf("expected following got %+v", profile)
	}

	if rec := env.do(t, http.MethodPost, "/api/v1/profiles/johndoe/follow", nil); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for self follow got %d", rec.Code)
	}
}

func TestSettings(t *testing.T) {
	env := newTestEnv(t)
	env.login(t)

	rec := env.do(t, http.MethodPost, "/api/v1/settings/privacy", toggleRequest{Name: "privateAccount"})
	if toggle := decode[settings.Toggle](t, rec); !toggle.Enabled {
		t.Fatalf("expected privateAccount enabled got %+v", toggle)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/settings/privacy", toggleRequest{Name: "nope"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/settings/theme", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestPasswordRecovery(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/password-reset", passwordResetRequest{Email: "a@b.c"})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202 got %d", rec.Code)
	}
	otp := decode[map[string]string](t, rec)["otp"]

	if rec := env.do(t, http.MethodPost, "/api/v1/auth/password-reset/verify", passwordResetRequest{Email: "a@b.c", OTP: otp}); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	mismatch := passwordResetRequest{Email: "a@b.c", OTP: otp, NewPassword: "a", ConfirmPassword: "b"}
	if rec := env.do(t, http.MethodPost, "/api/v1/auth/password-reset/complete", mismatch); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	complete := passwordResetRequest{Email: "a@b.c", OTP: otp, NewPassword: "a", ConfirmPassword: "a"}
	if rec := env.do(t, http.MethodPost, "/api/v1/auth/password-reset/complete", complete); rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if rec := env.do(t, http.MethodPost, "/api/v1/auth/password-reset", passwordResetRequest{}); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing email got %d", rec.Code)
	}
}

func TestPasswordResetRequiresVerification(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/password-reset", passwordResetRequest{Email: "a@b.c"})
	otp := decode[map[string]string](t, rec)["otp"]

	complete := passwordResetRequest{Email: "a@b.c", OTP: otp, NewPassword: "a", ConfirmPassword: "a"}
	if rec := env.do(t, http.MethodPost, "/api/v1/auth/password-reset/complete", complete); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 before verify got %d", rec.Code)
	}
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	mux := http.NewServeMux()
	sessions := session.NewManager(session.NewMemorySlot(), session.WithLatency(0))
	RegisterRoutes(mux, Dependencies{Sessions: sessions, AuthLimiter: denyLimiter{}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 got %d", rec.Code)
	}
	if sessions.Authenticated() {
		t.Fatal("expected limited login not to sign in")
	}
}

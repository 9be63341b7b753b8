package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/picshare/backend/internal/content"
	"github.com/picshare/backend/internal/logging"
	"github.com/picshare/backend/internal/media"
	"github.com/picshare/backend/internal/models"
)

const maxUploadBytes = 10 << 20

// PostHandler serves the feed, explore grid and post mutations.
type PostHandler struct {
	Content ContentService
	Media   ImagePublisher
	Taps    TapDetector
}

// Feed handles GET /api/v1/feed. ?refresh=true reloads the seed first.
func (h PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	h.refresh(r, content.Feed)
	posts, err := h.Content.FetchFeed(r.Context())
	h.respondPosts(w, r, posts, err)
}

// Explore handles GET /api/v1/explore. ?refresh=true reloads the seed first.
func (h PostHandler) Explore(w http.ResponseWriter, r *http.Request) {
	h.refresh(r, content.Explore)
	posts, err := h.Content.FetchExplore(r.Context())
	h.respondPosts(w, r, posts, err)
}

func (h PostHandler) refresh(r *http.Request, c content.Collection) {
	if refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh")); refresh {
		h.Content.Invalidate(c)
	}
}

// Search handles GET /api/v1/search?q=.
func (h PostHandler) Search(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Content.FetchExplore(r.Context()); err != nil {
		h.respondPosts(w, r, nil, err)
		return
	}
	h.respondPosts(w, r, h.Content.Search(r.URL.Query().Get("q")), nil)
}

func (h PostHandler) respondPosts(w http.ResponseWriter, r *http.Request, posts []models.Post, err error) {
	ctx := r.Context()
	if err != nil {
		if canceled(err) {
			w.WriteHeader(statusClientClosedRequest)
			return
		}
		logging.FromContext(ctx).Error("load posts failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to load posts")
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	respondJSON(ctx, w, http.StatusOK, postsResponse{Posts: posts})
}

// Create handles POST /api/v1/posts. It accepts either a JSON body carrying
// an image reference or a multipart form with an "image" file.
func (h PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	req, err := h.readCreateRequest(w, r)
	if err != nil {
		logger.Warn("invalid post payload", "error", err)
		status := http.StatusBadRequest
		if errors.Is(err, media.ErrNotImage) {
			status = http.StatusUnsupportedMediaType
		}
		respondError(ctx, w, status, "a valid image is required")
		return
	}

	if !req.valid() {
		respondError(ctx, w, http.StatusBadRequest, "a valid image is required")
		return
	}

	image := req.Image
	if h.Media != nil {
		image, err = h.Media.Publish(ctx, req.Image)
		if err != nil {
			logger.Error("publish image failed", "error", err)
			respondError(ctx, w, http.StatusBadGateway, "failed to store image")
			return
		}
	}

	post, err := h.Content.CreatePost(ctx, image, req.Caption)
	if err != nil {
		if errors.Is(err, content.ErrMissingImage) {
			respondError(ctx, w, http.StatusBadRequest, "a valid image is required")
			return
		}
		if post.ID == "" {
			logger.Error("create post failed", "error", err)
			respondError(ctx, w, http.StatusInternalServerError, "failed to create post")
			return
		}
		logger.Warn("post created with stale profile count", "postId", post.ID, "error", err)
	}
	respondJSON(ctx, w, http.StatusCreated, postResponse{Post: post})
}

func (h PostHandler) readCreateRequest(w http.ResponseWriter, r *http.Request) (createPostRequest, error) {
	var req createPostRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		err := decodeJSON(w, r, &req)
		return req, err
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return req, err
	}
	req.Caption = r.FormValue("caption")

	file, header, err := r.FormFile("image")
	if err != nil {
		return req, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return req, err
	}
	req.Image, err = media.DataURL(header.Header.Get("Content-Type"), data)
	return req, err
}

// Like handles POST /api/v1/posts/{id}/like.
func (h PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	post, err := h.Content.Like(r.PathValue("id"))
	h.respondPost(w, r, post, err)
}

// Unlike handles DELETE /api/v1/posts/{id}/like.
func (h PostHandler) Unlike(w http.ResponseWriter, r *http.Request) {
	post, err := h.Content.Unlike(r.PathValue("id"))
	h.respondPost(w, r, post, err)
}

// Tap handles POST /api/v1/posts/{id}/tap. A second tap within the double
// tap window likes the post.
func (h PostHandler) Tap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	liked, err := h.Taps.Tap(id)
	if err != nil {
		h.respondPost(w, r, models.Post{}, err)
		return
	}
	post, err := h.Content.Post(id)
	if err != nil {
		h.respondPost(w, r, post, err)
		return
	}
	respondJSON(ctx, w, http.StatusOK, tapResponse{Liked: liked, Post: post})
}

func (h PostHandler) respondPost(w http.ResponseWriter, r *http.Request, post models.Post, err error) {
	ctx := r.Context()
	if err != nil {
		if errors.Is(err, content.ErrNotFound) {
			respondError(ctx, w, http.StatusNotFound, "post not found")
			return
		}
		logging.FromContext(ctx).Error("update post failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to update post")
		return
	}
	respondJSON(ctx, w, http.StatusOK, postResponse{Post: post})
}

// Comment handles POST /api/v1/posts/{id}/comments.
func (h PostHandler) Comment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	comment, err := h.Content.AddComment(ctx, r.PathValue("id"), req.Text)
	switch {
	case errors.Is(err, content.ErrEmptyText):
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, content.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, "post not found")
	case err != nil:
		logging.FromContext(ctx).Error("add comment failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to add comment")
	default:
		respondJSON(ctx, w, http.StatusCreated, map[string]models.Comment{"comment": comment})
	}
}

type createPostRequest struct {
	Image   string `json:"image"`
	Caption string `json:"caption"`
}

func (c createPostRequest) valid() bool {
	return strings.TrimSpace(c.Image) != ""
}

type commentRequest struct {
	Text string `json:"text"`
}

type postsResponse struct {
	Posts []models.Post `json:"posts"`
}

type postResponse struct {
	Post models.Post `json:"post"`
}

type tapResponse struct {
	Liked bool        `json:"liked"`
	Post  models.Post `json:"post"`
}

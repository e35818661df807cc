// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package midi

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fourt/community/internal/community/points"
	"github.com/fourt/community/internal/platform/apperr"
	"github.com/fourt/community/internal/platform/middleware"
	requestutil "github.com/fourt/community/internal/platform/request"
	"github.com/fourt/community/internal/platform/respond"
	"github.com/fourt/community/internal/platform/validate"
	"github.com/fourt/community/pkg/pagination"
)

// # Definitions & Constructors

// Handler implements catalog-related HTTP endpoints.
type Handler struct {
	midiService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{midiService: service}
}

// Routes returns a [chi.Router] configured with catalog-specific routes.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Get("/midi", handler.list)
	router.Get("/midi/file", handler.file)
	router.Get("/midi/{id}", handler.get)
	router.Get("/midi/{id}/comments", handler.listComments)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/midi", handler.upload)
		r.Post("/midi/{id}/download", handler.download)
		r.Post("/midi/{id}/rate", handler.rate)
		r.Get("/midi/{id}/my-rating", handler.myRating)
		r.Post("/midi/{id}/comments", handler.createComment)
		r.Get("/my/midi", handler.myMidi)
		r.Get("/my/downloads", handler.myDownloads)
	})

	// Moderation endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth, middleware.RequireAdmin)
		r.Post("/midi/{id}/review", handler.review)
	})

	return router
}

// # Request Payloads

type rateRequest struct {
	Score int `json:"score"`
}

type commentRequest struct {
	Content string `json:"content"`
}

type reviewRequest struct {
	Approve bool `json:"approve"`
}

// # Browsing

/*
List returns a paginated page of the approved catalog.

GET /api/v1/community/midi

Request:
  - Query: page, limit, sort (newest|popular|rating), search, tier

Response:
  - 200: []Item with pagination metadata
  - 400: ErrValidation: Unknown sort or tier
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	filter := Filter{
		Search: strings.TrimSpace(request.URL.Query().Get("search")),
		Tier:   points.Tier(request.URL.Query().Get("tier")),
		Sort:   Sort(request.URL.Query().Get("sort")),
	}

	items, total, err := handler.midiService.List(request.Context(), filter, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if items == nil {
		items = []Item{}
	}
	respond.Paginated(writer, items, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
Get returns the details of a single file.

GET /api/v1/community/midi/{id}

Response:
  - 200: Item
  - 404: ErrNotFound: Unknown ID, or unreviewed file and the viewer is
    neither the uploader nor an admin
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	item, err := handler.midiService.Get(request.Context(), requestutil.ID(request, "id"), requestutil.Claims(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, item)
}

/*
MyMidi returns the authenticated user's own uploads, every status included.

GET /api/v1/community/my/midi

Response:
  - 200: []Item with pagination metadata
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) myMidi(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	items, total, err := handler.midiService.MyMidi(request.Context(), userID, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if items == nil {
		items = []Item{}
	}
	respond.Paginated(writer, items, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
MyDownloads returns the files the authenticated user has download records for.

GET /api/v1/community/my/downloads

Response:
  - 200: []Item with pagination metadata
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) myDownloads(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	items, total, err := handler.midiService.MyDownloads(request.Context(), userID, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if items == nil {
		items = []Item{}
	}
	respond.Paginated(writer, items, pagination.NewMeta(params.Page, params.Limit, total))
}

// # Upload & Moderation

/*
Upload accepts a multipart MIDI submission.

POST /api/v1/community/midi

Request:
  - Multipart form: file (.mid/.midi, max 5 MiB), title, artist,
    description, tags (comma separated), tier

Response:
  - 201: Item: The pending catalog entry
  - 400: ErrValidation: Bad metadata or file
  - 429: ErrRateLimited: Daily upload quota exhausted
*/
func (handler *Handler) upload(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	// One extra meg of form headroom beyond the file cap.
	if err := request.ParseMultipartForm(MaxFileSize + 1<<20); err != nil {
		respond.Error(writer, request, apperr.ValidationError("Request must be multipart form data",
			apperr.FieldError{Field: FieldFile, Message: "multipart form required"}))
		return
	}

	title := strings.TrimSpace(request.FormValue("title"))
	artist := strings.TrimSpace(request.FormValue("artist"))
	description := strings.TrimSpace(request.FormValue("description"))
	tier := request.FormValue("tier")
	if tier == "" {
		tier = string(points.TierNormal)
	}

	validator := &validate.Validator{}
	validator.Required(FieldTitle, title).
		MaxLen(FieldTitle, title, MaxTitleLength).
		MaxLen(FieldArtist, artist, MaxTitleLength).
		MaxLen(FieldDescription, description, MaxDescriptionLength)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	file, header, err := request.FormFile("file")
	if err != nil {
		respond.Error(writer, request, apperr.ValidationError("A MIDI file is required",
			apperr.FieldError{Field: FieldFile, Message: "required"}))
		return
	}
	defer file.Close()

	item, err := handler.midiService.Upload(request.Context(), UploadInput{
		UploaderID:  userID,
		Title:       title,
		Artist:      artist,
		Description: description,
		Tags:        splitTags(request.FormValue("tags")),
		Tier:        points.Tier(tier),
		Filename:    header.Filename,
		Size:        header.Size,
		File:        file,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, item)
}

/*
Review records the admin verdict on a pending file.

POST /api/v1/community/midi/{id}/review

Request:
  - Body: reviewRequest (Approve)

Response:
  - 200: Item: The reviewed entry
  - 403: ErrForbidden: Admin privileges required
  - 409: ErrConflict: File already reviewed
*/
func (handler *Handler) review(writer http.ResponseWriter, request *http.Request) {
	var input reviewRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	item, err := handler.midiService.Review(request.Context(), requestutil.ID(request, "id"), input.Approve)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, item)
}

// # Downloads

/*
Download charges the buyer (when due) and grants a short-lived file handle.

POST /api/v1/community/midi/{id}/download

Response:
  - 200: DownloadGrant: Handle, amount charged, resulting balance
  - 402: ErrPaymentRequired: Insufficient points
  - 404: ErrNotFound: Unknown or unapproved file
*/
func (handler *Handler) download(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	grant, err := handler.midiService.Download(request.Context(), userID, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, grant)
}

/*
File redeems a download handle and streams the MIDI bytes.

GET /api/v1/community/midi/file?handle=...

Description: Handles are single use; a second request with the same handle
returns 404 even within the TTL.

Response:
  - 200: audio/midi bytes with a Content-Disposition attachment header
  - 404: ErrNotFound: Unknown, used, or expired handle
*/
func (handler *Handler) file(writer http.ResponseWriter, request *http.Request) {
	handle := request.URL.Query().Get("handle")
	if handle == "" {
		respond.Error(writer, request, apperr.ValidationError("Download handle is required",
			apperr.FieldError{Field: FieldHandle, Message: "required"}))
		return
	}

	item, err := handler.midiService.File(request.Context(), handle)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writer.Header().Set("Content-Type", "audio/midi")
	writer.Header().Set("Content-Disposition", `attachment; filename="`+sanitizeFilename(item.Title)+`.mid"`)
	http.ServeFile(writer, request, item.FilePath)
}

// # Ratings & Comments

/*
Rate stores or replaces the user's star score for a file.

POST /api/v1/community/midi/{id}/rate

Request:
  - Body: rateRequest (Score 1..5)

Response:
  - 200: RateResult: Stored score plus the recomputed aggregate
  - 403: ErrForbidden: Rating your own upload
  - 404: ErrNotFound: Unknown or unapproved file
*/
func (handler *Handler) rate(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input rateRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	rating, err := handler.midiService.Rate(request.Context(), userID, requestutil.ID(request, "id"), input.Score)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, rating)
}

/*
MyRating returns the authenticated user's existing rating for a file.

GET /api/v1/community/midi/{id}/my-rating

Response:
  - 200: Rating
  - 404: ErrNotFound: The user has not rated this file
*/
func (handler *Handler) myRating(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	rating, err := handler.midiService.MyRating(request.Context(), userID, requestutil.ID(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, rating)
}

/*
CreateComment appends a comment to a file.

POST /api/v1/community/midi/{id}/comments

Request:
  - Body: commentRequest (Content)

Response:
  - 201: Comment
  - 404: ErrNotFound: Unknown or unapproved file
*/
func (handler *Handler) createComment(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input commentRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	comment, err := handler.midiService.Comment(request.Context(), userID, requestutil.ID(request, "id"), input.Content)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, comment)
}

/*
ListComments returns a page of a file's comments, newest first.

GET /api/v1/community/midi/{id}/comments

Response:
  - 200: []Comment with pagination metadata
  - 404: ErrNotFound: Unknown or unapproved file
*/
func (handler *Handler) listComments(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	comments, total, err := handler.midiService.Comments(
		request.Context(),
		requestutil.ID(request, "id"),
		params.Limit,
		params.Offset(),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if comments == nil {
		comments = []Comment{}
	}
	respond.Paginated(writer, comments, pagination.NewMeta(params.Page, params.Limit, total))
}

// splitTags parses the comma separated tags form field.
func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for index := 0; index < len(parts); index++ {
		tag := strings.TrimSpace(parts[index])
		if tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// sanitizeFilename strips characters that break a Content-Disposition header.
func sanitizeFilename(name string) string {
	replacer := strings.NewReplacer(`"`, "", "\\", "", "/", "-", "\r", "", "\n", "")
	cleaned := strings.TrimSpace(replacer.Replace(name))
	if cleaned == "" {
		return "download"
	}
	return cleaned
}

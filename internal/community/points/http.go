// Copyright (c) 2026 FourT. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package points

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fourt/community/internal/platform/middleware"
	requestutil "github.com/fourt/community/internal/platform/request"
	"github.com/fourt/community/internal/platform/respond"
	"github.com/fourt/community/pkg/convert"
	"github.com/fourt/community/pkg/pagination"
)

// Handler implements the HTTP layer for the points ledger.
type Handler struct {
	pointsService *Service
}

// NewHandler constructs a new points [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{pointsService: service}
}

// Routes returns a [chi.Router] with the ledger endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public standings
	router.Get("/leaderboard", handler.getLeaderboard)

	// Personal ledger
	router.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireAuth)
		protected.Get("/history", handler.getHistory)
	})

	return router
}

/*
GET /api/v1/community/points/history.

Description: Returns the authenticated user's ledger entries, newest first.

Query:
  - page: int (default 1)
  - limit: int (default 50, max 200)

Response:
  - 200: Paginated []Transaction
  - 401: ErrUnauthorized: Authentication required
*/
func (handler *Handler) getHistory(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	if params.Limit > MaxHistoryLimit {
		params.Limit = MaxHistoryLimit
	}

	transactions, total, err := handler.pointsService.History(request.Context(), userID, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if transactions == nil {
		transactions = []Transaction{}
	}
	respond.Paginated(writer, transactions, pagination.NewMeta(params.Page, params.Limit, total))
}

/*
GET /api/v1/community/points/leaderboard.

Description: Returns the top members ordered by lifetime earned points.

Query:
  - limit: int (default 20, max 100)

Response:
  - 200: []LeaderboardEntry
*/
func (handler *Handler) getLeaderboard(writer http.ResponseWriter, request *http.Request) {
	limit := convert.ToIntD(request.URL.Query().Get("limit"), DefaultLeaderboardLimit)

	entries, err := handler.pointsService.Leaderboard(request.Context(), limit)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if entries == nil {
		entries = []LeaderboardEntry{}
	}
	respond.OK(writer, entries)
}

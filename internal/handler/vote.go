package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/cinema-analytics/internal/middleware"
	"github.com/iliyamo/cinema-analytics/internal/model"
	"github.com/iliyamo/cinema-analytics/internal/rating"
)

// VoteService is the rating maintainer as seen by the HTTP layer.
type VoteService interface {
	Vote(ctx context.Context, userID, movieID uint64, value int) (model.Vote, error)
	UpdateVote(ctx context.Context, voteID uint64, value int) (model.Vote, error)
	DeleteVote(ctx context.Context, voteID uint64) error
	GetVote(ctx context.Context, voteID uint64) (model.Vote, error)
	ListVotes(ctx context.Context, f model.VoteFilter) ([]model.Vote, error)
	MyVote(ctx context.Context, userID, movieID uint64) (model.Vote, error)
	Stats(ctx context.Context, movieID uint64) (rating.Stats, error)
}

// VoteHandler serves vote mutations and queries.
type VoteHandler struct {
	Votes     VoteService
	Validator *validator.Validate
	Log       *zap.Logger
}

func NewVoteHandler(votes VoteService, v *validator.Validate, log *zap.Logger) *VoteHandler {
	if votes == nil {
		panic("nil vote service passed to NewVoteHandler")
	}
	if v == nil {
		v = NewValidator()
	}
	return &VoteHandler{Votes: votes, Validator: v, Log: log}
}

// ----- DTOs -----

type castVoteReq struct {
	MovieID     uint64 `json:"movie_id" validate:"required"`
	RatingValue int    `json:"rating_value" validate:"required,min=1,max=5"`
}

type updateVoteReq struct {
	RatingValue int `json:"rating_value" validate:"required,min=1,max=5"`
}

type voteResp struct {
	ID          uint64    `json:"id"`
	UserID      uint64    `json:"user_id"`
	MovieID     uint64    `json:"movie_id"`
	RatingValue int       `json:"rating_value"`
	VoteTime    time.Time `json:"vote_time"`
}

func toVoteResp(v model.Vote) voteResp {
	return voteResp{
		ID:          v.ID,
		UserID:      v.UserID,
		MovieID:     v.MovieID,
		RatingValue: v.RatingValue,
		VoteTime:    v.VoteTime.UTC(),
	}
}

// canManage reports whether the caller may change vote v: its author or
// an admin.
func canManage(c echo.Context, v model.Vote) bool {
	uid, _ := middleware.UserID(c)
	return v.UserID == uid || middleware.Role(c) == model.RoleName(model.RoleAdmin)
}

// Cast: POST /v1/votes.  Voting again on the same movie replaces the
// earlier vote.
func (h *VoteHandler) Cast(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req castVoteReq
	if err := bindValid(c, h.Validator, &req); err != nil {
		return respondError(c, h.Log, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	v, err := h.Votes.Vote(ctx, uid, req.MovieID, req.RatingValue)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toVoteResp(v))
}

// Update: PUT /v1/votes/:id
func (h *VoteHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}
	var req updateVoteReq
	if err := bindValid(c, h.Validator, &req); err != nil {
		return respondError(c, h.Log, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	cur, err := h.Votes.GetVote(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if !canManage(c, cur) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	v, err := h.Votes.UpdateVote(ctx, id, req.RatingValue)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toVoteResp(v))
}

// Delete: DELETE /v1/votes/:id
func (h *VoteHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	cur, err := h.Votes.GetVote(ctx, id)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	if !canManage(c, cur) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if err := h.Votes.DeleteVote(ctx, id); err != nil {
		return respondError(c, h.Log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// List: GET /v1/votes?movie_id=&user_id=&min_rating=&max_rating=&from=&to=
func (h *VoteHandler) List(c echo.Context) error {
	var (
		f   model.VoteFilter
		err error
	)
	if f.MovieID, err = queryUint(c, "movie_id"); err != nil {
		return respondError(c, h.Log, err)
	}
	if f.UserID, err = queryUint(c, "user_id"); err != nil {
		return respondError(c, h.Log, err)
	}
	if f.MinRating, err = queryInt(c, "min_rating"); err != nil {
		return respondError(c, h.Log, err)
	}
	if f.MaxRating, err = queryInt(c, "max_rating"); err != nil {
		return respondError(c, h.Log, err)
	}
	if f.From, err = queryInstant(c, "from", false); err != nil {
		return respondError(c, h.Log, err)
	}
	if f.To, err = queryInstant(c, "to", true); err != nil {
		return respondError(c, h.Log, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	votes, err := h.Votes.ListVotes(ctx, f)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	out := make([]voteResp, 0, len(votes))
	for _, v := range votes {
		out = append(out, toVoteResp(v))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out, "total": len(out)})
}

// Mine: GET /v1/movies/:id/votes/mine
func (h *VoteHandler) Mine(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	movieID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	v, err := h.Votes.MyVote(ctx, uid, movieID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, toVoteResp(v))
}

// Stats: GET /v1/movies/:id/votes/stats
func (h *VoteHandler) Stats(c echo.Context) error {
	movieID, err := pathID(c, "id")
	if err != nil {
		return respondError(c, h.Log, err)
	}

	ctx, cancel := requestContext(c)
	defer cancel()
	s, err := h.Votes.Stats(ctx, movieID)
	if err != nil {
		return respondError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, s)
}

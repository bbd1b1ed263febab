package controllers

import (
	"net/http"

	"github.com/civicpulse/backend/internal/services"
	"github.com/gin-gonic/gin"
)

// EngagementController serves votes and comments on reports.
type EngagementController struct {
	votes    *services.VoteService
	comments *services.CommentService
}

func NewEngagementController(votes *services.VoteService, comments *services.CommentService) *EngagementController {
	return &EngagementController{votes: votes, comments: comments}
}

type CastVoteRequest struct {
	VoteType string `json:"voteType" binding:"required"`
}

type AddCommentRequest struct {
	Content string `json:"content"`
}

func (ec *EngagementController) GetVotes(c *gin.Context) {
	counts, err := ec.votes.Counts(c.Request.Context(), currentActor(c), c.Param("id"))
	if err != nil {
		respondError(c, err, "engagement_controller")
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (ec *EngagementController) CastVote(c *gin.Context) {
	var req CastVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	counts, err := ec.votes.CastVote(c.Request.Context(), currentActor(c), c.Param("id"), req.VoteType)
	if err != nil {
		respondError(c, err, "engagement_controller")
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (ec *EngagementController) ListComments(c *gin.Context) {
	comments, err := ec.comments.Fetch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "engagement_controller")
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments, "total": len(comments)})
}

func (ec *EngagementController) AddComment(c *gin.Context) {
	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := ec.comments.Add(c.Request.Context(), currentActor(c), c.Param("id"), req.Content)
	if err != nil {
		respondError(c, err, "engagement_controller")
		return
	}
	c.JSON(http.StatusCreated, comment)
}

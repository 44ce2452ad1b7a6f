package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/services"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/response"
)

// PostHandler serves post reads and commands.
type PostHandler struct {
	service *services.PostService
}

type createPostRequest struct {
	Title   string `form:"title" json:"title" validate:"notblank"`
	Content string `form:"content" json:"content" validate:"notblank"`
	UserID  string `form:"user_id" json:"user_id" validate:"notblank"`
}

// NewPostHandler constructs a PostHandler.
func NewPostHandler(service *services.PostService) (*PostHandler, error) {
	if service == nil {
		return nil, errors.New("post handler: service is required")
	}
	return &PostHandler{service: service}, nil
}

// GET /posts/:id
func (h *PostHandler) Get(c *gin.Context) {
	payload, err := h.service.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, payload)
}

// GET /posts/:id/likes
func (h *PostHandler) Likes(c *gin.Context) {
	payload, err := h.service.Likes(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, payload)
}

// GET /users/:id/posts
func (h *PostHandler) ListByUser(c *gin.Context) {
	posts, err := h.service.ListByUser(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, posts)
}

// POST /posts
func (h *PostHandler) Create(c *gin.Context) {
	var body createPostRequest
	if !bindAndValidate(c, &body) {
		return
	}

	post, err := h.service.Create(requestContext(c), services.CreatePostInput{
		UserID:  body.UserID,
		Title:   body.Title,
		Content: body.Content,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusCreated, "Post created successfully", gin.H{"postId": post.ID})
}

// POST /posts/:id/like
func (h *PostHandler) Like(c *gin.Context) {
	h.react(c, services.ActionLike, "Post liked successfully")
}

// POST /posts/:id/dislike
func (h *PostHandler) Dislike(c *gin.Context) {
	h.react(c, services.ActionDislike, "Post disliked successfully")
}

func (h *PostHandler) react(c *gin.Context, action, message string) {
	likes, err := h.service.React(requestContext(c), c.Param("id"), action)
	if err != nil {
		response.Error(c, err)
		return
	}

	extra := gin.H{}
	if likes != nil {
		extra["likes"] = likes
	}
	response.Message(c, http.StatusOK, message, extra)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/services"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/response"
)

type UserHandler struct {
	service *services.UserService
}

type createUserRequest struct {
	Username string `form:"username" json:"username" validate:"notblank,max=128"`
}

func NewUserHandler(service *services.UserService) (*UserHandler, error) {
	if service == nil {
		return nil, errors.New("user handler: service is required")
	}
	return &UserHandler{service: service}, nil
}

// GET /users/:id
func (h *UserHandler) Get(c *gin.Context) {
	payload, err := h.service.Get(requestContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Raw(c, http.StatusOK, payload)
}

// POST /users
func (h *UserHandler) Create(c *gin.Context) {
	var body createUserRequest
	if !bindAndValidate(c, &body) {
		return
	}

	user, err := h.service.Create(requestContext(c), services.CreateUserInput{Username: body.Username})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusCreated, "User created successfully", gin.H{"userId": user.ID})
}

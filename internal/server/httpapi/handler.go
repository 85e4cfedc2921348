package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/mentorhub/internal/common"
	"github.com/dmitrijs2005/mentorhub/internal/logging"
	"github.com/dmitrijs2005/mentorhub/internal/server/models"
	"github.com/dmitrijs2005/mentorhub/internal/server/query"
	"github.com/gin-gonic/gin"
)

// Directory is the part of services.DirectoryService served over HTTP.
type Directory interface {
	CreateUser(ctx context.Context, info models.NewUser) (*models.CreatedUser, error)
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	Me(ctx context.Context, token string) (query.Row, error)
	UpdateMe(ctx context.Context, token string, updates map[string]any) (query.Row, error)
	GetProfile(ctx context.Context, searchKey string) (query.Row, error)
	SearchMentors(ctx context.Context, terms []string) ([]query.Row, error)
}

type Handler struct {
	directory Directory
	logger    logging.Logger
}

func NewHandler(d Directory, l logging.Logger) *Handler {
	if l == nil {
		l = logging.NopLogger{}
	}
	return &Handler{directory: d, logger: l}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	users := router.Group("/users")
	{
		users.POST("", h.createUser)
		users.POST("/login", h.login)
		users.GET("/:token", h.me)
		users.PUT("/:token", h.updateMe)
	}
	router.GET("/profile/:search_key", h.profile)
	router.GET("/search/:search", h.search)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) createUser(c *gin.Context) {
	var req models.NewUser
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %w", common.ErrorInvalidInput, err))
		return
	}

	created, err := h.directory.CreateUser(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusCreated, created)
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, fmt.Errorf("%w: %w", common.ErrorInvalidInput, err))
		return
	}

	res, err := h.directory.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

func (h *Handler) me(c *gin.Context) {
	row, err := h.directory.Me(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, row)
}

func (h *Handler) updateMe(c *gin.Context) {
	var updates map[string]any
	if err := c.ShouldBindJSON(&updates); err != nil {
		h.fail(c, fmt.Errorf("%w: %w", common.ErrorInvalidInput, err))
		return
	}

	row, err := h.directory.UpdateMe(c.Request.Context(), c.Param("token"), updates)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, row)
}

func (h *Handler) profile(c *gin.Context) {
	row, err := h.directory.GetProfile(c.Request.Context(), c.Param("search_key"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, http.StatusOK, row.Public())
}

func (h *Handler) search(c *gin.Context) {
	rows, err := h.directory.SearchMentors(c.Request.Context(), strings.Split(c.Param("search"), " "))
	if err != nil {
		h.fail(c, err)
		return
	}
	public := make([]query.Row, len(rows))
	for i, r := range rows {
		public[i] = r.Public()
	}
	ok(c, http.StatusOK, public)
}

package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/mentorhub/internal/common"
	"github.com/gin-gonic/gin"
)

// Error codes carried in the "code" field of error bodies.
const (
	CodeOK               = 0
	CodeUndefinedProblem = 1
	CodeDuplicatedEmail  = 2
	CodeDatabaseError    = 3
	CodeNotFound         = 4
	CodeContactSupport   = 5
	CodeNotLoggedIn      = 6
)

type errorBody struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}

type invalidBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// toHTTP maps a directory error onto its status and body.
func toHTTP(err error) (int, any) {
	var dbErr *common.DatabaseError

	switch {
	case errors.Is(err, common.ErrorInvalidInput):
		return http.StatusUnprocessableEntity, invalidBody{Message: "Please check the posted variables.", Error: err.Error()}
	case errors.Is(err, common.ErrorDuplicatedEmail):
		return http.StatusConflict, errorBody{Message: "Email already used.", Code: CodeDuplicatedEmail}
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, errorBody{Message: "The entity was not found.", Code: CodeNotFound}
	case errors.Is(err, common.ErrorNotLoggedIn):
		return http.StatusNotFound, errorBody{Message: "Please log in again.", Code: CodeNotLoggedIn}
	case errors.Is(err, common.ErrorContactSupport):
		return http.StatusInternalServerError, errorBody{Message: "Please contact the support and explain what happened.", Code: CodeContactSupport}
	case common.IsRetryable(err):
		return http.StatusServiceUnavailable, errorBody{Message: "There was a problem. Please try again later.", Code: CodeDatabaseError}
	case errors.As(err, &dbErr):
		return http.StatusInternalServerError, errorBody{Message: "There was a problem. Please try again later.", Code: CodeDatabaseError, Details: dbErr.Code}
	default:
		return http.StatusInternalServerError, errorBody{Message: "Something went wrong.", Code: CodeUndefinedProblem}
	}
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, body := toHTTP(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(status, body)
}

func ok(c *gin.Context, status int, result any) {
	c.JSON(status, gin.H{"result": result, "error": CodeOK})
}

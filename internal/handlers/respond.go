package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"lodge_backend/internal/models"
	"lodge_backend/internal/services"
	"lodge_backend/pkg/utils"
)

// parseIDParam reads the :id path parameter, answering 400 when malformed.
func parseIDParam(c *gin.Context, resource string) (int64, bool) {
	id, err := utils.StrToInt64(c.Param("id"))
	if err != nil || id <= 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+resource+" ID format.", c.Param("id")))
		return 0, false
	}
	return id, true
}

// parsePagination reads page and page_size with the given default size.
func parsePagination(c *gin.Context, defaultSize int) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", strconv.Itoa(defaultSize)))
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = defaultSize
	}
	if pageSize > 500 {
		pageSize = 500
	}
	return page, pageSize
}

func optionalQuery(c *gin.Context, key string) *string {
	if v, ok := c.GetQuery(key); ok && v != "" {
		return &v
	}
	return nil
}

func optionalInt64Query(c *gin.Context, key string) (*int64, bool) {
	v := optionalQuery(c, key)
	if v == nil {
		return nil, true
	}
	n, err := utils.StrToInt64(*v)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameter.", "").
			WithField(key, "must be an integer"))
		return nil, false
	}
	return &n, true
}

func optionalTimeQuery(c *gin.Context, key string, loc *time.Location) (*time.Time, bool) {
	v := optionalQuery(c, key)
	if v == nil {
		return nil, true
	}
	t, err := utils.ParseTimestamp(*v, loc)
	if err != nil {
		if d, derr := models.ParseDate(*v); derr == nil {
			t = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameter.", "").
				WithField(key, err.Error()))
			return nil, false
		}
	}
	return &t, true
}

func optionalDateQuery(c *gin.Context, key string) (*models.Date, bool) {
	v := optionalQuery(c, key)
	if v == nil {
		return nil, true
	}
	d, err := models.ParseDate(*v)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid query parameter.", "").
			WithField(key, "must use the YYYY-MM-DD format"))
		return nil, false
	}
	return &d, true
}

// conflictView is the client-facing summary of a colliding reservation.
type conflictView struct {
	ID         int64     `json:"id"`
	ClientName string    `json:"client_name"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Status     string    `json:"status"`
}

// respondServiceError maps service errors onto the API error envelope.
// fallback is the message used for unexpected (500) errors.
func respondServiceError(c *gin.Context, err error, fallback string) {
	var conflict *services.ConflictError
	if errors.As(err, &conflict) {
		views := make([]conflictView, 0, len(conflict.Conflicts))
		for _, r := range conflict.Conflicts {
			name := ""
			if r.Client != nil {
				name = r.Client.FullName
			}
			views = append(views, conflictView{ID: r.ID, ClientName: name, CheckIn: r.CheckIn, CheckOut: r.CheckOut, Status: string(r.Status)})
		}
		apiErr := utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeReservationConflict, conflict.Error(), "").
			WithField("check_in", conflict.Error())
		apiErr.Conflicts = views
		utils.RespondWithError(c, apiErr)
		return
	}

	var verr *services.ValidationError
	if errors.As(err, &verr) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, verr.Message, "").
			WithField(verr.Field, verr.Message))
		return
	}

	switch {
	case errors.Is(err, services.ErrReservationNotFound),
		errors.Is(err, services.ErrUnitNotFound),
		errors.Is(err, services.ErrClientNotFound),
		errors.Is(err, services.ErrTransactionNotFound):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, capitalize(err.Error())+".", ""))
	case errors.Is(err, services.ErrUnitInUse),
		errors.Is(err, services.ErrClientInUse),
		errors.Is(err, services.ErrUnitNameExists),
		errors.Is(err, services.ErrCPFExists),
		errors.Is(err, services.ErrIncomeAlreadyExists):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, capitalize(err.Error())+".", ""))
	case errors.Is(err, services.ErrConcurrentModification):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConcurrentModification, "The resource was modified concurrently, please retry.", ""))
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid username or password.", ""))
	default:
		utils.LogRequestError(c, err, fallback)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallback, "Internal error"))
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

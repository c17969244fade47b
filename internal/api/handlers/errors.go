package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"fleet-monitor/internal/services"
	"fleet-monitor/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps a service error onto the response envelope. Unexpected
// errors are logged and reported with a generic message.
func respondError(c *gin.Context, logger *zap.Logger, message string, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		utils.ValidationErrorResponse(c, ve.Message, ve.Err)
	case errors.Is(err, services.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, message, err)
	case errors.Is(err, services.ErrAlreadyExists):
		utils.ErrorResponse(c, http.StatusConflict, message, err)
	default:
		logger.Error(message, zap.String("path", c.FullPath()), zap.Error(err))
		_ = c.Error(err)
		utils.ErrorResponse(c, http.StatusInternalServerError, message, errors.New("internal server error"))
	}
}

// queryVehicleID accepts both vehicle_id and vehicleId.
func queryVehicleID(c *gin.Context) string {
	if id := strings.TrimSpace(c.Query("vehicle_id")); id != "" {
		return id
	}
	return strings.TrimSpace(c.Query("vehicleId"))
}

// queryBool parses an optional boolean query parameter.
func queryBool(c *gin.Context, name string) (*bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, &services.ValidationError{Message: name + " must be true or false"}
	}
	return &v, nil
}

// queryList gathers repeated and comma-separated values of any of names.
func queryList(c *gin.Context, names ...string) []string {
	var out []string
	for _, name := range names {
		for _, raw := range c.QueryArray(name) {
			for _, v := range strings.Split(raw, ",") {
				if v = strings.TrimSpace(v); v != "" {
					out = append(out, v)
				}
			}
		}
	}
	return out
}

func parseAlertID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid alert ID", nil)
		return 0, false
	}
	return id, true
}

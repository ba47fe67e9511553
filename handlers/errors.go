package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/course-market-api/services"
	"github.com/sahilchouksey/course-market-api/utils/logger"
	"github.com/sahilchouksey/course-market-api/utils/response"
)

// RespondError maps a service error to its status code. Storage details never reach the client.
func RespondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	switch services.KindOf(err) {
	case services.KindNotFound:
		return response.NotFound(c, err.Error())
	case services.KindConflict:
		return response.Conflict(c, err.Error())
	case services.KindForbidden:
		return response.Forbidden(c, err.Error())
	case services.KindValidation:
		return response.ValidationError(c, validationMessage(err), nil)
	case services.KindTransient:
		log.Warn("Transient failure serving request", "path", c.Path(), "error", err)
		c.Set(fiber.HeaderRetryAfter, "1")
		return response.ServiceUnavailable(c, "")
	default:
		log.Error("Unexpected error serving request", "path", c.Path(), "error", err)
		return response.InternalServerError(c, "")
	}
}

// validationMessage strips the kind prefix that invalid() adds
func validationMessage(err error) string {
	return strings.TrimPrefix(err.Error(), services.ErrValidation.Error()+": ")
}

var errBadID = errors.New("invalid id")

// ParamID reads a positive numeric route parameter
func ParamID(c *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, errBadID
	}
	return uint(id), nil
}

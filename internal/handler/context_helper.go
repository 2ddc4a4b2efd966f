package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/datamatch-api/internal/middleware"
	"github.com/noah-isme/datamatch-api/internal/models"
	appErrors "github.com/noah-isme/datamatch-api/pkg/errors"
)

func principalFromContext(c *gin.Context) (models.Principal, error) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		return nil, appErrors.ErrUnauthorized
	}
	return principal, nil
}

func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

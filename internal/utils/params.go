package utils

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
)

func GetProjectID(ctx *gin.Context) (uint, error) {
	return parseIDParam(ctx, "project_id")
}

func GetUpdateID(ctx *gin.Context) (uint, error) {
	return parseIDParam(ctx, "update_id")
}

// FormatID renders a primary key the way responses carry it.
func FormatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func parseIDParam(ctx *gin.Context, name string) (uint, error) {
	idStr := ctx.Param(name)

	if idStr == "" {
		idStr = ctx.Query(name)
	}

	if idStr == "" {
		return 0, errors.New(name + " is required")
	}

	id, err := strconv.ParseUint(idStr, 10, 32)

	if err != nil {
		return 0, errors.New("invalid " + name)
	}

	return uint(id), nil
}

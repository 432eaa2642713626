package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

func pathID(c *gin.Context, name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param(name))
	if raw == "" {
		return 0, invalidRequestError()
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, invalidRequestError()
	}
	return id, nil
}

func queryID(c *gin.Context, name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, invalidRequestError()
	}
	return id, nil
}

func queryBool(c *gin.Context, name string) bool {
	switch strings.ToLower(strings.TrimSpace(c.Query(name))) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

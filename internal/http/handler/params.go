package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"retailassist.app/relay/common/id"
)

// pathID parses a snowflake id path parameter, answering 400 when it is invalid.
func pathID(c *gin.Context, name string) (int64, bool) {
	v, err := id.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return v, true
}

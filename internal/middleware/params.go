package middleware

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/study-group-api/internal/errors"
)

const idParamKeyPrefix = "param_id:"

// RequireIDParams parses the named path parameters as positive integer ids
// and stores them in the context. Any malformed id aborts with 400.
func RequireIDParams(names ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range names {
			id, err := strconv.ParseUint(c.Param(name), 10, 64)
			if err != nil || id == 0 {
				apierrors.BadRequest(c, fmt.Sprintf("Invalid %s", name))
				return
			}
			c.Set(idParamKeyPrefix+name, id)
		}
		c.Next()
	}
}

// GetIDParam returns an id parsed by RequireIDParams
func GetIDParam(c *gin.Context, name string) uint64 {
	return c.GetUint64(idParamKeyPrefix + name)
}

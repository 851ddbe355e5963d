package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextActorKey is the gin context key carrying the acting user ID.
const ContextActorKey = "actor_id"

// ActorHeader names the header the upstream gateway uses to forward the
// authenticated user. Authentication itself happens before this service.
const ActorHeader = "X-Actor-ID"

// Actor extracts the acting user from the request headers. Mutations work
// without one; events recorded for anonymous actors carry a null actor_id.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if actor := strings.TrimSpace(c.GetHeader(ActorHeader)); actor != "" {
			c.Set(ContextActorKey, actor)
		}
		c.Next()
	}
}

// ActorID returns the acting user ID stored on the context, or nil.
func ActorID(c *gin.Context) *string {
	value, exists := c.Get(ContextActorKey)
	if !exists {
		return nil
	}
	actor, ok := value.(string)
	if !ok || actor == "" {
		return nil
	}
	return &actor
}

package main

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ecom-backend/internal/identity"
	"ecom-backend/internal/notify"
)

// wsNotificationsHandler subscribes the connection to the caller's owner
// topic and streams order events until disconnect.
func wsNotificationsHandler(bus notify.Bus, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := identity.FromContext(c)
		notify.ServeWS(bus, log, owner.Topic(), c.Writer, c.Request)
	}
}

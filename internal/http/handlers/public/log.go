package public

import (
	handlershared "github.com/dujiao-next/storefront/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func handlerLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

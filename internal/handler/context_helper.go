package handler

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/meal-subscription-api/internal/middleware"
	"github.com/noah-isme/meal-subscription-api/internal/models"
	appErrors "github.com/noah-isme/meal-subscription-api/pkg/errors"
)

// bodyOverhead is the allowance for JSON fields and multipart framing around
// an encoded payload.
const bodyOverhead = 64 << 10

func principalFromContext(c *gin.Context) models.Principal {
	return middleware.PrincipalFromContext(c)
}

// bindError maps a binding failure onto a validation error, or a 413 when the
// body hit its size cap.
func bindError(err error, message string) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return appErrors.Wrap(err, appErrors.ErrPayloadTooLarge.Code, appErrors.ErrPayloadTooLarge.Status,
			fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	}
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
}

// limitBody caps the request body at limit bytes plus framing overhead.
func limitBody(c *gin.Context, limit int64) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit+bodyOverhead)
}

// limitBase64Body caps a JSON body that carries a base64 payload decoding to at
// most limit bytes.
func limitBase64Body(c *gin.Context, limit int64) {
	limitBody(c, int64(base64.StdEncoding.EncodedLen(int(limit))))
}

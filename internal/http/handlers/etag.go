package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// RespondJSONWithETag writes payload with a strong content hash as its ETag and
// answers 304 when the client already holds that representation. The body is
// marshaled once and the same bytes are hashed and sent.
func RespondJSONWithETag(ctx *gin.Context, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		RespondInternal(ctx, "Could not encode response")
		return
	}

	etag := etagFor(body)

	ctx.Header("ETag", etag)
	ctx.Header("Cache-Control", "no-cache")

	if matchesETag(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(status, "application/json; charset=utf-8", body)
}

func etagFor(body []byte) string {
	sum := sha256.Sum256(body)

	// 128 bits is plenty for a validator
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}

// matchesETag implements the weak comparison If-None-Match calls for.
func matchesETag(header, etag string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}

	if header == "*" {
		return true
	}

	for _, candidate := range strings.Split(header, ",") {
		// RFC allows weak validators like W/"abc".
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")

		if candidate == etag {
			return true
		}
	}

	return false
}

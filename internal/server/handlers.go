package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"tools.zach/dev/xpcard/internal/assets"
	"tools.zach/dev/xpcard/internal/card"
)

// ///////////////////////////////////////////////
// Request Body
// ///////////////////////////////////////////////

// cardBody is the JSON body of POST /v1/cards. Level and XP are pointers so
// that "required" rejects a missing field while still accepting 0.
type cardBody struct {
	Username  string   `json:"username" binding:"max=256"`
	AvatarURL string   `json:"avatar_url" binding:"required"`
	Level     *int     `json:"level" binding:"required,gte=0"`
	XP        *int64   `json:"xp" binding:"required,gte=0"`
	XPNeeded  int64    `json:"xp_needed" binding:"gt=0"`
	Rank      int      `json:"rank" binding:"gte=1"`
	Badges    []string `json:"badges" binding:"omitempty,dive,max=128"`
}

func (b cardBody) request() card.CardRequest {
	return card.CardRequest{
		Username:  b.Username,
		AvatarURL: b.AvatarURL,
		Level:     *b.Level,
		XP:        *b.XP,
		XPNeeded:  b.XPNeeded,
		Rank:      b.Rank,
		Badges:    b.Badges,
	}
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: msg, RequestID: c.GetString(requestIDKey)})
}

// ///////////////////////////////////////////////
// Handlers
// ///////////////////////////////////////////////

func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// renderCard answers with the PNG or a JSON error. See statusForRenderError
// for how render failures map to statuses.
func (s *Server) renderCard(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxBodyBytes)

	var body cardBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.Error(err)
		abortWithError(c, http.StatusBadRequest, FormatValidationError(err))
		return
	}
	if s.opts.MaxBadges > 0 && len(body.Badges) > s.opts.MaxBadges {
		abortWithError(c, http.StatusBadRequest,
			fmt.Sprintf("badges must contain at most %d items", s.opts.MaxBadges))
		return
	}
	req := body.request()
	if err := req.Validate(); err != nil {
		c.Error(err)
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.opts.RenderTimeout)
	defer cancel()

	png, err := s.renderer.Render(ctx, req)
	if err != nil {
		c.Error(err)
		abortWithError(c, statusForRenderError(err), err.Error())
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

// statusForRenderError maps a render failure to an HTTP status. Avatar
// problems are the caller's upstream and get 502 (403 for a host outside the
// allow list); missing local assets and encoder failures are 500.
func statusForRenderError(err error) int {
	var assetErr *card.AssetLoadError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, assets.ErrHostNotAllowed):
		return http.StatusForbidden
	case errors.As(err, &assetErr) && assetErr.Asset == "avatar":
		return http.StatusBadGateway
	case errors.Is(err, card.ErrInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ///////////////////////////////////////////////
// Validation Messages
// ///////////////////////////////////////////////

var registerOnce sync.Once

// registerJSONFieldNames makes validation errors name fields by their JSON
// key rather than the Go field name.
func registerJSONFieldNames() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// FormatValidationError turns a binding error into a single client-facing
// message.
func FormatValidationError(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldErrorMessage(fe))
		}
		return strings.Join(msgs, "; ")
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &syntaxErr):
		return fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return fmt.Sprintf("%s must be of type %s", typeErr.Field, typeErr.Type)
	case errors.As(err, &maxErr):
		return fmt.Sprintf("request body exceeds %d bytes", maxErr.Limit)
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "malformed JSON: unexpected end of input"
	case errors.Is(err, io.EOF):
		return "request body is empty"
	}
	return err.Error()
}

func fieldErrorMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gte":
		return fmt.Sprintf("%s must be >= %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be > %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

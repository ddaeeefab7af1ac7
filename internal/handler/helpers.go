package handler

import (
	"net/http"
	"reflect"

	"lunapos/internal/apierror"
	"lunapos/internal/middleware"
	"lunapos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewFieldValidation(fields))
		return false
	}
	return true
}

// respondErr maps a business error to its HTTP status and JSON payload.
// Transient infrastructure failures are logged at warn with their cause;
// unknown errors at error. Both render generically — only the log carries
// the detail.
func respondErr(c *gin.Context, err error) {
	status := apierror.StatusCode(err)
	switch {
	case apierror.IsTransient(err):
		log.Warn().
			Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("transient failure")
	case status == http.StatusInternalServerError:
		log.Error().
			Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("unhandled error")
	}
	c.JSON(status, apierror.Payload(err))
}

// staffFromContext builds an actor from the staff claims alone. Used by
// operations that legitimately run without a terminal identity (first-run
// registration, back-office queries).
func staffFromContext(c *gin.Context) (service.Actor, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, apierror.New("authentication required"))
		return service.Actor{}, false
	}
	userID, _ := uuid.Parse(claims.UserID)
	actor := service.Actor{UserID: userID, Username: claims.Username, Role: claims.Role}
	if terminal, ok := middleware.GetTerminal(c); ok {
		actor.TerminalID = terminal.ID
		actor.TerminalName = terminal.Name
		actor.IsMain = terminal.IsMain
	}
	return actor, true
}

// actorFromContext builds the service-level actor from the validated claims.
// Returns false (and writes the response) when the token carries no terminal
// context — every drawer operation requires one.
func actorFromContext(c *gin.Context) (service.Actor, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, apierror.New("authentication required"))
		return service.Actor{}, false
	}
	terminal, ok := middleware.GetTerminal(c)
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, apierror.New("token carries no terminal context"))
		return service.Actor{}, false
	}
	userID, _ := uuid.Parse(claims.UserID)
	return service.Actor{
		UserID:       userID,
		Username:     claims.Username,
		Role:         claims.Role,
		TerminalID:   terminal.ID,
		TerminalName: terminal.Name,
		IsMain:       terminal.IsMain,
	}, true
}

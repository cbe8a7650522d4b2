package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"chat-backend/services"
)

var registerTagNames sync.Once

// useJSONFieldNames makes validator report fields by their json name
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// fieldMessages lists body fields in the order they are checked
var fieldMessages = []struct {
	field string
	msg   string
}{
	{"firebaseUid", services.MsgOwnerRequired},
	{"content", services.MsgContentRequired},
	{"summary", services.MsgSummaryRequired},
}

func messageForField(field string) string {
	for _, fm := range fieldMessages {
		if fm.field == field {
			return fm.msg
		}
	}
	return services.MsgInvalidFields
}

// errBodyTooLarge is returned by bindJSON when the body limit was hit
var errBodyTooLarge = errors.New("request body too large")

// bindJSON decodes the request body into req and validates it.
// An empty body decodes as {} and data after the first JSON value is rejected. Failures come back as services validation errors
// carrying the message of the first failing field, or errBodyTooLarge.
func bindJSON(c *gin.Context, req any) error {
	var typeErr *json.UnmarshalTypeError
	if c.Request.Body != nil {
		dec := json.NewDecoder(c.Request.Body)
		err := dec.Decode(req)
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
		case errors.As(err, &maxErr):
			return errBodyTooLarge
		case err == nil, errors.As(err, &typeErr):
			// the body must hold exactly one JSON value
			if _, err := dec.Token(); !errors.Is(err, io.EOF) {
				if errors.As(err, &maxErr) {
					return errBodyTooLarge
				}
				return services.Validation(services.MsgInvalidFields)
			}
		default:
			return services.Validation(services.MsgInvalidFields)
		}
	}

	if err := binding.Validator.ValidateStruct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return services.Validation(services.MsgInvalidFields)
		}
		failed := make(map[string]bool, len(verrs))
		for _, fe := range verrs {
			failed[fe.Field()] = true
		}
		for _, fm := range fieldMessages {
			if failed[fm.field] {
				return services.Validation(fm.msg)
			}
		}
		return services.Validation(services.MsgInvalidFields)
	}

	if typeErr != nil {
		return services.Validation(messageForField(typeErr.Field))
	}
	return nil
}

// ownerFromQuery returns the firebaseUid query parameter, or "" when it is
// absent or repeated.
func ownerFromQuery(c *gin.Context) string {
	values := c.QueryArray("firebaseUid")
	if len(values) != 1 {
		return ""
	}
	return values[0]
}

// Package serdser contains the serialization and deserialization
// helpers which are shared by the REST resources.
package serdser

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/momeni/ormysql/pkg/core/cerr"
)

// Bind decodes the c request into req using the b binding (or the
// default binding of the request method and content type if b is nil)
// and validates it. In case of errors, an error response is written
// and false is returned.
func Bind(c *gin.Context, req any, b binding.Binding) bool {
	var err error
	if b == nil {
		err = c.ShouldBind(req)
	} else {
		err = c.ShouldBindWith(req, b)
	}
	switch err := err.(type) {
	case *validator.InvalidValidationError:
		c.JSON(http.StatusInternalServerError, gin.H{
			"detail": err.Error(),
		})
	case validator.ValidationErrors:
		var nameToErrs map[string][]string
		for _, ferr := range err {
			AddErr(&nameToErrs, ferr.Field(), ferr.Error())
		}
		c.JSON(http.StatusBadRequest, nameToErrs)
	default:
		if err == nil {
			return true
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"detail": err.Error(),
		})
	}
	return false
}

func AddErr(errs *map[string][]string, name string, msgs ...string) {
	if (*errs) == nil {
		*errs = make(map[string][]string)
	}
	(*errs)[name] = append((*errs)[name], msgs...)
}

func Assert(errs *map[string][]string, ok bool, name string, msgs ...string) bool {
	if ok {
		return true
	}
	AddErr(errs, name, msgs...)
	return false
}

// unavailable errors are reported by 503, so clients may retry later.
var unavailable = []error{
	cerr.ErrPoolExhausted,
	cerr.ErrPoolClosed,
	cerr.ErrPoolCreationFailed,
	cerr.ErrNotConfigured,
}

// Status returns the HTTP status code which should be used for err.
func Status(err error) int {
	var ce *cerr.Error
	if errors.As(err, &ce) {
		return ce.HTTPStatusCode
	}
	for _, target := range unavailable {
		if errors.Is(err, target) {
			return http.StatusServiceUnavailable
		}
	}
	return http.StatusInternalServerError
}

// SerErr writes err as the response, with the status code which is
// computed by Status.
func SerErr(c *gin.Context, err error) {
	detail := err.Error()
	var ce *cerr.Error
	if errors.As(err, &ce) {
		detail = ce.Err.Error()
	}
	c.JSON(Status(err), gin.H{
		"detail": detail,
	})
}

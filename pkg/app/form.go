package app

import (
	"errors"
	"io"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	ut "github.com/go-playground/universal-translator"
	val "github.com/go-playground/validator/v10"
)

// TransKey gin context key holding the request's ut.Translator
const TransKey = "trans"

type ValidError struct {
	Key     string
	Message string
}

type ValidErrors []*ValidError

func (v *ValidError) Error() string {
	return v.Message
}

func (v ValidErrors) Error() string {
	return strings.Join(v.Errors(), ",")
}

func (v ValidErrors) Errors() []string {
	var errs []string
	for _, err := range v {
		errs = append(errs, err.Error())
	}
	return errs
}

// MapsToString field name to message
func (v ValidErrors) MapsToString() map[string]string {
	out := make(map[string]string, len(v))
	for _, err := range v {
		out[err.Key] = err.Message
	}
	return out
}

// BindAndValid binds query or body into v and runs the binding validator.
// An empty body is validated as the zero request.
// Messages are translated with the translator set by the lang middleware.
// BindAndValid 参数绑定与校验
func BindAndValid(c *gin.Context, v interface{}) (bool, ValidErrors) {
	err := c.ShouldBind(v)
	if errors.Is(err, io.EOF) {
		err = binding.Validator.ValidateStruct(v)
	}
	if err != nil {
		return false, toValidErrors(c, err)
	}
	return true, nil
}

func toValidErrors(c *gin.Context, err error) ValidErrors {
	var errs ValidErrors

	var verrs val.ValidationErrors
	if !errors.As(err, &verrs) {
		errs = append(errs, &ValidError{Key: "body", Message: err.Error()})
		return errs
	}

	var trans ut.Translator
	if v, exists := c.Get(TransKey); exists {
		trans, _ = v.(ut.Translator)
	}

	for _, e := range verrs {
		msg := e.Error()
		if trans != nil {
			msg = e.Translate(trans)
		}
		errs = append(errs, &ValidError{Key: e.Field(), Message: msg})
	}
	return errs
}

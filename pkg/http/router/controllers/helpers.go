package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/lintang-b-s/ecoflow/pkg/notice"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type envelope map[string]interface{}

var (
	validateOnce sync.Once
	validate     *validator.Validate
	trans        ut.Translator
)

func validatorWithTranslator() (*validator.Validate, ut.Translator) {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		english := en.New()
		uni := ut.New(english, english)
		trans, _ = uni.GetTranslator("en")
		_ = enTranslations.RegisterDefaultTranslations(validate, trans)
	})
	return validate, trans
}

// validateRequest returns a bad param error listing every failed field.
func validateRequest(req interface{}) error {
	v, t := validatorWithTranslator()
	if err := v.Struct(req); err != nil {
		vv := translateError(err, t)
		vvString := []string{}
		for _, e := range vv {
			vvString = append(vvString, e.Error())
		}
		return util.NewErrorf(util.ErrBadParamInput, "validation error: %v", vvString)
	}
	return nil
}

func translateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	var validatorErrs validator.ValidationErrors
	if !errors.As(err, &validatorErrs) {
		return []error{err}
	}
	for _, e := range validatorErrs {
		errs = append(errs, errors.New(e.Translate(trans)))
	}
	return errs
}

type baseAPI struct {
	log *zap.Logger
}

func (api *baseAPI) writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	for key, value := range headers {
		w.Header()[key] = value
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func (api *baseAPI) readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var (
			syntaxError   *json.SyntaxError
			typeError     *json.UnmarshalTypeError
			maxBytesError *http.MaxBytesError
		)
		switch {
		case errors.As(err, &syntaxError):
			return util.WrapErrorf(err, util.ErrBadParamInput, "body contains badly-formed JSON (at character %d)",
				syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return util.WrapErrorf(err, util.ErrBadParamInput, "body contains badly-formed JSON")
		case errors.As(err, &typeError):
			return util.WrapErrorf(err, util.ErrBadParamInput, "body contains incorrect JSON type for field %q",
				typeError.Field)
		case errors.Is(err, io.EOF):
			return util.NewErrorf(util.ErrBadParamInput, "body must not be empty")
		case errors.As(err, &maxBytesError):
			return util.NewErrorf(util.ErrBadParamInput, "body must not be larger than %d bytes", maxBytesError.Limit)
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			return util.NewErrorf(util.ErrBadParamInput, "body contains unknown key %s",
				strings.TrimPrefix(err.Error(), "json: unknown field "))
		default:
			return util.WrapErrorf(err, util.ErrBadParamInput, "invalid body")
		}
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return util.NewErrorf(util.ErrBadParamInput, "body must only contain a single JSON value")
	}
	return nil
}

func (api *baseAPI) errorResponse(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var resp errorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	if err := api.writeJSON(w, status, envelope{"error": resp.Error}, nil); err != nil {
		api.log.Error("failed to write error response", zap.Error(err), zap.String("path", r.URL.Path))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (api *baseAPI) ServerErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.log.Error("server error", zap.Error(err), zap.String("method", r.Method), zap.String("path", r.URL.Path))
	api.errorResponse(w, r, http.StatusInternalServerError, "internal", util.MessageInternalServerError)
}

func (api *baseAPI) BadRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.errorResponse(w, r, http.StatusBadRequest, "bad_param_input", messageOf(err))
}

func (api *baseAPI) NotFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	api.errorResponse(w, r, http.StatusNotFound, "not_found", messageOf(err))
}

// getStatusCode writes the error response matching the code carried by err.
func (api *baseAPI) getStatusCode(w http.ResponseWriter, r *http.Request, err error) {
	code := util.ErrorCode(err)
	switch code {
	case util.ErrBadParamInput:
		api.BadRequestResponse(w, r, err)
	case util.ErrNotFound:
		api.NotFoundResponse(w, r, err)
	case util.ErrConflict:
		api.errorResponse(w, r, http.StatusConflict, notice.CodeName(code), messageOf(err))
	case util.ErrGeocodeUnavailable, util.ErrRouteUnavailable:
		api.log.Warn("upstream error", zap.Error(err), zap.String("path", r.URL.Path))
		api.errorResponse(w, r, http.StatusBadGateway, notice.CodeName(code), notice.MessageFor(err))
	case util.ErrGeolocationDenied, util.ErrGeolocationUnavailable, util.ErrGeolocationTimeout:
		api.errorResponse(w, r, http.StatusBadRequest, notice.CodeName(code), notice.MessageFor(err))
	default:
		api.ServerErrorResponse(w, r, err)
	}
}

func messageOf(err error) string {
	var e *util.Error
	if errors.As(err, &e) {
		return e.Message()
	}
	return err.Error()
}

func parseFloatParam(values map[string][]string, name string, required bool) (float64, bool, error) {
	raw := ""
	if v := values[name]; len(v) > 0 {
		raw = v[0]
	}
	if raw == "" {
		if required {
			return 0, false, util.NewErrorf(util.ErrBadParamInput, "%s is required and must be a valid float", name)
		}
		return 0, false, nil
	}
	val, err := util.StringToFloat64(raw)
	if err != nil {
		return 0, false, util.WrapErrorf(err, util.ErrBadParamInput, "%s must be a valid float", name)
	}
	return val, true, nil
}

func parseIntParam(raw, name string) (int, error) {
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, util.WrapErrorf(err, util.ErrBadParamInput, "%s must be a valid int", name)
	}
	return val, nil
}

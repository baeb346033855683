// Package bind decodes a request body (JSON or form) into a struct, trims
// its string fields and runs pkg/validate over it.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/wellness360/config"
	"github.com/shashiranjanraj/wellness360/pkg/validate"
)

func maxBodyBytes() int64 {
	n := config.Int("MAX_BODY_BYTES", 4<<20)
	if n <= 0 {
		return 4 << 20
	}
	return int64(n)
}

// JSON decodes r.Body into dest, capped at MAX_BODY_BYTES.
// Returns (errs, nil) on validation failures and (nil, err) when the body
// is malformed or too large. An empty body decodes as {}.
func JSON(r *http.Request, dest any) (map[string]string, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return check(dest), nil
}

// Form fills dest's `form`-tagged string, int, uint and bool fields from a
// urlencoded or multipart body. Missing fields keep their current value,
// so handlers can prefill dest for partial updates.
func Form(r *http.Request, dest any) (map[string]string, error) {
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if r.MultipartForm == nil {
			if err := r.ParseMultipartForm(32 << 20); err != nil {
				return nil, fmt.Errorf("invalid form: %w", err)
			}
		}
	} else if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("invalid form: %w", err)
	}

	rv := reflect.ValueOf(dest).Elem()
	rt := rv.Type()
	errs := map[string]string{}
	for i := 0; i < rt.NumField(); i++ {
		name := rt.Field(i).Tag.Get("form")
		if name == "" || name == "-" {
			continue
		}
		if _, present := r.Form[name]; !present {
			if r.MultipartForm == nil || r.MultipartForm.Value[name] == nil {
				continue
			}
		}
		raw := strings.TrimSpace(r.FormValue(name))
		if err := setField(rv.Field(i), raw); err != nil {
			errs[name] = fmt.Sprintf("The %s field must be a number.", name)
		}
	}
	if len(errs) > 0 {
		return errs, nil
	}
	return check(dest), nil
}

func setField(f reflect.Value, raw string) error {
	switch f.Kind() {
	case reflect.String:
		f.SetString(raw)
	case reflect.Int, reflect.Int64, reflect.Int32:
		if raw == "" {
			f.SetInt(0)
			return nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return err
		}
		f.SetInt(n)
	case reflect.Uint, reflect.Uint64, reflect.Uint32:
		if raw == "" {
			f.SetUint(0)
			return nil
		}
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return err
		}
		f.SetUint(n)
	case reflect.Bool:
		f.SetBool(raw == "1" || strings.EqualFold(raw, "true") || raw == "on")
	}
	return nil
}

func check(dest any) map[string]string {
	TrimStrings(dest)
	if errs := validate.Struct(dest); validate.HasErrors(errs) {
		return errs
	}
	return nil
}

// TrimStrings trims every settable string field (and *string) of the
// struct dest points to.
func TrimStrings(dest any) {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	rv = rv.Elem()
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch {
		case f.Kind() == reflect.String:
			f.SetString(strings.TrimSpace(f.String()))
		case f.Kind() == reflect.Ptr && !f.IsNil() && f.Elem().Kind() == reflect.String:
			f.Elem().SetString(strings.TrimSpace(f.Elem().String()))
		}
	}
}

// Package validate checks request structs against `validate` tags.
//
//	type ProductInput struct {
//	    Title string      `json:"product_title" validate:"required,max=255"`
//	    Price json.Number `json:"product_price" validate:"required,money"`
//	    Stock *int        `json:"stock"         validate:"nullable,gte=0"`
//	}
//
// Rules: required, nullable, email, numeric, integer, money, date,
// min=N, max=N, gt=N, gte=N, lte=N, in=a,b,c and confirmed. min and max
// measure characters on strings and the value on numbers. confirmed
// compares <field> with <field>_confirmation.
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Errors maps a JSON field name to its first failing message.
type Errors = map[string]string

func HasErrors(errs Errors) bool { return len(errs) > 0 }

// Struct validates v, a struct or a pointer to one.
func Struct(v any) Errors {
	errs := Errors{}
	rv := reflect.Indirect(reflect.ValueOf(v))
	if rv.Kind() != reflect.Struct {
		return errs
	}
	for _, f := range planFor(rv.Type()) {
		val := rv.Field(f.index)
		if val.Kind() == reflect.Ptr {
			if val.IsNil() {
				if f.required {
					errs[f.name] = requiredMsg(f.name)
				}
				continue
			}
			val = val.Elem()
		}
		if f.nullable && blank(val) {
			continue
		}
		for _, r := range f.rules {
			if msg := r.check(input{name: f.name, param: r.param, v: val, owner: rv}); msg != "" {
				errs[f.name] = msg
				break
			}
		}
	}
	return errs
}

// ── rules ────────────────────────────────────────────────────────────

type input struct {
	name  string
	param string
	v     reflect.Value
	owner reflect.Value
}

func (in input) text() string { return fmt.Sprint(in.v.Interface()) }

func (in input) number() float64 {
	switch in.v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(in.v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(in.v.Uint())
	case reflect.Float32, reflect.Float64:
		return in.v.Float()
	}
	return atof(in.text())
}

func (in input) isNumber() bool {
	switch in.v.Kind() {
	case reflect.String, reflect.Bool, reflect.Slice, reflect.Map, reflect.Struct:
		return false
	}
	return true
}

type checkFunc func(input) string

var email = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var checks = map[string]checkFunc{
	"required": func(in input) string {
		if blank(in.v) {
			return requiredMsg(in.name)
		}
		return ""
	},
	"email": func(in input) string {
		if email.MatchString(in.text()) {
			return ""
		}
		return fmt.Sprintf("The %s must be a valid email address.", in.name)
	},
	"numeric": func(in input) string {
		if _, err := strconv.ParseFloat(strings.TrimSpace(in.text()), 64); err != nil {
			return fmt.Sprintf("The %s field must be a number.", in.name)
		}
		return ""
	},
	"integer": func(in input) string {
		if _, err := strconv.ParseInt(strings.TrimSpace(in.text()), 10, 64); err != nil {
			return fmt.Sprintf("The %s field must be an integer.", in.name)
		}
		return ""
	},
	"money": func(in input) string {
		d, err := decimal.NewFromString(strings.TrimSpace(in.text()))
		if err != nil || d.IsNegative() || !d.Equal(d.Round(2)) {
			return fmt.Sprintf("The %s must be a non-negative amount with at most 2 decimals.", in.name)
		}
		return ""
	},
	"date": func(in input) string {
		if _, err := ParseDate(in.text()); err != nil {
			return fmt.Sprintf("The %s is not a valid date.", in.name)
		}
		return ""
	},
	"min": func(in input) string {
		if in.isNumber() {
			if in.number() < atof(in.param) {
				return fmt.Sprintf("The %s must be at least %s.", in.name, in.param)
			}
		} else if float64(len([]rune(in.text()))) < atof(in.param) {
			return fmt.Sprintf("The %s must be at least %s characters.", in.name, in.param)
		}
		return ""
	},
	"max": func(in input) string {
		if in.isNumber() {
			if in.number() > atof(in.param) {
				return fmt.Sprintf("The %s must not be greater than %s.", in.name, in.param)
			}
		} else if float64(len([]rune(in.text()))) > atof(in.param) {
			return fmt.Sprintf("The %s must not exceed %s characters.", in.name, in.param)
		}
		return ""
	},
	"gt":  bound(func(n, p float64) bool { return n > p }, "greater than"),
	"gte": bound(func(n, p float64) bool { return n >= p }, "greater than or equal to"),
	"lte": bound(func(n, p float64) bool { return n <= p }, "less than or equal to"),
	"in": func(in input) string {
		got := in.text()
		for _, opt := range strings.Split(in.param, ",") {
			if got == strings.TrimSpace(opt) {
				return ""
			}
		}
		return fmt.Sprintf("The selected %s is invalid.", in.name)
	},
	"confirmed": func(in input) string {
		other := in.name + "_confirmation"
		if base, ok := strings.CutSuffix(in.name, "_confirmation"); ok {
			other = base
		}
		if i, ok := fieldIndex(in.owner.Type(), other); ok && fmt.Sprint(in.owner.Field(i).Interface()) == in.text() {
			return ""
		}
		return fmt.Sprintf("The %s confirmation does not match.", in.name)
	},
}

func bound(ok func(n, p float64) bool, phrase string) checkFunc {
	return func(in input) string {
		if ok(in.number(), atof(in.param)) {
			return ""
		}
		return fmt.Sprintf("The %s must be %s %s.", in.name, phrase, in.param)
	}
}

func requiredMsg(name string) string { return fmt.Sprintf("The %s field is required.", name) }

// ── struct plans ─────────────────────────────────────────────────────

type rule struct {
	param string
	check checkFunc
}

type field struct {
	index    int
	name     string
	required bool
	nullable bool
	rules    []rule
}

var plans sync.Map // reflect.Type -> []field

func planFor(t reflect.Type) []field {
	if p, ok := plans.Load(t); ok {
		return p.([]field)
	}
	var out []field
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag := sf.Tag.Get("validate")
		if tag == "" || !sf.IsExported() {
			continue
		}
		f := field{index: i, name: fieldName(sf)}
		for _, part := range parseTag(tag) {
			key, param, _ := strings.Cut(part, "=")
			switch key {
			case "nullable":
				f.nullable = true
				continue
			case "required":
				f.required = true
			}
			if c, ok := checks[key]; ok {
				f.rules = append(f.rules, rule{param: param, check: c})
			}
		}
		out = append(out, f)
	}
	p, _ := plans.LoadOrStore(t, out)
	return p.([]field)
}

// parseTag splits on commas but keeps the options of in= together:
// "required,in=1,2,max=3" gives [required in=1,2 max=3].
func parseTag(tag string) []string {
	var parts []string
	for _, p := range strings.Split(tag, ",") {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		key, _, _ := strings.Cut(p, "=")
		_, known := checks[key]
		if n := len(parts); n > 0 && strings.HasPrefix(parts[n-1], "in=") && !known && key != "nullable" {
			parts[n-1] += "," + p
			continue
		}
		parts = append(parts, p)
	}
	return parts
}

func fieldName(sf reflect.StructField) string {
	for _, key := range []string{"json", "form"} {
		if name, _, _ := strings.Cut(sf.Tag.Get(key), ","); name != "" && name != "-" {
			return name
		}
	}
	return strings.ToLower(sf.Name)
}

func fieldIndex(t reflect.Type, name string) (int, bool) {
	for i := 0; i < t.NumField(); i++ {
		if fieldName(t.Field(i)) == name {
			return i, true
		}
	}
	return 0, false
}

func blank(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return strings.TrimSpace(v.String()) == ""
	case reflect.Slice, reflect.Map, reflect.Array:
		return v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	case reflect.Bool, reflect.Struct:
		return false
	}
	return v.IsZero()
}

func atof(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

// ── dates ────────────────────────────────────────────────────────────

// DateLayouts are accepted by the date rule and ParseDate.
var DateLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

// ParseDate parses s in local time using the first layout that fits.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range DateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as date", s)
}

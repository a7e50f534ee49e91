package httputil

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// GetPathVars returns the mux path variables for the request
func GetPathVars(r *http.Request) map[string]string {
	return mux.Vars(r)
}

// ParsePathInt extracts and parses an integer path parameter
func ParsePathInt(r *http.Request, key string) (int, error) {
	str := mux.Vars(r)[key]
	if str == "" {
		return 0, fmt.Errorf("missing path parameter: %s", key)
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %s", key, str)
	}
	return val, nil
}

// RequireFormValues parses the request form and checks that every named
// field is present and non-empty. Returns the first missing field name.
func RequireFormValues(r *http.Request, fields ...string) (map[string]string, string) {
	if err := r.ParseForm(); err != nil {
		return nil, fields[0]
	}
	values := make(map[string]string, len(fields))
	for _, f := range fields {
		v := r.PostFormValue(f)
		if v == "" {
			return nil, f
		}
		values[f] = v
	}
	return values, ""
}

package json

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/medscribe/backend/pkg/errors"
)

func ParseJSON(r *http.Request, model any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}

	return json.NewDecoder(r.Body).Decode(model)
}

func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)

	return json.NewEncoder(w).Encode(v)
}

// WriteError writes the typed error response for err, masking non-AppErrors
// as internal failures.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, errors.Status(err), errors.Response(err))
}

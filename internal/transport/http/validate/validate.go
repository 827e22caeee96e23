package validate

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
)

const maxJSONBytes = 4 << 20

// DecodeJSON decodes one JSON value. Unknown fields are rejected and so is trailing data.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("multiple JSON values")
	}
	return nil
}

var uidRe = regexp.MustCompile(`^[0-9]{1,32}$`)

// IsUID reports whether s looks like a campaign uid.
func IsUID(s string) bool {
	return uidRe.MatchString(s)
}

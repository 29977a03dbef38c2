package telegram

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Payload is the identity assertion produced by the Telegram Login Widget.
// Optional fields are nil when Telegram did not send them; only present
// fields take part in the data-check string.
type Payload struct {
	ID        int64
	FirstName string
	LastName  *string
	Username  *string
	PhotoURL  *string
	AuthDate  int64
	Hash      string
}

// wirePayload mirrors the request shape so missing required fields can be
// told apart from zero values.
type wirePayload struct {
	ID        *int64  `json:"id" validate:"required"`
	FirstName *string `json:"first_name" validate:"required"`
	LastName  *string `json:"last_name"`
	Username  *string `json:"username"`
	PhotoURL  *string `json:"photo_url"`
	AuthDate  *int64  `json:"auth_date" validate:"required"`
	Hash      *string `json:"hash" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return v
}

// DecodeJSON reads a POST body into a Payload.
func DecodeJSON(r io.Reader) (Payload, error) {
	var w wirePayload
	if err := json.NewDecoder(r).Decode(&w); err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return w.payload()
}

// ParseQuery reads the widget redirect query string into a Payload.
func ParseQuery(q url.Values) (Payload, error) {
	var w wirePayload
	var err error
	if w.ID, err = queryInt(q, "id"); err != nil {
		return Payload{}, err
	}
	if w.AuthDate, err = queryInt(q, "auth_date"); err != nil {
		return Payload{}, err
	}
	w.FirstName = queryString(q, "first_name")
	w.LastName = queryString(q, "last_name")
	w.Username = queryString(q, "username")
	w.PhotoURL = queryString(q, "photo_url")
	w.Hash = queryString(q, "hash")
	return w.payload()
}

func (w wirePayload) payload() (Payload, error) {
	if err := validate.Struct(w); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			missing := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				missing = append(missing, fe.Field())
			}
			return Payload{}, fmt.Errorf("%w: missing %s", ErrInvalidPayload, strings.Join(missing, ", "))
		}
		return Payload{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return Payload{
		ID:        *w.ID,
		FirstName: *w.FirstName,
		LastName:  w.LastName,
		Username:  w.Username,
		PhotoURL:  w.PhotoURL,
		AuthDate:  *w.AuthDate,
		Hash:      *w.Hash,
	}, nil
}

func queryString(q url.Values, key string) *string {
	if !q.Has(key) {
		return nil
	}
	v := q.Get(key)
	return &v
}

func queryInt(q url.Values, key string) (*int64, error) {
	if !q.Has(key) {
		return nil, nil
	}
	n, err := strconv.ParseInt(q.Get(key), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not an integer", ErrInvalidPayload, key)
	}
	return &n, nil
}

// fields returns every signed field as its wire string form.
func (p Payload) fields() map[string]string {
	f := map[string]string{
		"id":         strconv.FormatInt(p.ID, 10),
		"first_name": p.FirstName,
		"auth_date":  strconv.FormatInt(p.AuthDate, 10),
	}
	if p.LastName != nil {
		f["last_name"] = *p.LastName
	}
	if p.Username != nil {
		f["username"] = *p.Username
	}
	if p.PhotoURL != nil {
		f["photo_url"] = *p.PhotoURL
	}
	return f
}

// DataCheckString is the canonical string Telegram signs: key=value lines
// sorted by key, joined with "\n".
func (p Payload) DataCheckString() string {
	f := p.fields()
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + "=" + f[k]
	}
	return strings.Join(lines, "\n")
}

// DisplayName joins first and last name with a single space.
func (p Payload) DisplayName() string {
	last := ""
	if p.LastName != nil {
		last = *p.LastName
	}
	return strings.TrimSpace(p.FirstName + " " + last)
}

func (p Payload) username() string {
	if p.Username == nil {
		return ""
	}
	return *p.Username
}

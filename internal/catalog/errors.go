package catalog

import (
	"errors"
	"fmt"
	"strings"

	"auto3d/internal/services"
)

// ErrProductNotFound is returned by GetProduct when the id resolves to nothing.
var ErrProductNotFound = errors.New("product not found")

// invalidModelURLHint is appended when Shopify rejects the staged resource URL.
const invalidModelURLHint = "ensure the resourceUrl comes from the same stagedUploadsCreate call, the filename ends with .glb, and the mime type is model/gltf-binary"

// APIError reports a non-2xx HTTP response.
type APIError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 300 {
		body = body[:300] + "..."
	}
	if body == "" {
		return fmt.Sprintf("%s: http %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: http %d: %s", e.Op, e.StatusCode, body)
}

func (e *APIError) Unwrap() error { return services.ErrExternalTool }

// GraphQLError reports a top-level GraphQL errors array.
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "graphql: " + strings.Join(e.Messages, "; ")
}

func (e *GraphQLError) Unwrap() error { return services.ErrExternalTool }

// UserError is a single mutation validation failure.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

func (u UserError) String() string {
	if len(u.Field) == 0 {
		return u.Message
	}
	return strings.Join(u.Field, ".") + ": " + u.Message
}

// UserErrors reports a non-empty userErrors (or mediaUserErrors) list.
type UserErrors struct {
	Op     string
	Errors []UserError
	Hint   string
}

func (e *UserErrors) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, ue := range e.Errors {
		parts = append(parts, ue.String())
	}
	msg := fmt.Sprintf("%s errors: %s", e.Op, strings.Join(parts, "; "))
	if e.Hint != "" {
		msg += " (hint: " + e.Hint + ")"
	}
	return msg
}

// Unwrap marks mutation rejections as validation failures.
func (e *UserErrors) Unwrap() error { return services.ErrValidation }

func newUserErrors(op string, errs []UserError) error {
	if len(errs) == 0 {
		return nil
	}
	ue := &UserErrors{Op: op, Errors: errs}
	for _, e := range errs {
		if strings.Contains(e.Message, "Invalid Model 3d url") {
			ue.Hint = invalidModelURLHint
			break
		}
	}
	return ue
}

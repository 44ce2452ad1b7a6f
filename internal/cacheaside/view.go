package cacheaside

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/models"
	apperrors "github.com/yinuo2001/CS6650-Final-Project-CQRS/pkg/errors"
)

// Encode projects doc onto the fields of view and serialises them as a JSON
// object with keys in the view's declared order. Counter fields are always
// integers; a missing counter encodes as 0.
func Encode(kind *models.Kind, view string, doc models.Document) ([]byte, error) {
	fields, ok := kind.ViewFields(view)
	if !ok {
		return nil, fmt.Errorf("cacheaside: unknown view %q for %s", view, kind.Name)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, field := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(field)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')

		var value any = doc[field]
		if kind.IsCounter(field) {
			value = doc.Int(field)
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("cacheaside: encode %s.%s: %w", kind.Name, field, err)
		}
		buf.Write(encoded)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// isObject reports whether payload decodes as a JSON object.
func isObject(payload []byte) bool {
	var probe map[string]json.RawMessage
	return json.Unmarshal(payload, &probe) == nil && probe != nil
}

// viewsContaining lists every view of kind, default included as "", whose
// projection carries field.
func viewsContaining(kind *models.Kind, field string) []string {
	var views []string
	for _, f := range kind.Public {
		if f == field {
			views = append(views, "")
			break
		}
	}
	return append(views, kind.ViewsWithField(field)...)
}

func resolve(entityType, id, view string) (*models.Kind, error) {
	kind, ok := models.LookupKind(entityType)
	if !ok {
		return nil, apperrors.NewBadRequest("URL is not correct")
	}
	if _, ok := kind.ViewFields(view); !ok {
		return nil, apperrors.NewBadRequest("URL is not correct")
	}
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.ErrMissingParameters
	}
	if strings.Contains(id, ":") {
		return nil, apperrors.NewBadRequest("Invalid id")
	}
	return kind, nil
}

// NotFound builds the 404 error reported for a missing entity of kind, for
// example "Post not found".
func NotFound(kind *models.Kind) *apperrors.AppError {
	name := kind.Name
	if name != "" {
		name = strings.ToUpper(name[:1]) + name[1:]
	}
	return apperrors.New(strings.ToUpper(kind.Name)+"_NOT_FOUND", name+" not found", http.StatusNotFound)
}

func viewLabel(view string) string {
	if view == "" {
		return "default"
	}
	return view
}

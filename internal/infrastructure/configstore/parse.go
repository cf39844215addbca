package configstore

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/lllypuk/statuswatch/internal/domain/status"
	"github.com/lllypuk/statuswatch/internal/domain/uuid"
)

// SkippedEntry is a configuration key that did not become an application.
type SkippedEntry struct {
	Key    string
	Reason string
}

// ParseConfiguration decodes a tenant configuration document. Only keys that
// are application ids with a schema-valid body are returned; everything else
// (contact info, legacy or broken entries) is reported as skipped.
func ParseConfiguration(r io.Reader, validator *EntryValidator) ([]status.ApplicationConfig, []SkippedEntry, error) {
	raw, err := jsonschema.UnmarshalJSON(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	// пустая конфигурация тенанта приходит как null
	if raw == nil {
		return []status.ApplicationConfig{}, nil, nil
	}

	doc, ok := raw.(map[string]any)
	if !ok {
		return nil, nil, fmt.Errorf("configuration is %T, expected an object", raw)
	}

	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	configs := make([]status.ApplicationConfig, 0, len(keys))
	var skipped []SkippedEntry
	for _, key := range keys {
		id, parseErr := uuid.ParseUUID(key)
		if parseErr != nil {
			skipped = append(skipped, SkippedEntry{Key: key, Reason: "not an application id"})
			continue
		}
		if err = validator.Validate(doc[key]); err != nil {
			skipped = append(skipped, SkippedEntry{Key: key, Reason: err.Error()})
			continue
		}

		entry, _ := doc[key].(map[string]any)
		configs = append(configs, status.ApplicationConfig{
			ID:          id,
			AppKey:      stringField(entry, "appKey"),
			Name:        strings.TrimSpace(stringField(entry, "name")),
			Description: stringField(entry, "description"),
			URL:         strings.TrimSpace(stringField(entry, "url")),
		})
	}
	return configs, skipped, nil
}

func stringField(entry map[string]any, name string) string {
	s, _ := entry[name].(string)
	return s
}

// wireApplication is the body of an UPDATE patch entry
type wireApplication struct {
	ID          string `json:"_id"`
	AppKey      string `json:"appKey"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
}

func toWire(cfg *status.ApplicationConfig) wireApplication {
	return wireApplication{
		ID:          cfg.ID.String(),
		AppKey:      cfg.AppKey,
		Name:        cfg.Name,
		Description: cfg.Description,
		URL:         cfg.URL,
	}
}

// patchBody is the configuration service PATCH payload
type patchBody struct {
	Operation string                     `json:"operation"`
	Update    map[string]wireApplication `json:"update,omitempty"`
	Property  string                     `json:"property,omitempty"`
}

func buildPatchBody(patch status.ConfigPatch) (patchBody, error) {
	if patch.Key == "" {
		return patchBody{}, fmt.Errorf("patch key is required")
	}

	switch patch.Operation {
	case status.PatchUpdate:
		if patch.Value == nil {
			return patchBody{}, fmt.Errorf("update patch for %s has no value", patch.Key)
		}
		return patchBody{
			Operation: string(patch.Operation),
			Update:    map[string]wireApplication{patch.Key: toWire(patch.Value)},
		}, nil
	case status.PatchDelete:
		return patchBody{Operation: string(patch.Operation), Property: patch.Key}, nil
	default:
		return patchBody{}, fmt.Errorf("unknown patch operation %q", patch.Operation)
	}
}

package session

import (
	"errors"
	"fmt"
	"strings"
)

// Model identifies the backend answer engine.
type Model string

const (
	ModelOpenAI Model = "openai"
	ModelOllama Model = "ollama"
)

// DefaultModel is selected when a session starts.
const DefaultModel = ModelOpenAI

// ErrUnknownModel is returned by ParseModel for ids outside the catalog.
var ErrUnknownModel = errors.New("unknown model")

var catalog = []Model{ModelOpenAI, ModelOllama}

// Models lists the catalog in display order.
func Models() []Model {
	return append([]Model(nil), catalog...)
}

// ParseModel maps a model id onto the catalog.
func ParseModel(id string) (Model, error) {
	candidate := Model(strings.ToLower(strings.TrimSpace(id)))
	for _, model := range catalog {
		if model == candidate {
			return model, nil
		}
	}
	return "", fmt.Errorf("%w %q (expected one of %s)", ErrUnknownModel, id, strings.Join(modelIDs(), ", "))
}

// DisplayName is the human-facing engine name.
func (m Model) DisplayName() string {
	switch m {
	case ModelOpenAI:
		return "GPT-4"
	case ModelOllama:
		return "Qwen2.5"
	default:
		return ""
	}
}

// Description is a one-line summary of the engine.
func (m Model) Description() string {
	switch m {
	case ModelOpenAI:
		return "OpenAI's latest model with advanced capabilities"
	case ModelOllama:
		return "Local Qwen2.5 with strong instruction following and reasoning"
	default:
		return ""
	}
}

// Next cycles through the catalog, wrapping around.
func (m Model) Next() Model {
	for i, model := range catalog {
		if model == m {
			return catalog[(i+1)%len(catalog)]
		}
	}
	return DefaultModel
}

func (m Model) String() string {
	return string(m)
}

func modelIDs() []string {
	ids := make([]string, 0, len(catalog))
	for _, model := range catalog {
		ids = append(ids, string(model))
	}
	return ids
}

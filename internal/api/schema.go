package api

// payloadSchema pairs a schema name with its JSON Schema definition.
// Structured payloads the engine renders directly are validated before
// decoding so a malformed server response surfaces as ErrInvalidPayload
// instead of a half-populated struct.
type payloadSchema struct {
	Name       string
	Definition map[string]any
}

var questionDefinition = map[string]any{
	"type":     "object",
	"required": []any{"id", "stem", "has_image", "category"},
	"properties": map[string]any{
		"id":        map[string]any{"type": "string", "minLength": 1},
		"stem":      map[string]any{"type": "string", "minLength": 1},
		"has_image": map[string]any{"type": "boolean"},
		"image_url": map[string]any{"type": "string"},
		"options": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []any{"label", "text"},
				"properties": map[string]any{
					"label": map[string]any{"type": "string", "minLength": 1},
					"text":  map[string]any{"type": "string"},
				},
			},
		},
		"category":    map[string]any{"type": "string"},
		"subcategory": map[string]any{"type": "string"},
		"difficulty":  map[string]any{"type": "string"},
	},
}

var nextQuestionSchema = &payloadSchema{
	Name: "next-question",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"session_complete":    map[string]any{"type": "boolean"},
			"questions_completed": map[string]any{"type": "integer", "minimum": 0},
			"total_questions":     map[string]any{"type": "integer", "minimum": 0},
			"question_number":     map[string]any{"type": "integer", "minimum": 0},
			"question":            questionDefinition,
		},
		// The payload is a union: either a question to serve or a
		// completion marker. A response carrying neither is malformed.
		"anyOf": []any{
			map[string]any{"required": []any{"question"}},
			map[string]any{
				"required": []any{"session_complete"},
				"properties": map[string]any{
					"session_complete": map[string]any{"const": true},
				},
			},
		},
	},
}

var answerResultSchema = &payloadSchema{
	Name: "answer-result",
	Definition: map[string]any{
		"type":     "object",
		"required": []any{"correct", "user_answer", "correct_answer", "solution_feedback"},
		"properties": map[string]any{
			"correct":        map[string]any{"type": "boolean"},
			"user_answer":    map[string]any{"type": "string"},
			"correct_answer": map[string]any{"type": "string"},
			"solution_feedback": map[string]any{
				"type":     "object",
				"required": []any{"approach"},
				"properties": map[string]any{
					"approach":  map[string]any{"type": "string"},
					"steps":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"principle": map[string]any{"type": "string"},
				},
			},
			"question_metadata": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"category":    map[string]any{"type": "string"},
					"subcategory": map[string]any{"type": "string"},
					"difficulty":  map[string]any{"type": "string"},
				},
			},
		},
	},
}

package personal

import (
	"context"
	"fmt"

	"github.com/nbdavies/ant/internal/tools"
)

// RegisterTools adds the learning tools so the model can write to the
// personal memory store mid-conversation.
func (s *Store) RegisterTools(r *tools.Registry) {
	r.Register(&tools.Tool{
		Name:        "record_personality_insight",
		Description: "Record a personality trait observed about the user (communication style, values, working style)",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"category": map[string]any{
					"type":        "string",
					"description": "Category like 'communication', 'working_style', 'values'",
				},
				"trait_name": map[string]any{
					"type":        "string",
					"description": "Specific trait name",
				},
				"trait_value": map[string]any{
					"type":        "string",
					"description": "The trait value or description",
				},
				"confidence": map[string]any{
					"type":        "number",
					"description": "Confidence level 0.0-1.0 (default 0.8)",
				},
				"notes": map[string]any{
					"type":        "string",
					"description": "Additional notes",
				},
			},
			"required": []string{"category", "trait_name", "trait_value"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			category := tools.StringArg(args, "category")
			name := tools.StringArg(args, "trait_name")
			value := tools.StringArg(args, "trait_value")
			if category == "" || name == "" || value == "" {
				return "", fmt.Errorf("category, trait_name, and trait_value are required")
			}

			err := s.RecordTrait(category, name, value,
				tools.FloatArg(args, "confidence", 0.8),
				tools.StringArg(args, "notes"))
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Recorded personality insight: %s = %s", name, value), nil
		},
	})

	r.Register(&tools.Tool{
		Name:        "record_personal_preference",
		Description: "Record a personal preference of the user, with optional reasoning",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"category": map[string]any{
					"type":        "string",
					"description": "Category like 'communication', 'tools', 'workflow'",
				},
				"preference_name": map[string]any{
					"type":        "string",
					"description": "Specific preference name",
				},
				"preference_value": map[string]any{
					"type":        "string",
					"description": "The preference value",
				},
				"reasoning": map[string]any{
					"type":        "string",
					"description": "Why this preference exists",
				},
				"confidence": map[string]any{
					"type":        "number",
					"description": "Confidence level 0.0-1.0 (default 0.8)",
				},
			},
			"required": []string{"category", "preference_name", "preference_value"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			category := tools.StringArg(args, "category")
			name := tools.StringArg(args, "preference_name")
			value := tools.StringArg(args, "preference_value")
			if category == "" || name == "" || value == "" {
				return "", fmt.Errorf("category, preference_name, and preference_value are required")
			}

			err := s.RecordPreference(category, name, value,
				tools.StringArg(args, "reasoning"),
				tools.FloatArg(args, "confidence", 0.8))
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("Recorded preference: %s = %s", name, value), nil
		},
	})

	r.Register(&tools.Tool{
		Name:        "record_conversation_insight",
		Description: "Record a free-text insight learned from this conversation",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"insight_type": map[string]any{
					"type":        "string",
					"description": "Type like 'preference', 'communication_style', 'goal'",
				},
				"insight": map[string]any{
					"type":        "string",
					"description": "The actual insight text",
				},
				"context": map[string]any{
					"type":        "string",
					"description": "Context where this was observed",
				},
				"confidence": map[string]any{
					"type":        "number",
					"description": "Confidence level 0.0-1.0 (default 0.8)",
				},
			},
			"required": []string{"insight_type", "insight"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			insightType := tools.StringArg(args, "insight_type")
			text := tools.StringArg(args, "insight")
			if insightType == "" || text == "" {
				return "", fmt.Errorf("insight_type and insight are required")
			}

			err := s.RecordInsight(insightType, text,
				tools.StringArg(args, "context"),
				tools.FloatArg(args, "confidence", 0.8))
			if err != nil {
				return "", err
			}
			return "Recorded conversation insight: " + text, nil
		},
	})

	r.Register(&tools.Tool{
		Name:        "update_relationship_context",
		Description: "Update how the assistant and user relate and communicate",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"context_type": map[string]any{
					"type":        "string",
					"description": "Type like 'communication', 'relationship', 'goals'",
				},
				"context_key": map[string]any{
					"type":        "string",
					"description": "Specific aspect",
				},
				"context_value": map[string]any{
					"type":        "string",
					"description": "How this aspect works",
				},
				"importance": map[string]any{
					"type":        "number",
					"description": "Importance 0.0-1.0 (default 0.8)",
				},
			},
			"required": []string{"context_type", "context_key", "context_value"},
		},
		Handler: func(ctx context.Context, args map[string]any) (string, error) {
			contextType := tools.StringArg(args, "context_type")
			key := tools.StringArg(args, "context_key")
			value := tools.StringArg(args, "context_value")
			if contextType == "" || key == "" || value == "" {
				return "", fmt.Errorf("context_type, context_key, and context_value are required")
			}

			err := s.UpdateContext(contextType, key, value,
				tools.FloatArg(args, "importance", 0.8))
			if err != nil {
				return "", err
			}
			return "Updated relationship context: " + key, nil
		},
	})
}

package model

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cipherwebllc/eliza/core"
)

// GenerateText performs one raw generation call. An empty context returns
// an empty string without touching the provider.
func GenerateText(ctx context.Context, g Generator, req Request) (string, error) {
	if req.Context == "" {
		return "", nil
	}
	return g.Generate(ctx, req)
}

// GenerateTrueOrFalse asks the model a yes/no question and retries under
// the policy until the reply parses as a boolean. Unparseable output is
// treated as "no answer yet", not as a distinct error path.
func GenerateTrueOrFalse(ctx context.Context, g Generator, log zerolog.Logger, policy RetryPolicy, context_ string) (bool, error) {
	var result bool
	err := policy.retry(ctx, func() error {
		response, err := GenerateText(ctx, g, Request{
			Context: context_,
			Class:   core.ModelClassSmall,
			Stop:    []string{"\n"},
		})
		if err != nil {
			log.Warn().Err(err).Msg("generate true/false failed, retrying")
			return err
		}
		value, ok := ParseBooleanFromText(response)
		if !ok {
			log.Debug().Str("response", response).Msg("boolean did not parse, retrying")
			return ErrNoAnswer
		}
		result = value
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("generate true/false: %w", err)
	}
	return result, nil
}

// GenerateTextArray asks for a JSON string array and retries until one
// parses.
func GenerateTextArray(ctx context.Context, g Generator, log zerolog.Logger, policy RetryPolicy, context_ string) ([]string, error) {
	if context_ == "" {
		return nil, nil
	}

	var result []string
	err := policy.retry(ctx, func() error {
		response, err := GenerateText(ctx, g, Request{
			Context: context_,
			Class:   core.ModelClassSmall,
		})
		if err != nil {
			log.Warn().Err(err).Msg("generate array failed, retrying")
			return err
		}
		parsed := ParseJSONArrayFromText(response)
		if parsed == nil {
			log.Debug().Str("response", response).Msg("array did not parse, retrying")
			return ErrNoAnswer
		}
		result = parsed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generate text array: %w", err)
	}
	return result, nil
}

// GenerateMessageResponse asks for a JSON response object (text plus an
// optional action) and retries until one parses.
func GenerateMessageResponse(ctx context.Context, g Generator, log zerolog.Logger, policy RetryPolicy, context_ string, class core.ModelClass) (*core.Content, error) {
	var result *core.Content
	err := policy.retry(ctx, func() error {
		response, err := GenerateText(ctx, g, Request{Context: context_, Class: class})
		if err != nil {
			log.Warn().Err(err).Msg("generate message response failed, retrying")
			return err
		}
		obj := ParseJSONObjectFromText(response)
		if obj == nil {
			log.Debug().Str("response", response).Msg("response did not parse, retrying")
			return ErrNoAnswer
		}
		content := &core.Content{}
		if text, ok := obj["text"].(string); ok {
			content.Text = text
		}
		if action, ok := obj["action"].(string); ok {
			content.Action = action
		}
		if content.Text == "" {
			return ErrNoAnswer
		}
		result = content
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("generate message response: %w", err)
	}
	return result, nil
}

// TrimContext bounds a prompt to maxChars, keeping the tail: recent
// conversation matters more than the oldest lines.
func TrimContext(s string, maxChars int) string {
	if maxChars <= 0 || len(s) <= maxChars {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[len(runes)-maxChars:])
}

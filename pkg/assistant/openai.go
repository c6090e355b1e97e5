package assistant

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openAICompleter struct {
	client openai.Client
	model  openai.ChatModel
}

// NewOpenAICompleter builds a Completer backed by the OpenAI chat
// completions API.
func NewOpenAICompleter(apiKey, model string) Completer {
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	return &openAICompleter{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModel(model),
	}
}

// Complete implements Completer.
func (o *openAICompleter) Complete(ctx context.Context, msgs []Message) (string, error) {
	converted := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		converted = append(converted, convertToOpenaiMsg(msg))
	}

	chatCompletion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: converted,
		Model:    o.model,
	})
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if len(chatCompletion.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return chatCompletion.Choices[0].Message.Content, nil
}

func convertToOpenaiMsg(msg Message) openai.ChatCompletionMessageParamUnion {
	switch msg.MsgRole {
	case ASSISTANT:
		return openai.AssistantMessage(msg.Content)
	case SYSTEM:
		return openai.SystemMessage(msg.Content)
	}
	return openai.UserMessage(msg.Content)
}

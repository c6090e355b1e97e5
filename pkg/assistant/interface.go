// Package assistant is a thin chat-completion client shared by the
// components that need a one-shot text answer from a language model.
package assistant

import (
	"context"
)

type Role string

const (
	USER      Role = "user"
	ASSISTANT Role = "assistant"
	SYSTEM    Role = "system"
)

type Message struct {
	MsgRole Role
	Content string
}

// Completer produces a single completion for a message sequence.
type Completer interface {
	Complete(ctx context.Context, msgs []Message) (string, error)
}

func UserMessage(content string) Message      { return Message{MsgRole: USER, Content: content} }
func SystemMessage(content string) Message    { return Message{MsgRole: SYSTEM, Content: content} }
func AssistantMessage(content string) Message { return Message{MsgRole: ASSISTANT, Content: content} }

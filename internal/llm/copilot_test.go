package llm

import (
	"errors"
	"testing"

	copilot "github.com/github/copilot-sdk/go"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestCopilotClient_Invoke(t *testing.T) {
	ctrl := gomock.NewController(t)
	clientMock := NewMockcopilotClient(ctrl)
	sessionMock := NewMockcopilotSession(ctrl)

	var handler copilot.SessionEventHandler
	unregisterCount := 0

	clientMock.EXPECT().Start(gomock.Any())
	clientMock.EXPECT().CreateSession(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, cfg *copilot.SessionConfig) (copilotSession, error) {
			require.Equal(t, "gpt-4o-mini", cfg.Model)
			return sessionMock, nil
		}).Times(2)
	sessionMock.EXPECT().On(gomock.Any()).DoAndReturn(func(h copilot.SessionEventHandler) func() {
		handler = h
		return func() { unregisterCount++ }
	}).Times(2)
	sessionMock.EXPECT().SendAndWait(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, opts copilot.MessageOptions) (*copilot.SessionEvent, error) {
			require.Contains(t, opts.Prompt, "system text")
			require.Contains(t, opts.Prompt, "write a hosted service")
			content := "Here is the code."
			handler(copilot.SessionEvent{Type: copilot.AssistantMessage, Data: copilot.Data{Content: &content}})
			return &copilot.SessionEvent{}, nil
		}).Times(2)

	c := newCopilotClientWith(clientMock)
	req := &Request{
		Model:    "gpt-4o-mini",
		Messages: []Message{SystemMessage("system text"), UserMessage("write a hosted service")},
	}

	for range 2 {
		resp, err := c.Invoke(t.Context(), req)
		require.NoError(t, err)
		require.Equal(t, "Here is the code.", resp.Text)
		require.Positive(t, resp.Usage.PromptTokens)
	}
	require.Equal(t, 2, unregisterCount)
}

func TestCopilotClient_RejectsTools(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := newCopilotClientWith(NewMockcopilotClient(ctrl))

	_, err := c.Invoke(t.Context(), &Request{Tools: []Tool{{Name: "invoke_skill"}}})
	require.ErrorIs(t, err, ErrToolsUnsupported)
}

func TestCopilotClient_StartFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	clientMock := NewMockcopilotClient(ctrl)
	clientMock.EXPECT().Start(gomock.Any()).Return(errors.New("no cli"))

	c := newCopilotClientWith(clientMock)
	_, err := c.Invoke(t.Context(), &Request{Messages: []Message{UserMessage("x")}})
	require.ErrorContains(t, err, "no cli")
}

func TestFlattenPrompt(t *testing.T) {
	got := flattenPrompt(&Request{
		JSON: true,
		Messages: []Message{
			SystemMessage("sys"),
			UserMessage("question"),
			{Role: RoleAssistant, Content: "answer"},
		},
	})
	require.Equal(t, "sys\n\nquestion\n\n[assistant]\nanswer\n\nRespond with a single JSON object and nothing else.", got)
}

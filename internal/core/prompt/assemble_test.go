package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdelbosspie/smartifyai-server/internal/models"
)

func chatbot() AgentView {
	return AgentView{Name: "Ada", Type: "Chatbot", Language: "English", Model: "gpt-4o-mini"}
}

func TestAssemblePromptSystemFirst(t *testing.T) {
	msgs := AssemblePrompt(chatbot(), "", nil, "hi")

	require.NotEmpty(t, msgs)
	assert.Equal(t, models.RoleSystem, msgs[0].Role)
}

func TestAssemblePromptPersona(t *testing.T) {
	msgs := AssemblePrompt(chatbot(), "", nil, "hi")
	assert.Contains(t, msgs[0].Content, "You are Ada, a helpful chatbot.")

	voice := AgentView{Name: "Vox", Type: "Voice", Language: "auto"}
	msgs = AssemblePrompt(voice, "", nil, "hi")
	assert.Contains(t, msgs[0].Content, "You are Vox, a helpful voice.")
}

func TestAssemblePromptOmitsEmptySections(t *testing.T) {
	msgs := AssemblePrompt(chatbot(), "", nil, "hi")

	assert.NotContains(t, msgs[0].Content, "Custom instructions:")
	assert.NotContains(t, msgs[0].Content, "Knowledge base:")
}

func TestAssemblePromptInstructionsAndKnowledge(t *testing.T) {
	agent := chatbot()
	agent.Instructions = "Be brief."
	msgs := AssemblePrompt(agent, "### Note\nHello", nil, "hi")

	assert.Contains(t, msgs[0].Content, "Custom instructions:\nBe brief.")
	assert.Contains(t, msgs[0].Content, "Knowledge base:\n### Note\nHello")
}

func TestAssemblePromptFixedLanguage(t *testing.T) {
	msgs := AssemblePrompt(chatbot(), "", nil, "hi")
	assert.True(t, strings.HasSuffix(msgs[0].Content, "Always reply in English."))
}

func TestAssemblePromptAutoLanguage(t *testing.T) {
	agent := chatbot()
	agent.Language = "auto"
	msgs := AssemblePrompt(agent, "", nil, "hi")

	assert.Contains(t, msgs[0].Content, "same language the user writes in")
	assert.NotContains(t, msgs[0].Content, "Always reply in")
}

func TestAssemblePromptHistoryOrder(t *testing.T) {
	history := []models.Message{
		{Role: models.RoleUser, Content: "A"},
		{Role: models.RoleAssistant, Content: "B"},
	}
	msgs := AssemblePrompt(chatbot(), "", history, "C")

	require.Len(t, msgs, 4)
	assert.Equal(t, models.Message{Role: models.RoleUser, Content: "A"}, msgs[1])
	assert.Equal(t, models.Message{Role: models.RoleAssistant, Content: "B"}, msgs[2])
	assert.Equal(t, models.Message{Role: models.RoleUser, Content: "C"}, msgs[3])
}

func TestAssemblePromptCoercesUnknownRoles(t *testing.T) {
	history := []models.Message{{Role: models.RoleSystem, Content: "stored system row"}}
	msgs := AssemblePrompt(chatbot(), "", history, "hi")

	assert.Equal(t, models.RoleUser, msgs[1].Role)
}

func TestAssemblePromptMultipleIncoming(t *testing.T) {
	msgs := AssemblePrompt(chatbot(), "", nil, "first", "second")

	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[1].Content)
	assert.Equal(t, "second", msgs[2].Content)
	assert.Equal(t, models.RoleUser, msgs[2].Role)
}

func TestAssemblePromptMissingFieldsDegrade(t *testing.T) {
	msgs := AssemblePrompt(AgentView{}, "", nil, "hi")

	require.Len(t, msgs, 2)
	assert.Equal(t, models.RoleSystem, msgs[0].Role)
	assert.Equal(t, "", msgs[0].Content)
}

func TestAssemblePromptIdempotent(t *testing.T) {
	agent := chatbot()
	agent.Instructions = "Stay on topic."
	history := []models.Message{{Role: models.RoleUser, Content: "A"}}

	first := AssemblePrompt(agent, "ctx", history, "B")
	second := AssemblePrompt(agent, "ctx", history, "B")
	assert.Equal(t, first, second)
}

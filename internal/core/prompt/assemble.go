package prompt

import (
	"strings"

	"github.com/Abdelbosspie/smartifyai-server/internal/models"
)

// AgentView is the slice of an agent the assembler needs.
type AgentView struct {
	Name         string
	Type         string
	Instructions string
	Language     string
	Model        string
}

// View projects a stored agent onto the fields the assembler reads.
func View(a *models.Agent) AgentView {
	if a == nil {
		return AgentView{}
	}
	return AgentView{
		Name:         a.Name,
		Type:         a.Type,
		Instructions: a.Prompt,
		Language:     a.Language,
		Model:        a.Model,
	}
}

// AssemblePrompt produces the ordered message list for the provider:
// one system message (persona, custom instructions, knowledge block,
// language directive), then the stored history oldest-first, then the
// incoming user message(s). Missing agent fields degrade to omitted
// prompt sections; the function never fails.
func AssemblePrompt(agent AgentView, knowledgeContext string, history []models.Message, incoming ...string) []models.Message {
	out := make([]models.Message, 0, len(history)+len(incoming)+1)
	out = append(out, models.Message{
		Role:    models.RoleSystem,
		Content: systemMessage(agent, knowledgeContext),
	})

	for _, m := range history {
		role := m.Role
		if role != models.RoleUser && role != models.RoleAssistant {
			role = models.RoleUser
		}
		out = append(out, models.Message{Role: role, Content: m.Content})
	}

	for _, content := range incoming {
		out = append(out, models.Message{Role: models.RoleUser, Content: content})
	}
	return out
}

func systemMessage(agent AgentView, knowledgeContext string) string {
	var parts []string

	if name := strings.TrimSpace(agent.Name); name != "" {
		kind := strings.ToLower(strings.TrimSpace(agent.Type))
		if kind == "" {
			kind = "assistant"
		}
		parts = append(parts, "You are "+name+", a helpful "+kind+".")
	}

	if instr := strings.TrimSpace(agent.Instructions); instr != "" {
		parts = append(parts, "Custom instructions:\n"+instr)
	}

	if knowledgeContext != "" {
		parts = append(parts, "Knowledge base:\n"+knowledgeContext)
	}

	if directive := languageDirective(agent.Language); directive != "" {
		parts = append(parts, directive)
	}

	return strings.Join(parts, "\n\n")
}

// languageDirective maps the agent's language setting to a reply-language
// instruction. "auto" and "Multilingual" are sentinels for mirroring the
// user's language.
func languageDirective(language string) string {
	lang := strings.TrimSpace(language)
	switch {
	case lang == "":
		return ""
	case strings.EqualFold(lang, "auto") || strings.EqualFold(lang, "Multilingual"):
		return "Reply in the same language the user writes in. If the user's language is unclear, reply in English."
	default:
		return "Always reply in " + lang + "."
	}
}

package generator

import (
	"fmt"
	"strings"
	"time"
)

// Prompt 表示发送给 LLM 的消息集合。
type Prompt struct {
	System   string
	History  []Message
	Reminder string
}

// PromptContext is everything a generation call sees. Instruction overrides
// the mode's default first instruction when set.
type PromptContext struct {
	Question    string
	History     []Message
	Instruction string
}

const closingReminder = "Answer the user's question above using the required format."

// DraftInstruction 生成首稿指令。
func DraftInstruction(words int) string {
	return fmt.Sprintf("Provide a detailed ~%d words answer.", words)
}

// RevisionInstruction 生成修订指令（带引用，字数上限不变）。
func RevisionInstruction(words int) string {
	var sb strings.Builder
	sb.WriteString("Revise your previous answer using the new information.\n")
	sb.WriteString("    - You should use the previous critique to add important information to your answer.\n")
	sb.WriteString("        - You MUST include numerical citations in your revised answer to ensure it can be verified.\n")
	sb.WriteString("        - Add a \"References\" section to the bottom of your answer (which does not count towards the word limit). In form of:\n")
	sb.WriteString("            - [1] https://example.com\n")
	sb.WriteString("            - [2] https://example.com\n")
	sb.WriteString(fmt.Sprintf("    - You should use the previous critique to remove superfluous information from your answer and make SURE it is not more than %d words.\n", words))
	return sb.String()
}

// BuildPrompt 生成研究员提示词，历史消息原样附带。
func BuildPrompt(instruction string, history []Message, now time.Time) Prompt {
	var sb strings.Builder
	sb.WriteString("You are an expert researcher.\n")
	sb.WriteString(fmt.Sprintf("Current time: %s\n\n", now.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("1. %s\n", strings.TrimSpace(instruction)))
	sb.WriteString("2. Reflect and critique your answer. Be severe to maximize improvement.\n")
	sb.WriteString("3. Recommend search queries to search information and improve your answer.")

	return Prompt{
		System:   sb.String(),
		History:  history,
		Reminder: closingReminder,
	}
}

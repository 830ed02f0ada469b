package classifier

import (
	"fmt"
	"strings"

	"github.com/teplocom/support-triage/internal/knowledge"
)

// enrichmentTopK caps how many reference documents get spliced into the prompt.
const enrichmentTopK = 3

const promptTemplate = `%sТы - AI агент техподдержки. Проанализируй письмо и верни ТОЛЬКО JSON в формате:
{
    "full_name": "ФИО отправителя",
    "object_name": "название организации",
    "phone": "контактный телефон",
    "email": "email отправителя",
    "serial_numbers": "серийные номера приборов через запятую",
    "device_type": "модель или тип устройства",
    "sentiment": "тональность: positive/neutral/negative/urgent",
    "issue_summary": "краткое описание проблемы",
    "decision": "full_answer/need_more_info/escalate_to_human",
    "draft_reply": "проект ответа клиенту"
}

Правила decision:
- full_answer: вся информация есть, вопрос понятен
- need_more_info: не хватает данных (нет серийного номера или модели)
- escalate_to_human: вопрос сложный или клиент очень зол (negative/urgent)

Письмо:
Тема: %s
От: %s
Текст: %s

ВЕРНИ ТОЛЬКО JSON, БЕЗ пояснений.`

// buildPrompt renders the classification instruction, splicing in matched
// reference documents when any are available.
func buildPrompt(body, subject, sender string, docs []knowledge.Result) string {
	var context strings.Builder
	if len(docs) > 0 {
		context.WriteString("Похожие случаи из базы знаний:\n")
		for _, doc := range docs {
			fmt.Fprintf(&context, "--- %s ---\n%s\n\n", doc.Title, doc.Content)
		}
		context.WriteString("\n")
	}
	return fmt.Sprintf(promptTemplate, context.String(), subject, sender, body)
}

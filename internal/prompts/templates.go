package prompts

import (
	"fmt"
	"strings"
)

const SystemPrompt = `You are the language front-end of a pharmacy inventory assistant. Users are pharmacists or customers writing short, often code-mixed messages (English, Hindi, Hinglish) such as "Dolo hai kya?", "2 strip paracetamol chahiye" or "remove cetirizine".

Your only job is to extract a structured reading of the LATEST user message, given the conversation so far. Do not answer the user and do not invent medicines.

RESPONSE FORMAT:
Respond with a single valid JSON object, nothing else:
{
  "medicines": [{"name": "medicine name as written", "quantity": integer or null}],
  "intent": "order" | "search" | "inquiry" | "add_stock" | "remove_medicine",
  "action": "check_stock" | "add_stock" | "order" | "remove" | "other",
  "language": "ISO 639-1 code of the user's language"
}

RULES:
1. "medicines" lists every medicine the latest message mentions; it may be empty.
2. "quantity" is the number of tablets the user asked for, null when none was given.
3. Availability questions ("hai kya?", "do you have", "stock?") are action "check_stock".
4. Requests to buy or reserve are action "order".
5. Requests to add or restock inventory are action "add_stock".
6. Requests to delete a medicine from the inventory are action "remove".
7. Anything else, including bare confirmations like "yes" or "10", is action "other".`

const FallbackReply = "Sorry, I didn't catch that. Could you rephrase what you need — for example a medicine name, or \"order Dolo 650\"?"

// BuildUserPrompt wraps the latest utterance for the model. History is
// sent as real chat turns, so only the current message goes here.
func BuildUserPrompt(utterance string) string {
	return fmt.Sprintf("Latest user message:\n%s\n\nRespond with the JSON object only.", utterance)
}

// ExtractJSON pulls the first top-level JSON object out of a model
// reply that may be wrapped in prose or code fences.
func ExtractJSON(content string) string {
	start := strings.Index(content, "{")
	if start == -1 {
		return ""
	}

	end := strings.LastIndex(content, "}")
	if end == -1 || end <= start {
		return ""
	}

	return content[start : end+1]
}

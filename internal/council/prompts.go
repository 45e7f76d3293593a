package council

import (
	"fmt"
	"strings"
)

// buildRankingPrompt assembles the Stage 2 evaluation prompt. Answers
// appear under their anonymous labels only; backend identities never
// enter the prompt. Every evaluator receives the identical prompt,
// including the author of each answer.
func buildRankingPrompt(query string, responses []ModelResponse, labels LabelMap) string {
	var blocks []string
	for _, r := range responses {
		label, ok := labels.LabelFor(r.Backend)
		if !ok {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("%s:\n%s", label, r.Content))
	}

	var b strings.Builder
	b.WriteString("You are evaluating different responses to the following question:\n\n")
	fmt.Fprintf(&b, "Question: %s\n\n", query)
	b.WriteString("Here are the responses from different models (anonymized):\n\n")
	b.WriteString(strings.Join(blocks, "\n\n"))
	b.WriteString("\n\nYour task:\n")
	b.WriteString("1. First, evaluate each response individually. For each response, explain what it does well and what it does poorly.\n")
	b.WriteString("2. Then, at the very end of your response, provide a final ranking.\n\n")
	b.WriteString("IMPORTANT: Your final ranking MUST be formatted EXACTLY as follows:\n")
	b.WriteString("- Start with the line \"FINAL RANKING:\" (all caps, with colon)\n")
	b.WriteString("- Then list the responses from best to worst as a numbered list\n")
	b.WriteString("- Each line should be: number, period, space, then ONLY the response label (e.g., \"1. Response A\")\n")
	b.WriteString("- Do not add any other text or explanations in the ranking section\n\n")
	b.WriteString("Example of the correct format for your ENTIRE response:\n\n")
	b.WriteString("Response A provides good detail on X but misses Y...\n")
	b.WriteString("Response B is accurate but lacks depth on Z...\n")
	b.WriteString("Response C offers the most comprehensive answer...\n\n")
	b.WriteString("FINAL RANKING:\n1. Response C\n2. Response A\n3. Response B\n\n")
	b.WriteString("Now provide your evaluation and ranking:")
	return b.String()
}

// buildSynthesisPrompt assembles the Stage 3 chairman prompt. Unlike
// Stage 2 this is de-anonymized: the chairman sees which backend wrote
// which answer and critique.
func buildSynthesisPrompt(query string, responses []ModelResponse, evaluations []Evaluation) string {
	var stage1 []string
	for _, r := range responses {
		if !r.Usable() {
			continue
		}
		stage1 = append(stage1, fmt.Sprintf("Model: %s\nResponse: %s", r.Backend, r.Content))
	}

	var stage2 []string
	for _, e := range evaluations {
		if e.Failed {
			continue
		}
		stage2 = append(stage2, fmt.Sprintf("Model: %s\nRanking: %s", e.Evaluator, e.Raw))
	}

	var b strings.Builder
	b.WriteString("You are the Chairman of an LLM Council. Multiple AI models have provided responses to a user's question, and then ranked each other's responses.\n\n")
	fmt.Fprintf(&b, "Original Question: %s\n\n", query)
	b.WriteString("STAGE 1 - Individual Responses:\n")
	b.WriteString(strings.Join(stage1, "\n\n"))
	b.WriteString("\n\nSTAGE 2 - Peer Rankings:\n")
	b.WriteString(strings.Join(stage2, "\n\n"))
	b.WriteString("\n\nYour task as Chairman is to synthesize all of this information into a single, comprehensive, accurate answer to the user's original question. Consider:\n")
	b.WriteString("- The individual responses and their insights\n")
	b.WriteString("- The peer rankings and what they reveal about response quality\n")
	b.WriteString("- Any patterns of agreement or disagreement\n\n")
	b.WriteString("Provide a clear, well-reasoned final answer that represents the council's collective wisdom:")
	return b.String()
}

// buildTitlePrompt asks for a short conversation title from the first
// user message.
func buildTitlePrompt(query string) string {
	var b strings.Builder
	b.WriteString("Generate a very short title (3-5 words maximum) that summarizes the following question.\n")
	b.WriteString("The title should be concise and descriptive. Do not use quotes or punctuation in the title.\n\n")
	fmt.Fprintf(&b, "Question: %s\n\n", query)
	b.WriteString("Title:")
	return b.String()
}

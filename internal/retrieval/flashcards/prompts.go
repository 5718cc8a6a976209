package flashcards

import "fmt"

const systemPrompt = `You are a flashcard generator for educational content.
Create clear, concise question-and-answer flashcards based on the provided course content.

Guidelines:
- Each flashcard should have a clear question and a concise answer
- Questions should test understanding, not just recall
- Answers should be accurate and based ONLY on the provided content
- Avoid creating flashcards that are too similar to each other
- Focus on key concepts, definitions, processes, and important facts
- Keep answers brief but informative (2-4 sentences max)
- IMPORTANT: Ignore any reference citations, bibliography entries, or cited works. Focus only on the main content of the document itself.
- If the content appears to be from a references section, skip it and use other available content

Format your response as a JSON object with a "flashcards" key containing an array of objects, each with "question" and "answer" fields.`

func userPrompt(topic, context string, count int) string {
	return fmt.Sprintf(`Based on the following course content about '%[1]s', generate exactly %[3]d flashcards.

Course Content:
%[2]s

Topic: %[1]s

IMPORTANT:
- Focus on the MAIN CONTENT of the document, NOT on cited references or bibliography entries
- If asking about "authors", use the authors of THIS document/paper, not authors of cited works
- Ignore any citation patterns like [1], (Author, Year), or reference lists
- Use only information from the actual document content

Generate %[3]d diverse flashcards covering different aspects of this topic. Return ONLY a valid JSON object with a "flashcards" array, no other text.

Example format:
{
  "flashcards": [
    {"question": "What is X?", "answer": "X is..."},
    {"question": "How does Y work?", "answer": "Y works by..."}
  ]
}`, topic, context, count)
}

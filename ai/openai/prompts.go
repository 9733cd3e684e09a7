package openai

// summarySystemPrompt instructs the model to compress page content into a
// short, search-friendly summary. The output is indexed for keyword search
// and embedded for semantic search, so it should be dense with the page's
// own terminology.
const summarySystemPrompt = `You summarize web page content for a personal search index.

Rules:
- Write 2-4 plain sentences describing what the page is about.
- Keep the page's own key terms, names, and product identifiers.
- No preamble, no bullet points, no markdown formatting.
- If the content is empty or unintelligible, reply with an empty string.`

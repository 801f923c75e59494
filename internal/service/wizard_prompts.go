package service

const questionSchemaBlock = `Return ONLY a JSON object with this exact structure, no extra text:
{
  "questions": [
    {"id": "q1", "text": "Question text here", "options": ["Option 1", "Option 2", "Option 3"]}
  ]
}
Rules:
- "id" must be a short snake_case identifier, unique in the list.
- Every question must have between 2 and 5 short options.`

const personaQuestionsPrompt = `
Generate %d multiple-choice questions to understand a user's movie/anime watching preferences.
The FIRST question must ask whether they prefer anime or movies, and its id must be "content_type".
Cover genres they enjoy, preferred language of the content and how often they watch.

` + questionSchemaBlock

const moodQuestionsPrompt = `
Based on this user persona: %s

Generate %d multiple-choice questions to understand what kind of movie/show the user wants to watch right now.
Include questions about:
- Who they're watching with
- Their current mood
- Time available for watching
- Themes they're interested in
- Any other relevant factors

` + questionSchemaBlock

const recommendationSchemaBlock = `Return ONLY a JSON object in this format:
{
  "recommendations": [
    {
      "title": "Title here",
      "year": "Year here or null",
      "type": "movie/show/anime",
      "explanation": "Why this recommendation matches their preferences"
    }
  ]
}
"type" must be one of: movie, show, anime.`

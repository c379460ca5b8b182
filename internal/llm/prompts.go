package llm

const answerPrompt = `You are a business research assistant answering questions about trade, pricing, logistics and suppliers. Queries may be in Russian or English; answer in the language of the query.

Use the provided context if any. Cite concrete figures and sources where you can.

Context:
%s

Query: %s

Respond ONLY with JSON, no markdown fences:
{"text":"the answer","sources":["source name or url"]}

If you have no sources, use an empty array for sources.`

const extractClaimsPrompt = `Extract the independently verifiable factual claims from this answer.

Answer: %s

Rules:
- Each claim must be a single self-contained statement.
- Skip opinions, hedged statements and generic advice.
- At most 5 claims.

Respond ONLY with a JSON array of strings, no markdown, no explanation:
["claim one", "claim two"]

If there are no verifiable claims, respond with an empty array: []`

const verifyHypothesisPrompt = `Verify this claim against your knowledge and the listed sources.

Claim: %s
Sources: %s

Classify the verdict:
- "confirmed": the claim is supported
- "refuted": the claim is contradicted
- "uncertain": not enough information either way

Respond ONLY with JSON, no markdown fences:
{"verdict":"confirmed|refuted|uncertain","confidence":0.0,"evidence_for":["..."],"evidence_against":["..."],"reason":"brief explanation"}`

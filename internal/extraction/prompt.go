package extraction

// The prompt text and output schema below are a fixed contract versioned with
// the pipeline: renaming a field or a category bucket is a breaking change to
// the normalizer.

const promptVersion = "v1"

// systemInstruction establishes the assistant's role and output discipline.
const systemInstruction = "You are a municipal budget analyst. You extract financial figures " +
	"from government budget documents. You respond with JSON only: no prose, " +
	"no comments, no Markdown."

// extractionPrompt enumerates the exact output schema and field semantics.
const extractionPrompt = "Analyze the attached government budget document and extract its " +
	"top-line financial figures.\n\n" +
	"Return a single JSON object with exactly these fields:\n" +
	"- \"total_revenue\": number or null (total revenue in dollars)\n" +
	"- \"total_expenditure\": number or null (total expenditure in dollars)\n" +
	"- \"categories\": object with these keys, each a number or null:\n" +
	"    \"public_safety\", \"education\", \"health_welfare\", \"infrastructure\",\n" +
	"    \"general_government\", \"parks_recreation\", \"debt_service\", \"other\"\n" +
	"- \"confidence\": number between 0.0 and 1.0\n" +
	"- \"notes\": string or null (caveats about the extraction)\n" +
	"- \"fiscal_year\": string or null (e.g. \"FY2024\")\n\n" +
	"Rules:\n" +
	"- All amounts are in dollars, NOT thousands or millions. If the document\n" +
	"  reports figures in thousands, multiply by 1000.\n" +
	"- Use null for any figure you cannot determine. Never guess.\n" +
	"- Map the document's own spending categories onto the closest of the\n" +
	"  eight buckets above; put anything that fits none of them in \"other\".\n" +
	"- If the document is not a budget at all, set \"confidence\" to 0.\n" +
	"- Return ONLY raw JSON. Do not wrap the response in code fences.\n" +
	"- Output must begin with \"{\" and end with \"}\".\n"

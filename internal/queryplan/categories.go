package queryplan

import "github.com/crawlchat/crawlchat/internal/model"

// categoryRule is one row of the classification table: a category and the
// keyword set that selects it. Rows are checked in order, first match wins,
// mirroring the teacher's generateSelectorsForElement candidate-scoring
// tables in internal/parser/autoselector.go but collapsed to a single
// ordered pass instead of a score-then-sort.
type categoryRule struct {
	category model.QueryCategory
	keywords []string
	prompt   string
}

// categoryTable is ordered highest-priority first, exactly the precedence
// enumerated for the query planner: a query matching several keyword sets
// is classified by whichever set appears first here.
var categoryTable = []categoryRule{
	{
		category: model.CategoryConciseResponse,
		keywords: []string{"one line", "one-line", "briefly", "in short", "quick answer", "tl;dr", "tldr"},
		prompt:   "Answer in a single concise sentence using only the supplied document content.",
	},
	{
		category: model.CategoryTechnicalDocument,
		keywords: []string{"specification", "technical spec", "api reference", "architecture diagram", "schema"},
		prompt:   "You are assisting with a technical document. Answer precisely, quoting identifiers and values exactly as they appear.",
	},
	{
		category: model.CategoryLegalDocument,
		keywords: []string{"contract", "clause", "agreement", "liability", "indemnif", "terms and conditions", "statute", "regulation"},
		prompt:   "You are assisting with a legal document. Quote exact clause language where relevant and do not offer legal advice beyond the document's content.",
	},
	{
		category: model.CategoryEducationalContent,
		keywords: []string{"explain like", "eli5", "help me understand", "teach me", "what does it mean"},
		prompt:   "Explain the concept clearly and simply, as if teaching someone new to the subject, grounded in the supplied document content.",
	},
	{
		category: model.CategoryMarketCrashAnalysis,
		keywords: []string{"market crash", "crash of", "financial crisis", "stock market collapse", "bear market"},
		prompt:   "Analyze the market downturn described in the documents, covering causes, timeline, and aftermath.",
	},
	{
		category: model.CategoryStockPrediction,
		keywords: []string{"will the stock", "price target", "forecast", "predict the price", "future price"},
		prompt:   "Summarize what the documents say about future price expectations. Do not fabricate predictions the documents do not contain.",
	},
	{
		category: model.CategoryStockAnalysis,
		keywords: []string{"stock analysis", "valuation", "p/e ratio", "earnings per share", "fundamentals"},
		prompt:   "Provide a grounded analysis of the security using only figures present in the documents.",
	},
	{
		category: model.CategoryMarketEducation,
		keywords: []string{"what is a bond", "what is an etf", "how does the stock market work", "how do dividends work"},
		prompt:   "Explain the market concept in plain language, using the documents as the source of truth where they cover it.",
	},
	{
		category: model.CategoryInvestmentGuidance,
		keywords: []string{"should i invest", "should i buy", "is it a good investment", "portfolio allocation"},
		prompt:   "Summarize the relevant considerations from the documents. Make clear this is not personalized financial advice.",
	},
	{
		category: model.CategoryMarketResearch,
		keywords: []string{"market research", "industry report", "competitive landscape", "market size"},
		prompt:   "Synthesize the market research findings in the documents into a structured summary.",
	},
	{
		category: model.CategoryTechnicalAnalysis,
		keywords: []string{"moving average", "rsi", "support level", "resistance level", "candlestick", "macd"},
		prompt:   "Summarize the technical analysis signals described in the documents.",
	},
	{
		category: model.CategoryNewsAnalysis,
		keywords: []string{"news article", "breaking news", "press release", "according to the article"},
		prompt:   "Summarize the news content from the documents, attributing claims to their source where stated.",
	},
	{
		category: model.CategoryMultiYearCalculation,
		keywords: []string{"per year for", "years from now", "in 5 years", "in 10 years", "over the next", "compounded"},
		prompt:   "Perform the requested multi-year calculation step by step using figures found in the documents or the conversation so far.",
	},
	{
		category: model.CategoryCalculation,
		keywords: []string{"calculate", "how much is", "what percentage", "convert", "total cost", "how much would"},
		prompt:   "Perform the requested calculation step by step using figures found in the documents or the conversation so far.",
	},
	{
		category: model.CategorySummary,
		keywords: []string{"summarize", "summary", "overview", "key points", "tl;dr of"},
		prompt:   "Provide a structured summary of the relevant document content.",
	},
}

const generalPrompt = "Answer the user's question using only the supplied document content. If the documents do not contain the answer, say so plainly."

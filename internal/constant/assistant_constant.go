package constant

// Chat message roles as persisted.
const (
	ChatMessageRoleUser  = "user"
	ChatMessageRoleModel = "model"
)

// Greeting returned when a session is created.
const InitialAssistantGreeting = "Hi, I'm your sales research assistant. Ask me about our product, or ask me to research a company, market or prospect list."

// Reply used when the relevance filter turns a query away.
const RejectionReply = "I'm focused on sales and business research, so I can't help with that. I can answer questions about our product, analyze companies and markets, or help you find prospects."

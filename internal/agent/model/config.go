package model

// ================ Config ================

type ConversationConfig struct {
	TTL                string `envconfig:"CONVERSATION_TTL" default:"720h"`
	SummarizeThreshold int    `envconfig:"CONVERSATION_SUMMARIZE_THRESHOLD" default:"30"`
	TokenBudget        int    `envconfig:"CONVERSATION_TOKEN_BUDGET" default:"1000"`
	Tools              struct {
		MaxCalls int `envconfig:"CONVERSATION_TOOL_MAX_CALLS" default:"10"`
	}
}

type DispatchModelConfig struct {
	Model       string  `envconfig:"DISPATCH_MODEL" default:"gemini-2.5-flash"`
	MaxTokens   int     `envconfig:"DISPATCH_MAX_TOKENS" default:"4000"`
	Temperature float32 `envconfig:"DISPATCH_TEMPERATURE" default:"0"`
}

// AuxModelConfig configures the narrow single-prompt model used by the mood
// classifier, argument extractor and history summarizer.
type AuxModelConfig struct {
	Model       string  `envconfig:"AUX_MODEL" default:"gemini-2.5-flash-lite"`
	MaxTokens   int     `envconfig:"AUX_MAX_TOKENS" default:"2000"`
	Temperature float32 `envconfig:"AUX_TEMPERATURE" default:"0"`
}

// ToolsConfig holds the divination endpoints. All endpoints share one API key
// and receive it as a form field on every call.
type ToolsConfig struct {
	MingliKey string `envconfig:"TOOLS_MINGLI_KEY"`

	BaziURL      string `envconfig:"TOOLS_BAZI_URL"`
	HehunURL     string `envconfig:"TOOLS_HEHUN_URL"`
	JiuxingURL   string `envconfig:"TOOLS_JIUXING_URL"`
	ShengxiaoURL string `envconfig:"TOOLS_SHENGXIAO_URL"`
	WeilaiURL    string `envconfig:"TOOLS_WEILAI_URL"`
	ChengguURL   string `envconfig:"TOOLS_CHENGGU_URL"`
	JiemengURL   string `envconfig:"TOOLS_JIEMENG_URL"`
	ZeshiURL     string `envconfig:"TOOLS_ZESHI_URL"`
	QimingURL    string `envconfig:"TOOLS_QIMING_URL"`
	YaoguaURL    string `envconfig:"TOOLS_YAOGUA_URL"`

	SearchURL string `envconfig:"TOOLS_SEARCH_URL" default:"https://serpapi.com/search"`
	SearchKey string `envconfig:"TOOLS_SEARCH_KEY"`

	KnowledgeURL string `envconfig:"TOOLS_KNOWLEDGE_URL"`

	TimeoutSeconds int `envconfig:"TOOLS_TIMEOUT_SECONDS" default:"10"`
}

type SpeechConfig struct {
	Key         string `envconfig:"SPEECH_KEY"`
	Endpoint    string `envconfig:"SPEECH_ENDPOINT" default:"https://eastus.tts.speech.microsoft.com/cognitiveservices/v1"`
	Voice       string `envconfig:"SPEECH_VOICE" default:"zh-CN-YunzeNeural"`
	Role        string `envconfig:"SPEECH_ROLE" default:"SeniorMale"`
	Format      string `envconfig:"SPEECH_FORMAT" default:"audio-24khz-160kbitrate-mono-mp3"`
	UserAgent   string `envconfig:"SPEECH_USER_AGENT" default:"banxian-bot"`
	ArtifactTTL string `envconfig:"SPEECH_ARTIFACT_TTL" default:"24h"`

	TimeoutSeconds  int `envconfig:"SPEECH_TIMEOUT_SECONDS" default:"10"`
	PollIntervalMS  int `envconfig:"SPEECH_POLL_INTERVAL_MS" default:"1000"`
	PollMaxAttempts int `envconfig:"SPEECH_POLL_MAX_ATTEMPTS" default:"60"`

	AssetsURL string `envconfig:"SPEECH_ASSETS_URL"`
}

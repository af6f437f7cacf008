package modelrouter

// Pure selection logic over a static table of model configurations.
// No I/O happens here; the returned handle is resolved to a concrete
// llm.LLMProvider by the caller.

// Task types this router knows how to bias for.
const (
	TaskChat           = "chat"
	TaskClassification = "classification"
	TaskSummarization  = "summarization"
	TaskResearch       = "research"
	TaskSynthesis      = "synthesis"
	TaskPlanning       = "planning"
)

// Complexity buckets
const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
)

// Policy captures caller-side routing constraints for one request.
type Policy struct {
	ForceHighCapability  bool // overrides everything
	PrivateData          bool // prefer the high-capability provider family
	RequiresWebGrounding bool // prefer deep-research tuned configuration
}

// ModelProfile is static tuning for one (task, tier) configuration.
type ModelProfile struct {
	TaskAffinity      string  `json:"task_affinity"`
	Temperature       float64 `json:"temperature"`
	MaxTokens         int     `json:"max_tokens"`
	SupportsStreaming bool    `json:"supports_streaming"`
}

// ModelHandle identifies a concrete model plus its tuned profile.
type ModelHandle struct {
	Family  string // "fast" | "standard" | "high" | "deep-research"
	Model   string
	Profile ModelProfile
}

// Families
const (
	FamilyFast         = "fast"
	FamilyStandard     = "standard"
	FamilyHigh         = "high"
	FamilyDeepResearch = "deep-research"
)

// Config names the concrete model ids behind each family. Provider and
// vendor identity stay out of this layer on purpose.
type Config struct {
	FastModel         string
	StandardModel     string
	HighModel         string
	DeepResearchModel string
}

type Router struct {
	cfg Config
}

func NewRouter(cfg Config) *Router {
	return &Router{cfg: cfg}
}

// Route maps (taskType, complexity, policy) to a model handle.
// Deterministic precedence: ForceHighCapability > PrivateData >
// RequiresWebGrounding > per-task tuned profiles.
func (r *Router) Route(taskType, complexity string, policy Policy) ModelHandle {
	if policy.ForceHighCapability {
		return r.handle(FamilyHigh, r.cfg.HighModel, taskType, 0.7, 4096)
	}
	if policy.PrivateData {
		return r.handle(FamilyHigh, r.cfg.HighModel, taskType, 0.5, 4096)
	}
	if policy.RequiresWebGrounding {
		return r.handle(FamilyDeepResearch, r.cfg.DeepResearchModel, taskType, 0.4, 8192)
	}

	switch taskType {
	case TaskSummarization:
		// Low temperature, shorter output
		return r.handle(FamilyFast, r.cfg.FastModel, taskType, 0.2, 512)
	case TaskClassification:
		return r.handle(FamilyFast, r.cfg.FastModel, taskType, 0.0, 256)
	case TaskPlanning:
		return r.handle(FamilyStandard, r.cfg.StandardModel, taskType, 0.3, 1024)
	case TaskResearch, TaskSynthesis:
		if complexity == ComplexityHigh {
			return r.handle(FamilyHigh, r.cfg.HighModel, taskType, 0.4, 8192)
		}
		return r.handle(FamilyStandard, r.cfg.StandardModel, taskType, 0.4, 4096)
	default: // TaskChat
		if complexity == ComplexityHigh {
			return r.handle(FamilyStandard, r.cfg.StandardModel, taskType, 0.7, 2048)
		}
		// Fast, low-latency profile for simple chat
		return r.handle(FamilyFast, r.cfg.FastModel, taskType, 0.7, 1024)
	}
}

func (r *Router) handle(family, model, task string, temp float64, maxTokens int) ModelHandle {
	return ModelHandle{
		Family: family,
		Model:  model,
		Profile: ModelProfile{
			TaskAffinity:      task,
			Temperature:       temp,
			MaxTokens:         maxTokens,
			SupportsStreaming: family != FamilyFast,
		},
	}
}

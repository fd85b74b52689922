// Package model defines the shared data-model vocabulary used across every
// other package: registries, the chat graph, the vector store engine, and
// the testbed runner all import these types instead of each other, which is
// what keeps ClientSettings -> Model -> CloudAuthProfile references acyclic
// (they resolve by name at use-time, never by pointer).
package model

import "time"

// ModelKind distinguishes a language model from an embedding model.
type ModelKind string

const (
	ModelKindLanguage  ModelKind = "language"
	ModelKindEmbedding ModelKind = "embedding"
)

// Provider identifies the wire protocol / vendor a ModelDescriptor speaks.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderBedrock   Provider = "bedrock"
	ProviderCohere    Provider = "cohere"
	ProviderPerplexity Provider = "perplexity"
	ProviderOllama    Provider = "ollama"
	ProviderOnPremVLLM Provider = "on_prem_vllm"
	ProviderOnPremHF  Provider = "on_prem_hf"
	ProviderOCIGenAI  Provider = "oci_genai"
)

// ModelDescriptor is one entry in the Model Registry.
//
// Identity is (Provider, ID). An enabled descriptor is expected to have
// been reachable at its last probe, unless Provider indicates a managed
// cloud endpoint that is trusted unconditionally (see UnconditionalTrust).
type ModelDescriptor struct {
	ID       string
	Provider Provider
	Kind     ModelKind
	Endpoint string // URL, empty for providers without a configurable endpoint
	// Credential is an opaque reference, typically a CloudAuthProfile name.
	Credential string
	Enabled    bool

	// Provider-specific hints.
	MaxInputTokens       int
	MaxChunkSize         int
	Temperature          *float64
	TopP                 *float64
	MaxChatHistoryTokens int
	FrequencyPenalty     *float64
	PresencePenalty      *float64

	LastProbe    time.Time
	LastProbeOK  bool
}

// Identity returns the registry key for this descriptor.
func (m ModelDescriptor) Identity() string {
	return string(m.Provider) + "/" + m.ID
}

// UnconditionalTrust reports whether this descriptor's reachability is
// assumed rather than probed (managed cloud providers without a
// user-suppliable endpoint to ping).
func (m ModelDescriptor) UnconditionalTrust() bool {
	switch m.Provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderBedrock, ProviderCohere, ProviderPerplexity, ProviderOCIGenAI:
		return true
	default:
		return false
	}
}

// AuthMode enumerates the supported CloudAuthProfile authentication modes.
type AuthMode string

const (
	AuthModeAPIKey           AuthMode = "api_key"
	AuthModeInstanceIdentity AuthMode = "instance_identity"
	AuthModeWorkloadIdentity AuthMode = "workload_identity"
	AuthModeSecurityToken    AuthMode = "security_token"
)

// CloudAuthProfile is one entry in the Cloud Auth Profile Registry.
type CloudAuthProfile struct {
	ProfileName    string
	Authentication AuthMode

	User        string
	Tenancy     string
	Fingerprint string
	Region      string

	// KeyMaterialRef is a reference (file path or secret name), never the
	// key material itself.
	KeyMaterialRef string

	ServiceEndpoints map[string]string // service name -> override URL
}

// DatabaseHandle is one entry in the Database Connection Pool Registry.
type DatabaseHandle struct {
	Name string

	User          string
	Secret        string
	DSN           string
	WalletRef     string
	ConnectTimeout time.Duration

	Connected bool
}

// DistanceMetric is the similarity function used by a VectorStore's index.
type DistanceMetric string

const (
	DistanceCosine    DistanceMetric = "cosine"
	DistanceDot       DistanceMetric = "dot"
	DistanceEuclidean DistanceMetric = "euclidean"
)

// Similarity converts a raw distance returned by the index into a
// similarity score in the uniform convention used for filtering (§4.1.a).
func (d DistanceMetric) Similarity(distance float64) float64 {
	switch d {
	case DistanceCosine:
		return 1 - distance/2
	case DistanceEuclidean:
		return 1 / (1 + distance)
	case DistanceDot:
		return distance
	default:
		return distance
	}
}

// IndexType is the vector index structure built on a VectorStore table.
type IndexType string

const (
	IndexFlat IndexType = "flat"
	IndexHNSW IndexType = "hnsw"
	IndexIVF  IndexType = "ivf"
)

// SearchType is the retrieval strategy a vector-search request selects.
type SearchType string

const (
	SearchSimilarity              SearchType = "similarity"
	SearchSimilarityScoreThreshold SearchType = "similarity_score_threshold"
	SearchMMR                     SearchType = "mmr"
)

// VectorStore describes one live embeddings table.
//
// TableName is a deterministic function of the other identity-contributing
// fields; callers derive it with DeriveTableName rather than inventing one.
type VectorStore struct {
	TableName         string
	Alias             string
	Description       string
	EmbeddingModelID  string
	ChunkSize         int
	ChunkOverlap      int
	DistanceMetric    DistanceMetric
	IndexType         IndexType
}

// Chunk is one embeddable unit of a source document, eventually a VectorRow.
type Chunk struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// VectorRow is a Chunk plus its embedding, as stored in a VectorStore table.
type VectorRow struct {
	Chunk
	Embedding []float32
}

// PromptCategory enumerates the finite set of prompt roles in the system.
type PromptCategory string

const (
	PromptCategorySystem    PromptCategory = "system"
	PromptCategoryContext   PromptCategory = "context"
	PromptCategoryGrading   PromptCategory = "grading"
	PromptCategoryRephrase  PromptCategory = "rephrase"
	PromptCategoryDiscovery PromptCategory = "discovery"
	PromptCategoryJudge     PromptCategory = "judge"
)

// MessageRole is the role tag on a PromptTemplate or chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// PromptTemplate is one named, possibly-overridden prompt.
type PromptTemplate struct {
	Name         string
	Category     PromptCategory
	Role         MessageRole
	Title        string
	Tags         []string
	DefaultText  string
	OverrideText string // empty when no override is active
}

// EffectiveText returns OverrideText if present, else DefaultText.
func (p PromptTemplate) EffectiveText() string {
	if p.OverrideText != "" {
		return p.OverrideText
	}
	return p.DefaultText
}

// LanguageModelSettings is the language-model slice of ClientSettings.
type LanguageModelSettings struct {
	ModelID     string
	History     bool
	Temperature *float64
	MaxTokens   *int
}

// VectorSearchSettings is the vector_search slice of ClientSettings.
type VectorSearchSettings struct {
	Enabled        bool
	Discovery      bool
	Rephrase       bool
	Grade          bool
	SearchType     SearchType
	TopK           int
	ScoreThreshold float64
	MMRFetchK      int
	MMRLambda      float64
	Alias          string
	TableName      string
	ChunkSize      int
	ChunkOverlap   int
}

// SelectAISettings is the selectai slice of ClientSettings.
type SelectAISettings struct {
	Enabled bool
	Profile string
	Params  map[string]string
}

// ClientSettings is one per-client Settings record.
type ClientSettings struct {
	ClientID     string
	LanguageModel LanguageModelSettings
	VectorSearch VectorSearchSettings
	SelectAI     SelectAISettings
	AuthProfileName string
	PromptRefs   map[PromptCategory]string
	ToolsEnabled map[string]bool
}

// DeepCopy returns an independent copy, used when seeding a new client
// identity from the "default" template (§3 ClientSettings invariant).
func (c ClientSettings) DeepCopy() ClientSettings {
	out := c
	out.PromptRefs = make(map[PromptCategory]string, len(c.PromptRefs))
	for k, v := range c.PromptRefs {
		out.PromptRefs[k] = v
	}
	out.ToolsEnabled = make(map[string]bool, len(c.ToolsEnabled))
	for k, v := range c.ToolsEnabled {
		out.ToolsEnabled[k] = v
	}
	out.SelectAI.Params = make(map[string]string, len(c.SelectAI.Params))
	for k, v := range c.SelectAI.Params {
		out.SelectAI.Params[k] = v
	}
	return out
}

// TestSet is a stored collection of question/reference-answer pairs.
type TestSet struct {
	TID     string
	Name    string
	Created time.Time
	QAItems []QAItem
}

// QAItem is one question/reference-answer pair within a TestSet.
type QAItem struct {
	Question        string
	ReferenceAnswer string
	Metadata        map[string]string
}

// EvaluationReport is the persisted result of grading one TestSet.
type EvaluationReport struct {
	EID                   string
	TID                   string
	EvaluatedAt           time.Time
	Correctness           float64
	ClientSettingsSnapshot string // JSON
	ReportBlob            []byte // opaque, produced by the judge metric
}

// ChatMessage is one role-tagged message in a ChatGraphState thread.
type ChatMessage struct {
	Role     MessageRole
	Content  string
	ToolCall *ToolCall // set when Role == RoleAssistant and a call was made
	ToolName string    // set when Role == RoleTool
}

// ToolCall captures a model-requested tool invocation.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // JSON
}

// VSMetadata records retrieval provenance attached to a final response.
type VSMetadata struct {
	SearchedTables []string
	DocumentCount  int
}

// CompletionChoice is one entry of a FinalResponse's Choices.
type CompletionChoice struct {
	Message      ChatMessage
	FinishReason string
	Index        int
}

// FinalResponse is the completion envelope built at `finalise`.
type FinalResponse struct {
	ID      string
	Choices []CompletionChoice
	Created time.Time
	Model   string
	Object  string
}

// ChatGraphState is the working state of one active chat thread.
type ChatGraphState struct {
	ClientID        string
	Messages        []ChatMessage
	CleanedMessages []ChatMessage
	ContextInput    string
	Documents       string
	FinalResponse   FinalResponse
	VSMetadata      VSMetadata
}

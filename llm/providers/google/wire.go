package google

import "encoding/json"

type generateContentRequest struct {
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
	Tools             []tool            `json:"tools,omitempty"`
	ToolConfig        *toolConfig       `json:"toolConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text             *string           `json:"text,omitempty"`
	FunctionCall     *functionCall     `json:"functionCall,omitempty"`
	FunctionResponse *functionResponse `json:"functionResponse,omitempty"`
}

type functionCall struct {
	ID   string          `json:"id,omitempty"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type functionResponse struct {
	ID       string                  `json:"id,omitempty"`
	Name     string                  `json:"name"`
	Response functionResponsePayload `json:"response"`
}

type functionResponsePayload struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type generationConfig struct {
	MaxOutputTokens  *int64   `json:"maxOutputTokens,omitempty"`
	CandidateCount   *int64   `json:"candidateCount,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"topP,omitempty"`
	TopK             *int64   `json:"topK,omitempty"`
	PresencePenalty  *float64 `json:"presencePenalty,omitempty"`
	FrequencyPenalty *float64 `json:"frequencyPenalty,omitempty"`
	StopSequences    []string `json:"stopSequences,omitempty"`
}

func (g generationConfig) empty() bool {
	return g.MaxOutputTokens == nil && g.CandidateCount == nil && g.Temperature == nil &&
		g.TopP == nil && g.TopK == nil && g.PresencePenalty == nil &&
		g.FrequencyPenalty == nil && len(g.StopSequences) == 0
}

type tool struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations"`
}

type functionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type toolConfig struct {
	FunctionCallingConfig functionCallingConfig `json:"functionCallingConfig"`
}

type functionCallingConfig struct {
	Mode                 string   `json:"mode"`
	AllowedFunctionNames []string `json:"allowedFunctionNames,omitempty"`
}

type generateContentResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback json.RawMessage `json:"promptFeedback,omitempty"`
	Error          *errorBody      `json:"error,omitempty"`
}

type candidate struct {
	Content      json.RawMessage `json:"content"`
	FinishReason string          `json:"finishReason"`
	Index        int             `json:"index"`
}

type responseContent struct {
	Role  string            `json:"role"`
	Parts []json.RawMessage `json:"parts"`
}

type responsePart struct {
	Text             *string         `json:"text"`
	Thought          bool            `json:"thought"`
	FunctionCall     *functionCall   `json:"functionCall"`
	FunctionResponse json.RawMessage `json:"functionResponse"`
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type errorEnvelope struct {
	Error *errorBody `json:"error"`
}

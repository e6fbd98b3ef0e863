package ai

import (
	"encoding/json"
	"strings"

	agentErrors "recruitagent/internal/errors"
	"recruitagent/internal/types"
)

// InterpretAnalysis extracts the analysis object from a model reply. The
// span from the first '{' to the last '}' is decoded as a whole, so prose
// around a single object is tolerated while two separate objects are not.
func InterpretAnalysis(reply string) (*types.AnalysisResult, error) {
	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start < 0 || end < start {
		return nil, agentErrors.NewResponseFormatError(reply, "no JSON object found in model reply", nil)
	}

	var result types.AnalysisResult
	if err := json.Unmarshal([]byte(reply[start:end+1]), &result); err != nil {
		return nil, agentErrors.NewResponseFormatError(reply, "model reply is not a valid analysis object", err)
	}
	return &result, nil
}

// Interpret returns the typed result for kind: *types.AnalysisResult for
// analysis, the reply text unchanged for everything else.
func Interpret(kind TaskKind, reply string) (any, error) {
	if kind == TaskAnalyze {
		return InterpretAnalysis(reply)
	}
	return reply, nil
}

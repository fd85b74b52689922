package testbed

import (
	"errors"

	"github.com/oracle/ai-optimizer-server/internal/apierrors"
)

// GenerationErrorKind classifies a failure raised while generating a
// TestSet, mirroring the branches of
// `original_source/src/server/api/v1/testbed.py`'s `_handle_testset_error`.
type GenerationErrorKind string

const (
	// GenerationNoQuestions is raised when the configured model produced no
	// usable question/answer pairs for a source document.
	GenerationNoQuestions GenerationErrorKind = "no_questions"
	// GenerationValidation is raised for a malformed knowledge base or
	// otherwise invalid generation input.
	GenerationValidation GenerationErrorKind = "validation"
	// GenerationUpstream is raised when the generation LLM call itself
	// fails to connect.
	GenerationUpstream GenerationErrorKind = "upstream"
)

// GenerationError is the typed error a QAGenerator returns; ClassifyGenerationError
// maps it onto the HTTP status the rest of the server understands.
type GenerationError struct {
	Kind    GenerationErrorKind
	Message string
	Cause   error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *GenerationError) Unwrap() error { return e.Cause }

// ClassifyGenerationError maps a generation failure onto an apierrors.Error,
// grounded on _handle_testset_error's KeyError/ValueError/APIConnectionError
// branches: "could not generate any questions" -> 400, malformed knowledge
// base -> 400, upstream connection failure -> 424, anything else -> 500.
func ClassifyGenerationError(modelName string, err error) error {
	var ge *GenerationError
	if errors.As(err, &ge) {
		switch ge.Kind {
		case GenerationNoQuestions:
			return apierrors.Validation(
				"Failed to generate any questions using model '"+modelName+"'. "+
					"This may indicate the model is unavailable, retired, or not found. "+
					"Please verify the model name and try a different model.", ge.Cause)
		case GenerationValidation:
			return apierrors.Validation(ge.Message, ge.Cause)
		case GenerationUpstream:
			return apierrors.UpstreamError("Model API error: "+ge.Message, ge.Cause)
		}
	}
	return apierrors.Internal("Unexpected TestSet error.", err)
}

// ErrNonBooleanCorrectness is wrapped by a judge result whose "correctness"
// field is not a bool (§4.1.d-style conservative handling, here surfaced as
// an Integrity error rather than silently coerced, §4.4 "any other shape is
// an evaluation error that is wrapped and reported").
var ErrNonBooleanCorrectness = errors.New(`judge response "correctness" field was not a boolean`)

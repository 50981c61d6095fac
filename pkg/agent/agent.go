// Package agent runs a zero-shot ReAct loop: the model picks a tool from its
// description, sees the observation, and repeats until it gives a final answer.
package agent

import (
	"context"
	"errors"
	"fmt"
	"image"
	"regexp"
	"strings"

	"ai-shopping-assistant-be/internal/pkg/logger"
	"ai-shopping-assistant-be/pkg/llm"
)

const (
	DefaultMaxIterations = 5

	Prefix = "You are a helpful shopping assistant. " +
		"You have tools: DescribeImage, DetectColor, and RAGAnswer. " +
		"If there is an uploaded image and the user asks 'what is this', " +
		"first call DescribeImage. If the user asks about color of an image, " +
		"call DetectColor. Otherwise use RAGAnswer. Keep replies concise."

	formatInstructions = `Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [%s]
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat N times)
Thought: I now know the final answer
Final Answer: the final answer to the original input question`

	finalAnswerMarker = "Final Answer:"
	observationStop   = "\nObservation:"

	missingActionMsg = "Invalid Format: Missing 'Action:' after 'Thought:'"
)

var (
	ErrIterationLimit = errors.New("agent stopped due to iteration limit")

	actionPattern = regexp.MustCompile(`(?s)Action\s*\d*\s*:[\s]*(.*?)[\s]*Action\s*\d*\s*Input\s*\d*\s*:[\s]*(.*)`)
)

// Input is one agent invocation.
type Input struct {
	Prompt string
	Image  image.Image
}

// Step is one tool call and what it returned.
type Step struct {
	Thought     string
	Tool        string
	ToolInput   string
	Observation string
}

type Result struct {
	Output string
	Steps  []Step
}

// Invoker is the agent contract used by the assistant pipeline.
type Invoker interface {
	Invoke(ctx context.Context, in Input) (*Result, error)
}

type Agent struct {
	llm           llm.LLMProvider
	tools         []Tool
	maxIterations int
	logger        logger.ILogger
}

func New(provider llm.LLMProvider, tools []Tool, maxIterations int, logger logger.ILogger) *Agent {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Agent{llm: provider, tools: tools, maxIterations: maxIterations, logger: logger}
}

func (a *Agent) Invoke(ctx context.Context, in Input) (*Result, error) {
	prompt := a.buildPrompt(in.Prompt)
	res := &Result{}

	var scratchpad strings.Builder
	for i := 0; i < a.maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		out, err := a.llm.Generate(ctx, prompt+scratchpad.String(),
			llm.WithTemperature(0), llm.WithStop(observationStop))
		if err != nil {
			return nil, fmt.Errorf("agent step %d: %w", i+1, err)
		}

		if final, ok := parseFinalAnswer(out); ok {
			res.Output = final
			return res, nil
		}

		step := Step{Thought: strings.TrimSpace(out)}
		toolName, toolInput, ok := parseAction(out)
		if !ok {
			step.Observation = missingActionMsg
		} else {
			step.Tool, step.ToolInput = toolName, toolInput
			obs, err := a.runTool(ctx, toolName, toolInput, in.Image)
			if err != nil {
				return nil, fmt.Errorf("tool %s: %w", toolName, err)
			}
			step.Observation = obs
		}

		a.logger.Debug("agent", "agent step", map[string]interface{}{
			"iteration": i + 1,
			"tool":      step.Tool,
			"input":     step.ToolInput,
		})

		res.Steps = append(res.Steps, step)
		scratchpad.WriteString(out)
		scratchpad.WriteString("\nObservation: ")
		scratchpad.WriteString(step.Observation)
		scratchpad.WriteString("\nThought:")
	}
	return nil, ErrIterationLimit
}

func (a *Agent) buildPrompt(question string) string {
	names := make([]string, len(a.tools))
	descs := make([]string, len(a.tools))
	for i, t := range a.tools {
		names[i] = t.Name
		descs[i] = t.Name + ": " + t.Description
	}

	var b strings.Builder
	b.WriteString(Prefix)
	b.WriteString("\n\n")
	b.WriteString(strings.Join(descs, "\n"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, formatInstructions, strings.Join(names, ", "))
	b.WriteString("\n\nBegin!\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\nThought:")
	return b.String()
}

func (a *Agent) runTool(ctx context.Context, name, input string, img image.Image) (string, error) {
	for _, t := range a.tools {
		if t.Name == name {
			return t.Execute(ctx, input, img)
		}
	}
	names := make([]string, len(a.tools))
	for i, t := range a.tools {
		names[i] = t.Name
	}
	return fmt.Sprintf("%s is not a valid tool, try one of [%s].", name, strings.Join(names, ", ")), nil
}

func parseFinalAnswer(out string) (string, bool) {
	idx := strings.LastIndex(out, finalAnswerMarker)
	if idx < 0 {
		return "", false
	}
	return strings.TrimSpace(out[idx+len(finalAnswerMarker):]), true
}

func parseAction(out string) (tool, input string, ok bool) {
	m := actionPattern.FindStringSubmatch(out)
	if m == nil {
		return "", "", false
	}
	tool = strings.TrimSpace(m[1])
	input = strings.Trim(strings.TrimSpace(m[2]), `"`)
	return tool, input, true
}

package executor

import (
	"context"
	"fmt"
	"reflect"

	"github.com/khulnasoft/DataLineup/queue"
	"github.com/khulnasoft/DataLineup/topic"
)

// ErrorHandlers is the queue-level table of declared error routes,
// keyed by output channel name.
type ErrorHandlers map[string][]ErrorHandler

// wildcardErrorChannel is the broadest fallback key: a handler
// registered here catches any pipeline's errors once no more specific
// key (error:<pipeline>:<TypeName>, then error:<pipeline>:*) matches.
const wildcardErrorChannel = "error:*"

// resolve walks channels from most to least specific (typically
// error:<pipeline> then error:*), and within each channel tries an
// exact TypeName match before that channel's own wildcard entry
// (TypeName == ""). The first match at any level wins.
func (h ErrorHandlers) resolve(channels []string, err error) *ErrorHandler {
	typeName := reflect.TypeOf(err).String()
	for _, channel := range channels {
		for _, handler := range h[channel] {
			if handler.TypeName == typeName {
				return &handler
			}
		}
		for _, handler := range h[channel] {
			if handler.TypeName == "" {
				return &handler
			}
		}
	}
	return nil
}

// routeError implements §4.6's error-handler resolution: match
// error:<channel>:<TypeName> down to error:*, publish an error message,
// optionally republish the original up to max_retry, and decide whether
// the caller should see HandledError (success) or the raw error.
func (p *Pipeline) routeError(ctx context.Context, msg *queue.ExecutableMessage, cause error) (bool, *HandledError) {
	handlers, ok := p.ErrorHandlers()
	if !ok {
		return false, nil
	}

	handler := handlers.resolve([]string{errorChannelName(msg), wildcardErrorChannel}, cause)
	if handler == nil {
		return false, nil
	}

	errMsg := topic.Message{
		ID: msg.Item.ID + ":error",
		Args: map[string]any{
			"cause": cause.Error(),
		},
		Metadata: map[string]map[string]any{
			"error": {
				"type":    reflect.TypeOf(cause).String(),
				"message": cause.Error(),
			},
		},
	}

	outputs := map[string][]topic.Message{handler.Channel: {errMsg}}

	if handler.Republish != nil {
		retries := retryCount(msg)
		if retries < handler.Republish.MaxRetry {
			republished := msg.Item
			republished.Metadata = mergeRetries(msg.Item.Metadata, retries+1)
			outputs[handler.Republish.Channel] = []topic.Message{itemToMessage(republished)}
		}
	}

	setHandled := handler.SetHandled
	result := PipelineResults{Outputs: outputs}

	if !setHandled {
		return false, &HandledError{Results: result, Cause: cause}
	}
	return true, &HandledError{Results: result, Cause: cause}
}

// ErrorHandlers is a placeholder hook point: a real queue attaches its
// declared handlers via this method; the zero Pipeline has none, so all
// errors surface unhandled. Overridden per-pipeline by setting Handlers.
func (p *Pipeline) ErrorHandlers() (ErrorHandlers, bool) {
	if p.Handlers == nil {
		return nil, false
	}
	return p.Handlers, true
}

func errorChannelName(msg *queue.ExecutableMessage) string {
	return fmt.Sprintf("error:%s", msg.Pipeline.Name)
}

func retryCount(msg *queue.ExecutableMessage) int {
	if msg.Item.Metadata == nil {
		return 0
	}
	meta, ok := msg.Item.Metadata["retry"]
	if !ok {
		return 0
	}
	n, _ := meta["retries"].(int)
	return n
}

func mergeRetries(metadata map[string]map[string]any, n int) map[string]map[string]any {
	out := make(map[string]map[string]any, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	out["retry"] = map[string]any{"retries": n}
	return out
}

func itemToMessage(item topic.Item) topic.Message {
	return topic.Message{ID: item.ID, Args: item.Args, Tags: item.Tags, Metadata: item.Metadata}
}

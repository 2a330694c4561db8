package commands

import (
	"context"

	"github.com/khulnasoft/DataLineup/executor"
	"github.com/khulnasoft/DataLineup/manager"
	"github.com/khulnasoft/DataLineup/queue"
	"github.com/khulnasoft/DataLineup/topic"
)

// buildInlineExecutor is the worker's one built-in RemoteExecutor: it
// republishes an item's args unchanged to every topic on every
// declared output channel. Real pipeline logic is an external
// collaborator per the executor/RemoteExecutor boundary (§4.6); this
// exists so a topology with no custom executor still has somewhere to
// route to, for smoke-testing a topology end to end.
func buildInlineExecutor(def manager.ComponentDefinition) (executor.RemoteExecutor, error) {
	concurrency := 4
	if v, ok := def.Options["concurrency"].(int); ok && v > 0 {
		concurrency = v
	}
	return executor.Func{
		Concurrent: concurrency,
		Run: func(ctx context.Context, msg *queue.ExecutableMessage) (executor.PipelineResults, error) {
			out := topic.Message{
				ID:       msg.Item.ID,
				Args:     msg.Item.Args,
				Tags:     msg.Item.Tags,
				Metadata: msg.Item.Metadata,
			}
			outputs := make(map[string][]topic.Message, len(msg.Outputs))
			for channel := range msg.Outputs {
				outputs[channel] = []topic.Message{out}
			}
			return executor.PipelineResults{Outputs: outputs}, nil
		},
	}, nil
}

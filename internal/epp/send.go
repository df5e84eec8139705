package epp

import (
	"context"

	"github.com/rsclarke/goepp/internal/command"
)

// Send renders the named command template and executes it.
func Send(ctx context.Context, exec Executor, r *command.Renderer, name string, params command.Params, opts ...command.Option) (*Result, error) {
	xml, err := r.Render(name, params, opts...)
	if err != nil {
		return nil, err
	}
	return exec.Execute(ctx, xml)
}

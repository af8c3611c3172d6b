package response

import "context"

// Processor transforms a response value before serialization. Processors may
// change the variant, e.g. turning a domain object wrapped in a Mapping into
// a different Mapping shape.
type Processor func(ctx context.Context, v Value) (Value, error)

// Pipeline applies registered processors strictly in registration order.
type Pipeline struct {
	processors []Processor
}

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Use appends a processor. Registration happens at setup time; the pipeline
// is read-only once serving begins.
func (p *Pipeline) Use(proc Processor) {
	p.processors = append(p.processors, proc)
}

// Apply runs every processor over v in registration order. The first
// processor error aborts the pipeline.
func (p *Pipeline) Apply(ctx context.Context, v Value) (Value, error) {
	var err error
	for _, proc := range p.processors {
		v, err = proc(ctx, v)
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

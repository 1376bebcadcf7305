package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuemby/burrow/pkg/types"
)

// PushImageArgs are the arguments of the push_image task.
type PushImageArgs struct {
	ImageRef string `json:"image_ref"`
	Registry string `json:"registry"`
}

func (a *PushImageArgs) Validate() error {
	if a.ImageRef == "" {
		return errors.New("push_image: image_ref must not be empty")
	}
	if a.Registry == "" {
		return errors.New("push_image: registry must not be empty")
	}
	return nil
}

// PushImageResult reports where the image landed.
type PushImageResult struct {
	ImageRef string
	Registry string
}

func (r PushImageResult) Message() string {
	return fmt.Sprintf("Pushed %s to %s", r.ImageRef, r.Registry)
}

// PushImageHandler uploads an image layer by layer, reporting progress
// per layer. Cancellation or a failed progress report aborts the run;
// there is no per-layer failure collection or partial-success result.
type PushImageHandler struct {
	// Layers is the number of simulated upload units.
	Layers int
}

func (h *PushImageHandler) Name() types.TaskName {
	return types.TaskPushImage
}

func (h *PushImageHandler) NewArgs() Args {
	return &PushImageArgs{}
}

func (h *PushImageHandler) Execute(ctx context.Context, reporter Reporter, args Args) (Result, error) {
	a, ok := args.(*PushImageArgs)
	if !ok {
		return nil, fmt.Errorf("push_image: unexpected argument type %T", args)
	}

	layers := h.Layers
	if layers <= 0 {
		layers = 4
	}

	for i := 0; i < layers; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := reporter.Report(ctx, float64(i+1), float64(layers), fmt.Sprintf("Uploading layer %d/%d of %s", i+1, layers, a.ImageRef)); err != nil {
			return nil, err
		}
	}

	return PushImageResult{ImageRef: a.ImageRef, Registry: a.Registry}, nil
}

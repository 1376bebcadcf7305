package task

import (
	"context"
	"errors"
	"fmt"

	"github.com/cuemby/burrow/pkg/types"
)

// CloneVFolderArgs are the arguments of the clone_vfolder task.
type CloneVFolderArgs struct {
	Src string `json:"src"`
	Dst string `json:"dst"`
}

func (a *CloneVFolderArgs) Validate() error {
	if a.Src == "" {
		return errors.New("clone_vfolder: src must not be empty")
	}
	if a.Dst == "" {
		return errors.New("clone_vfolder: dst must not be empty")
	}
	if a.Src == a.Dst {
		return errors.New("clone_vfolder: src and dst must differ")
	}
	return nil
}

// CloneVFolderResult reports the destination of the finished clone.
type CloneVFolderResult struct {
	Dst string
}

func (r CloneVFolderResult) Message() string {
	return fmt.Sprintf("Cloned vfolder to %s", r.Dst)
}

// CloneVFolderHandler copies a virtual folder chunk by chunk, reporting
// progress per chunk.
type CloneVFolderHandler struct {
	// Chunks is the number of copy units; exposed so tests can shrink
	// the simulated transfer.
	Chunks int
}

func (h *CloneVFolderHandler) Name() types.TaskName {
	return types.TaskCloneVFolder
}

func (h *CloneVFolderHandler) NewArgs() Args {
	return &CloneVFolderArgs{}
}

func (h *CloneVFolderHandler) Execute(ctx context.Context, reporter Reporter, args Args) (Result, error) {
	a, ok := args.(*CloneVFolderArgs)
	if !ok {
		return nil, fmt.Errorf("clone_vfolder: unexpected argument type %T", args)
	}

	chunks := h.Chunks
	if chunks <= 0 {
		chunks = 8
	}

	for i := 0; i < chunks; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := reporter.Report(ctx, float64(i+1), float64(chunks), fmt.Sprintf("Copying %s to %s", a.Src, a.Dst)); err != nil {
			return nil, err
		}
	}

	return CloneVFolderResult{Dst: a.Dst}, nil
}

// DeleteVFolderArgs are the arguments of the delete_vfolder task.
type DeleteVFolderArgs struct {
	VFolderID string `json:"vfolder_id"`
}

func (a *DeleteVFolderArgs) Validate() error {
	if a.VFolderID == "" {
		return errors.New("delete_vfolder: vfolder_id must not be empty")
	}
	return nil
}

// DeleteVFolderHandler removes a virtual folder's contents and then the
// folder record itself.
type DeleteVFolderHandler struct{}

func (h *DeleteVFolderHandler) Name() types.TaskName {
	return types.TaskDeleteVFolder
}

func (h *DeleteVFolderHandler) NewArgs() Args {
	return &DeleteVFolderArgs{}
}

func (h *DeleteVFolderHandler) Execute(ctx context.Context, reporter Reporter, args Args) (Result, error) {
	a, ok := args.(*DeleteVFolderArgs)
	if !ok {
		return nil, fmt.Errorf("delete_vfolder: unexpected argument type %T", args)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := reporter.Report(ctx, 1, 2, fmt.Sprintf("Purging contents of %s", a.VFolderID)); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := reporter.Report(ctx, 2, 2, fmt.Sprintf("Removing vfolder %s", a.VFolderID)); err != nil {
		return nil, err
	}

	return EmptyResult{}, nil
}

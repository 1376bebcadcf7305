package task

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingReporter captures progress reports for assertions.
type recordingReporter struct {
	mu      sync.Mutex
	reports []string
}

func (r *recordingReporter) Report(_ context.Context, current, total float64, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, message)
	return nil
}

func TestCloneVFolderReportsProgress(t *testing.T) {
	h := &CloneVFolderHandler{Chunks: 3}
	reporter := &recordingReporter{}

	result, err := h.Execute(context.Background(), reporter, &CloneVFolderArgs{Src: "a", Dst: "b"})
	require.NoError(t, err)
	assert.Equal(t, "Cloned vfolder to b", result.Message())
	assert.Len(t, reporter.reports, 3)
}

func TestCloneVFolderCancellation(t *testing.T) {
	h := &CloneVFolderHandler{Chunks: 3}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.Execute(ctx, NopReporter{}, &CloneVFolderArgs{Src: "a", Dst: "b"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDeleteVFolderExecute(t *testing.T) {
	h := &DeleteVFolderHandler{}
	reporter := &recordingReporter{}

	result, err := h.Execute(context.Background(), reporter, &DeleteVFolderArgs{VFolderID: "vf-1"})
	require.NoError(t, err)
	assert.Equal(t, "Task completed successfully", result.Message())
	assert.Len(t, reporter.reports, 2)
}

func TestPushImageExecute(t *testing.T) {
	h := &PushImageHandler{Layers: 2}

	result, err := h.Execute(context.Background(), NopReporter{}, &PushImageArgs{ImageRef: "app:1", Registry: "reg"})
	require.NoError(t, err)
	assert.Equal(t, "Pushed app:1 to reg", result.Message())
}

func TestArgsValidation(t *testing.T) {
	tests := []struct {
		name    string
		args    Args
		wantErr bool
	}{
		{name: "valid clone", args: &CloneVFolderArgs{Src: "a", Dst: "b"}, wantErr: false},
		{name: "clone missing dst", args: &CloneVFolderArgs{Src: "a"}, wantErr: true},
		{name: "clone src equals dst", args: &CloneVFolderArgs{Src: "a", Dst: "a"}, wantErr: true},
		{name: "valid delete", args: &DeleteVFolderArgs{VFolderID: "vf"}, wantErr: false},
		{name: "delete missing id", args: &DeleteVFolderArgs{}, wantErr: true},
		{name: "valid push", args: &PushImageArgs{ImageRef: "a", Registry: "b"}, wantErr: false},
		{name: "push missing registry", args: &PushImageArgs{ImageRef: "a"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.args.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

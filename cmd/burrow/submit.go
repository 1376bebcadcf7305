package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/burrow/pkg/manager"
	"github.com/cuemby/burrow/pkg/storage"
	"github.com/cuemby/burrow/pkg/task"
	"github.com/cuemby/burrow/pkg/types"
)

var submitCmd = &cobra.Command{
	Use:   "submit <task-name>",
	Short: "Submit a background task and stream its events",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubmit,
}

func init() {
	submitCmd.Flags().String("redis-addr", "127.0.0.1:6379", "Address of the shared key-value store")
	submitCmd.Flags().String("server-id", "burrow-cli", "Server id to submit under")
	submitCmd.Flags().String("body", "{}", "Task arguments as a JSON object")
	submitCmd.Flags().StringSlice("tag", nil, "Tags to attach to the task")
	submitCmd.Flags().Duration("wait", time.Minute, "How long to wait for the terminal event (0 = don't wait)")

	rootCmd.AddCommand(submitCmd)
}

func runSubmit(cmd *cobra.Command, cmdArgs []string) error {
	initLogging(cmd)

	name := types.TaskName(cmdArgs[0])
	ctx := cmd.Context()

	redisAddr, _ := cmd.Flags().GetString("redis-addr")
	redisCfg := storage.DefaultRedisConfig()
	redisCfg.Addr = redisAddr

	store, err := storage.NewRedisStore(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer store.Close()

	serverID, _ := cmd.Flags().GetString("server-id")
	mgr := manager.New(manager.DefaultConfig(types.ServerID(serverID)), store)
	mgr.RegisterHandler(&task.CloneVFolderHandler{})
	mgr.RegisterHandler(&task.DeleteVFolderHandler{})
	mgr.RegisterHandler(&task.PushImageHandler{})

	bodyJSON, _ := cmd.Flags().GetString("body")
	var body map[string]any
	if err := json.Unmarshal([]byte(bodyJSON), &body); err != nil {
		return fmt.Errorf("invalid --body: %w", err)
	}

	h, err := mgr.Handlers().Get(name)
	if err != nil {
		return err
	}
	args, err := task.DecodeArgs(h, body)
	if err != nil {
		return err
	}

	sub := mgr.Subscribe()
	defer mgr.Unsubscribe(sub)

	tags, _ := cmd.Flags().GetStringSlice("tag")
	taskID, err := mgr.Submit(ctx, name, args, tags...)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "task_id: %s\n", taskID)

	wait, _ := cmd.Flags().GetDuration("wait")
	if wait == 0 {
		return nil
	}

	deadline := time.After(wait)
	for {
		select {
		case event := <-sub:
			if event.TaskID() != taskID {
				continue
			}
			fmt.Fprintf(os.Stdout, "%s: %v\n", event.EventName(), event.Serialize())
			if event.Status().Finished() {
				return nil
			}
		case <-deadline:
			return fmt.Errorf("timed out waiting for task %s to finish", taskID)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

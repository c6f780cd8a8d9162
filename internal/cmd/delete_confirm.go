package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type deleteContextKey string

const deleteAutoApproveContextKey deleteContextKey = "clientctl-delete-auto-approve"

// ErrDeleteCancelled is the cause of the execution error returned when the
// user declines a delete.
var ErrDeleteCancelled = errors.New("delete cancelled")

// SetDeleteAutoApprove stores the --yes flag state.
func SetDeleteAutoApprove(cmd *cobra.Command, approved bool) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, deleteAutoApproveContextKey, approved))
}

// DeleteAutoApproveEnabled reports whether the user opted to skip confirmation prompts.
func DeleteAutoApproveEnabled(helper Helper) bool {
	if helper == nil || helper.GetCmd() == nil {
		return false
	}
	approved, _ := helper.GetContext().Value(deleteAutoApproveContextKey).(bool)
	return approved
}

// ConfirmDelete prompts on the helper streams until a line is read. Only
// "y" or "yes" (any case) confirms.
func ConfirmDelete(helper Helper, description string) error {
	if DeleteAutoApproveEnabled(helper) {
		return nil
	}

	streams := helper.GetStreams()
	fmt.Fprintf(streams.Out, "Delete %s? (y/N): ", description)

	input := streams.In
	if f, ok := input.(*os.File); ok && f.Fd() == os.Stdin.Fd() {
		if tty, err := os.OpenFile("/dev/tty", os.O_RDONLY, 0); err == nil {
			defer tty.Close()
			input = tty
		}
	}

	lineCh := make(chan string, 1)
	go func() {
		line, _ := bufio.NewReader(input).ReadString('\n')
		lineCh <- line
	}()

	select {
	case <-helper.GetContext().Done():
		return PrepareExecutionErrorWithHelper(helper, ErrDeleteCancelled.Error(), ErrDeleteCancelled)
	case line := <-lineCh:
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return nil
		default:
			return PrepareExecutionErrorWithHelper(helper, ErrDeleteCancelled.Error(), ErrDeleteCancelled)
		}
	}
}

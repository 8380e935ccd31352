package execshell

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeEnvironmentReplacesOverriddenKeys(t *testing.T) {
	base := []string{"PATH=/usr/bin", "GITHUB_TOKEN=user-token", "HOME=/home/user"}

	merged := MergeEnvironment(base, map[string]string{"GITHUB_TOKEN": "app-token", "GH_TOKEN": "app-token"})

	require.Equal(t, []string{"PATH=/usr/bin", "HOME=/home/user", "GH_TOKEN=app-token", "GITHUB_TOKEN=app-token"}, merged)
}

func TestMergeEnvironmentWithoutOverrides(t *testing.T) {
	base := []string{"PATH=/usr/bin"}

	require.Equal(t, base, MergeEnvironment(base, nil))
}

func TestOSCommandRunnerCapturesOutputAndExitCode(t *testing.T) {
	if _, lookupError := exec.LookPath("sh"); lookupError != nil {
		t.Skip("sh is not available")
	}

	runner := &OSCommandRunner{baseEnvironment: func() []string { return []string{"PATH=/usr/bin:/bin"} }}
	command := ShellCommand{
		Name: CommandName("sh"),
		Details: CommandDetails{
			Arguments:            []string{"-c", `echo "$TOKEN_UNDER_TEST"; echo problem 1>&2; exit 3`},
			EnvironmentVariables: map[string]string{"TOKEN_UNDER_TEST": "value"},
		},
	}

	result, runError := runner.Run(context.Background(), command)

	require.NoError(t, runError)
	require.Equal(t, 3, result.ExitCode)
	require.Equal(t, "value\n", result.StandardOutput)
	require.Equal(t, "problem\n", result.StandardError)
}

func TestOSCommandRunnerReportsMissingExecutable(t *testing.T) {
	runner := NewOSCommandRunner()

	_, runError := runner.Run(context.Background(), ShellCommand{Name: CommandName("ghapp-pr-missing-executable")})

	require.Error(t, runError)
}

package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fourStatesCSV = `id,A,B
r1,0,0
r2,0,1
r3,1,0
r4,1,1
`

// resetFlags restores every flag to its default between command executions.
func resetFlags() {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(resetFlags)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()

	err := rootCmd.Execute()
	return buf.String(), err
}

func writeDataset(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(fourStatesCSV), 0644))
	return dir, path
}

func TestRunCommandStructure(t *testing.T) {
	assert.Equal(t, "run [datafile] [output]", runCmd.Use)
	assert.NotEmpty(t, runCmd.Short)
	assert.Contains(t, runCmd.Long, "Example:")
	assert.NotNil(t, runCmd.RunE)

	flags := runCmd.Flags()
	for _, name := range []string{"max-binom", "workers", "seed", "volume-method", "volume", "skip-verify"} {
		assert.NotNil(t, flags.Lookup(name), "flag %s", name)
	}
	assert.Equal(t, "m", flags.Lookup("max-binom").Shorthand)
	assert.Equal(t, "w", flags.Lookup("workers").Shorthand)
}

func TestRunCommand_EndToEnd(t *testing.T) {
	dir, in := writeDataset(t)
	out := filepath.Join(dir, "results.csv")

	stdout, err := execute(t, "run", in, out,
		"--seed", "3", "--workers", "2", "--log-level", "error", "--env-file", "")
	require.NoError(t, err, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, ",N,mapping,trans_mapping,hs,hk,smap,smap_inf", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "0,1,[0],['A'],0.693147,0.000000,0.000000,"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "1,1,[1],['B'],0.693147,"), lines[2])
	assert.True(t, strings.HasPrefix(lines[3], `2,2,[0 1],"['A', 'B']",1.386294,`), lines[3])

	assert.Contains(t, stdout, "3 mappings written to")
}

func TestRunCommand_Compressed(t *testing.T) {
	dir, in := writeDataset(t)
	out := filepath.Join(dir, "results.csv.gz")

	_, err := execute(t, "run", in, out, "--log-level", "error", "--env-file", "")
	require.NoError(t, err)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "trans_mapping")
}

func TestRunCommand_SHA256VerificationFromConfig(t *testing.T) {
	dir, in := writeDataset(t)
	out := filepath.Join(dir, "results.csv.zst")
	cfgPath := filepath.Join(dir, "gomapping.yaml")
	yaml := "input:\n  datafile: " + in + "\noutput:\n  path: " + out +
		"\nverification:\n  method: sha256\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0644))

	_, err := execute(t, "run", "--config", cfgPath, "--env-file", "")
	require.NoError(t, err)

	_, err = os.Stat(out)
	require.NoError(t, err)
}

func TestRunCommand_RejectsUnknownVerification(t *testing.T) {
	dir, in := writeDataset(t)
	cfgPath := filepath.Join(dir, "gomapping.yaml")
	yaml := "input:\n  datafile: " + in + "\noutput:\n  path: " + filepath.Join(dir, "r.csv") +
		"\nverification:\n  method: md5\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0644))

	_, err := execute(t, "run", "--config", cfgPath, "--skip-verify", "--env-file", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verification.method")
}

func TestRunCommand_MissingOutputDirFailsBeforeRun(t *testing.T) {
	dir, in := writeDataset(t)
	out := filepath.Join(dir, "missing", "results.csv")
	logPath := filepath.Join(dir, "run.log")
	cfgPath := filepath.Join(dir, "gomapping.yaml")
	yaml := "input:\n  datafile: " + in + "\noutput:\n  path: " + out +
		"\nlogging:\n  level: debug\n  output: " + logPath + "\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0644))

	_, err := execute(t, "run", "--config", cfgPath, "--env-file", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output path not writable")
	assert.ErrorIs(t, err, os.ErrNotExist)

	logged, _ := os.ReadFile(logPath)
	assert.NotContains(t, string(logged), "Starting run")
	assert.NotContains(t, string(logged), "Run completed")
}

func TestRunCommand_RejectsZeroMaxBinom(t *testing.T) {
	dir, in := writeDataset(t)
	out := filepath.Join(dir, "results.csv")

	_, err := execute(t, "run", in, out, "-m", "0", "--env-file", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sampling.max_binom")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr), "no output on configuration error")
}

func TestRunCommand_MissingOutput(t *testing.T) {
	_, in := writeDataset(t)

	_, err := execute(t, "run", in, "--env-file", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output.path")
}

func TestRunCommand_EmptyDataset(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(in, []byte("id,A,B\n"), 0644))
	out := filepath.Join(dir, "results.csv")

	_, err := execute(t, "run", in, out, "--log-level", "error", "--env-file", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no records")

	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestInspectCommand_EndToEnd(t *testing.T) {
	_, in := writeDataset(t)

	stdout, err := execute(t, "inspect", in, "-m", "1", "--log-level", "error", "--env-file", "")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Sampling plan (max_binom=1)")
	assert.Contains(t, stdout, "Total mappings to evaluate")
	assert.Contains(t, stdout, "1.386294")
}

func TestValidateCommand_EndToEnd(t *testing.T) {
	dir, in := writeDataset(t)
	cfgPath := filepath.Join(dir, "gomapping.yaml")
	yaml := "input:\n  datafile: " + in + "\noutput:\n  path: " + filepath.Join(dir, "out.csv") + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0644))

	stdout, err := execute(t, "validate", "-c", cfgPath, "--env-file", "")
	require.NoError(t, err, stdout)
	assert.Contains(t, stdout, "Configuration valid")
	assert.Contains(t, stdout, "Records: 4")
	assert.Contains(t, stdout, "Microstates: 4")
	assert.Contains(t, stdout, "Ready to run")
}

func TestValidateCommand_BadOutputDir(t *testing.T) {
	dir, in := writeDataset(t)
	cfgPath := filepath.Join(dir, "gomapping.yaml")
	yaml := "input:\n  datafile: " + in + "\noutput:\n  path: " + filepath.Join(dir, "nope", "out.csv") + "\nlogging:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0644))

	stdout, err := execute(t, "validate", "-c", cfgPath, "--env-file", "")
	require.Error(t, err)
	assert.Contains(t, stdout, "does not exist")
}

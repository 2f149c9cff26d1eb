package toolchain_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"liveasm/pkg/asm"
	"liveasm/pkg/toolchain"
)

// fakeCompiler writes a shell script that behaves like `gcc -S -o out`.
func fakeCompiler(t *testing.T, body string) (string, string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake compiler needs a POSIX shell")
	}
	if _, err := os.Stat("/bin/sh"); err != nil {
		t.Skip("/bin/sh not available")
	}
	dir := t.TempDir()
	calls := filepath.Join(dir, "calls")
	script := "#!/bin/sh\necho run >> " + calls + "\n" + body
	path := filepath.Join(dir, "fakecc")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path, calls
}

const writeOutput = `out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; shift; fi
  shift
done
printf '\t.loc 1 1 0\n\tret\n' > "$out"
`

func countCalls(t *testing.T, path string) int {
	t.Helper()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return 0
	}
	require.NoError(t, err)
	return strings.Count(string(data), "run")
}

func TestBuild(t *testing.T) {
	cc, calls := fakeCompiler(t, writeOutput)
	b, err := toolchain.NewBuilder(4)
	require.NoError(t, err)

	req := toolchain.Request{
		Source:  "int f(void) { return 0; }\n",
		Lang:    toolchain.C,
		Options: toolchain.Options{Compiler: cc, Opt: "O1"},
	}
	out, err := b.Build(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "\t.loc 1 1 0\n\tret\n", out.Text)
	assert.Same(t, asm.GNU, out.Dialect)
	assert.Contains(t, out.Command, "-O1")
	assert.False(t, out.Cached)

	again, err := b.Build(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, again.Cached)
	assert.Equal(t, out.Text, again.Text)
	assert.Equal(t, 1, countCalls(t, calls))

	req.Options.Opt = "O2"
	_, err = b.Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 2, countCalls(t, calls))

	b.Purge()
	_, err = b.Build(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 3, countCalls(t, calls))
}

func TestBuildFailure(t *testing.T) {
	cc, _ := fakeCompiler(t, "echo \"live.c:1:1: error: expected ';'\" >&2\nexit 1\n")
	b, err := toolchain.NewBuilder(4)
	require.NoError(t, err)

	_, err = b.Build(context.Background(), toolchain.Request{
		Source:  "int x",
		Options: toolchain.Options{Compiler: cc},
	})

	var buildErr *toolchain.BuildError
	require.True(t, errors.As(err, &buildErr))
	assert.Contains(t, buildErr.Error(), "expected ';'")
	assert.Contains(t, buildErr.Command, cc)
}

func TestBuildMissingCompiler(t *testing.T) {
	b, err := toolchain.NewBuilder(0)
	require.NoError(t, err)

	_, err = b.Build(context.Background(), toolchain.Request{
		Source:  "int x;",
		Options: toolchain.Options{Compiler: filepath.Join(t.TempDir(), "no-such-cc")},
	})

	var buildErr *toolchain.BuildError
	require.True(t, errors.As(err, &buildErr))
	assert.NotEmpty(t, buildErr.Error())
}

func TestBuildErrorMessage(t *testing.T) {
	assert.Equal(t, "Build failed.", (&toolchain.BuildError{}).Error())
	assert.Equal(t, "boom", (&toolchain.BuildError{Stderr: "boom\n"}).Error())
}
